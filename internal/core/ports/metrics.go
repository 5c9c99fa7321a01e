package ports

import (
	"github.com/rbroggi/datingha/internal/core/model"
)

// MatchingRecorder records matching activity for monitoring.
type MatchingRecorder interface {
	// RecordSwipe counts a swipe. duplicate is true when an earlier swipe on the same pair won.
	RecordSwipe(direction model.SwipeDirection, duplicate bool)

	// RecordMatchCreated counts a newly persisted match.
	RecordMatchCreated()

	// RecordProspectsServed observes the size of a discovery result.
	RecordProspectsServed(count int)
}
