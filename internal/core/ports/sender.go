package ports

import (
	"context"

	"github.com/rbroggi/datingha/internal/core/model"
)

// Sender is the port for delivering outbound match notifications.
type Sender interface {
	// Send delivers one notification to its recipient.
	Send(ctx context.Context, notification model.MatchNotification) error
}
