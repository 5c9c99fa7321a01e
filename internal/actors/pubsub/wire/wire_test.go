package wire

import (
	"testing"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dummyTime = time.Now().Truncate(time.Millisecond).UTC()
)

func TestEvents(t *testing.T) {
	a, b := model.NewUserID(), model.NewUserID()
	tests := []struct {
		name  string
		event model.Event
	}{
		{
			name:  "user swiped",
			event: model.UserSwipedEvent{SwiperID: a, TargetID: b, Direction: model.SwipeSuperLike, At: dummyTime},
		},
		{
			name:  "match created",
			event: model.MatchCreatedEvent{MatchID: model.CanonicalMatchID(a, b), UserA: a, UserB: b, At: dummyTime},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := EncodeEvent(test.event)
			require.NoError(t, err)
			decoded, err := DecodeEvent(data)
			require.NoError(t, err)
			assert.Equal(t, test.event, decoded)
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	_, err := DecodeEvent([]byte("not a proto"))
	require.Error(t, err)

	data, err := marshal(map[string]interface{}{"type": "user_deleted", "occurred_at": dummyTime.Format(time.RFC3339Nano)})
	require.NoError(t, err)
	_, err = DecodeEvent(data)
	require.ErrorIs(t, err, ErrUnknownEvent)

	data, err = marshal(map[string]interface{}{"type": "match_created", "occurred_at": dummyTime.Format(time.RFC3339Nano), "user_a": "bad"})
	require.NoError(t, err)
	_, err = DecodeEvent(data)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestNotification(t *testing.T) {
	n := model.MatchNotification{
		RecipientID:        model.NewUserID(),
		MatchID:            "a_b",
		PartnerID:          model.NewUserID(),
		PartnerDisplayName: "Bob",
		OccurredAt:         dummyTime,
	}
	data, err := EncodeNotification(n)
	require.NoError(t, err)
	decoded, err := DecodeNotification(data)
	require.NoError(t, err)
	assert.Equal(t, n, decoded)
}
