package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rbroggi/datingha/internal/actors/memory"
	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of the Sender interface.
type MockSender struct {
	t                     *testing.T
	sent                  []model.MatchNotification
	NotificationAssertion func(t *testing.T, sent []model.MatchNotification)
	SendError             error
}

func (m *MockSender) Send(ctx context.Context, notification model.MatchNotification) error {
	m.sent = append(m.sent, notification)
	return m.SendError
}

func TestInformer_Handle(t *testing.T) {
	sendingError := errors.New("sending error")

	users := memory.NewUserStore()
	alice := mustRegister(t, users, "Alice")
	bob := mustRegister(t, users, "Bob")
	match, err := model.NewMatch(alice.ID(), bob.ID(), dummyTime)
	require.NoError(t, err)
	created := model.NewMatchCreatedEvent(match, dummyTime)

	tests := []struct {
		name                  string
		event                 model.Event
		sendError             error
		expectedSent          int
		notificationAssertion func(t *testing.T, sent []model.MatchNotification)
		expectedError         func(t *testing.T, err error)
	}{
		{
			name:         "match created notifies both participants",
			event:        created,
			expectedSent: 2,
			notificationAssertion: func(t *testing.T, sent []model.MatchNotification) {
				byRecipient := map[model.UserID]model.MatchNotification{}
				for _, n := range sent {
					byRecipient[n.RecipientID] = n
					assert.Equal(t, match.ID(), n.MatchID)
					assert.Equal(t, dummyTime, n.OccurredAt)
				}
				require.Contains(t, byRecipient, alice.ID())
				require.Contains(t, byRecipient, bob.ID())
				assert.Equal(t, bob.ID(), byRecipient[alice.ID()].PartnerID)
				assert.Equal(t, "Bob", byRecipient[alice.ID()].PartnerDisplayName)
				assert.Equal(t, alice.ID(), byRecipient[bob.ID()].PartnerID)
				assert.Equal(t, "Alice", byRecipient[bob.ID()].PartnerDisplayName)
			},
		},
		{
			name:         "user swiped is ignored",
			event:        model.UserSwipedEvent{SwiperID: alice.ID(), TargetID: bob.ID(), Direction: model.SwipeLike, At: dummyTime},
			expectedSent: 0,
		},
		{
			name:         "unknown participant fails",
			event:        model.MatchCreatedEvent{MatchID: "x_y", UserA: alice.ID(), UserB: model.NewUserID(), At: dummyTime},
			expectedSent: 0,
			expectedError: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, model.ErrNotFound)
			},
		},
		{
			name:         "error in sending triggers error in handler",
			event:        created,
			sendError:    sendingError,
			expectedSent: 1,
			expectedError: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, sendingError)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sender := &MockSender{
				t:                     t,
				NotificationAssertion: test.notificationAssertion,
				SendError:             test.sendError,
			}
			informer := NewInformer(InformerArgs{Users: users, Sender: sender})
			err := informer.Handle(context.Background(), test.event)
			if test.expectedError != nil {
				test.expectedError(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, sender.sent, test.expectedSent)
			if sender.NotificationAssertion != nil {
				sender.NotificationAssertion(t, sender.sent)
			}
		})
	}
}

func mustRegister(t *testing.T, users *memory.UserStore, name string) *model.User {
	t.Helper()
	p, err := model.NewProfile(model.ProfileArgs{DisplayName: name})
	require.NoError(t, err)
	u := model.NewUser(model.UserArgs{Username: name, Profile: p}, dummyTime)
	require.NoError(t, users.Save(context.Background(), u))
	return u
}
