package usecase

import (
	"context"
	"fmt"

	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/rbroggi/datingha/internal/core/ports"
)

// InformerArgs contains the mandatory arguments for the Informer.
type InformerArgs struct {
	// Users resolves the participants of a match.
	Users ports.UserRepository

	// Sender delivers the notifications.
	Sender ports.Sender
}

// NewInformer builds a new informer.
func NewInformer(args InformerArgs) *Informer {
	return &Informer{users: args.Users, sender: args.Sender}
}

// Informer turns domain events into user-facing notifications. Each new
// match 'informs' both participants.
type Informer struct {
	users  ports.UserRepository
	sender ports.Sender
}

// Handle sends one notification per participant of a created match. Other events are ignored.
func (i *Informer) Handle(ctx context.Context, event model.Event) error {
	created, ok := event.(model.MatchCreatedEvent)
	if !ok {
		return nil
	}

	userA, err := i.users.FindByID(ctx, created.UserA)
	if err != nil {
		return fmt.Errorf("error finding user [%s] of match [%s]: %w", created.UserA, created.MatchID, err)
	}
	userB, err := i.users.FindByID(ctx, created.UserB)
	if err != nil {
		return fmt.Errorf("error finding user [%s] of match [%s]: %w", created.UserB, created.MatchID, err)
	}

	for _, pair := range [][2]*model.User{{userA, userB}, {userB, userA}} {
		recipient, partner := pair[0], pair[1]
		notification := model.MatchNotification{
			RecipientID:        recipient.ID(),
			MatchID:            created.MatchID,
			PartnerID:          partner.ID(),
			PartnerDisplayName: partner.Profile().DisplayName(),
			OccurredAt:         created.At,
		}
		if err := i.sender.Send(ctx, notification); err != nil {
			return fmt.Errorf("error sending match notification [%s] to [%s]: %w", created.MatchID, recipient.ID(), err)
		}
	}
	return nil
}
