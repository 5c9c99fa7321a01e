package subscriber

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/rbroggi/datingha/internal/actors/pubsub/wire"
	"github.com/rbroggi/datingha/internal/core/model"
	"github.com/rbroggi/datingha/internal/core/ports"

	log "github.com/sirupsen/logrus"
)

// SubscriberArgs contain the mandatory arguments to build a subscriber.
type SubscriberArgs struct {
	// Subscription is a pubsub subscription
	Subscription *pubsub.Subscription

	// EventHandler is a domain event handler
	EventHandler ports.EventHandler
}

// Subscriber is a pubsub async subscriber
type Subscriber struct {
	subscription *pubsub.Subscription
	eventHandler ports.EventHandler
}

// NewSubscriber creates a subscriber
func NewSubscriber(args SubscriberArgs) *Subscriber {
	return &Subscriber{
		subscription: args.Subscription,
		eventHandler: args.EventHandler,
	}
}

// Consume starts the subscriber. This is a blocking method and should be started in it's own go-routine.
// The way to terminate the method is to cancel the context in input.
func (s *Subscriber) Consume(ctx context.Context) error {
	if err := s.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
	}); err != nil {
		return fmt.Errorf("error receiving messages from subscription: %w", err)
	}
	return nil
}

// acker is the part of *pubsub.Message the handler needs.
type acker interface {
	Ack()
	Nack()
}

func (s *Subscriber) handleMessage(ctx context.Context, msg *pubsub.Message) {
	if msg == nil {
		return
	}
	s.handle(ctx, msg.ID, msg.Data, msg)
}

func (s *Subscriber) handle(ctx context.Context, id string, data []byte, ack acker) {
	event, err := wire.DecodeEvent(data)
	if errors.Is(err, wire.ErrUnknownEvent) {
		log.WithError(err).WithField("message_id", id).Warn("ignoring message with unknown event type")
		ack.Ack()
		return
	}
	if err != nil {
		log.WithError(err).WithField("message_id", id).Error("error decoding message into domain event")
		ack.Nack()
		return
	}

	if err := s.eventHandler.Handle(ctx, event); err != nil {
		logHandlerError(id, event, err)
		ack.Nack()
		return
	}
	ack.Ack()
}

func logHandlerError(id string, event model.Event, err error) {
	log.WithError(err).
		WithField("message_id", id).
		WithField("event_type", string(event.Type())).
		Error("error in domain event handler")
}
