package producer

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/rbroggi/datingha/internal/actors/pubsub/wire"
	"github.com/rbroggi/datingha/internal/core/model"
)

// NewProducer creates a new producer.
func NewProducer(topic *pubsub.Topic) (*Producer, error) {
	if topic == nil {
		return nil, errors.New("topic is nil")
	}
	return &Producer{topic: topic}, nil
}

// Producer is the pubsub producer of domain events and match notifications.
// The same type serves both topics.
type Producer struct {
	topic *pubsub.Topic
}

// Publish implements ports.EventPublisher.
func (p *Producer) Publish(ctx context.Context, event model.Event) error {
	data, err := wire.EncodeEvent(event)
	if err != nil {
		return fmt.Errorf("error encoding domain event: %w", err)
	}
	return p.publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{wire.AttributeEventType: string(event.Type())},
	})
}

// Send implements ports.Sender.
func (p *Producer) Send(ctx context.Context, notification model.MatchNotification) error {
	data, err := wire.EncodeNotification(notification)
	if err != nil {
		return fmt.Errorf("error encoding match notification: %w", err)
	}
	return p.publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"recipient_id": notification.RecipientID.String()},
	})
}

func (p *Producer) publish(ctx context.Context, msg *pubsub.Message) error {
	result := p.topic.Publish(ctx, msg)
	// Block until the result is returned and a server-generated
	// ID is returned for the published message.
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub: result.Get: %w", err)
	}
	return nil
}
