package ports

import (
	"context"

	"github.com/rbroggi/datingha/internal/core/model"
)

// EventPublisher is the port for announcing domain events.
type EventPublisher interface {
	// Publish announces the event. It returns once the event is accepted by the transport.
	Publish(ctx context.Context, event model.Event) error
}
