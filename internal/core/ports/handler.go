package ports

import (
	"context"

	"github.com/rbroggi/datingha/internal/core/model"
)

// EventHandler handles incoming domain events.
type EventHandler interface {
	// Handle will receive an incoming domain event and handle it.
	Handle(ctx context.Context, event model.Event) error
}
