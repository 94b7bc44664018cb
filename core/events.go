package core

import (
	"context"
	"time"
)

// Event is a domain event published when partnership records change.
type Event struct {
	Type       string      `json:"type"`
	ObjectID   string      `json:"object_id"`
	OccurredAt time.Time   `json:"occurred_at"` // UTC
	Data       interface{} `json:"data,omitempty"`
}

// EventPublisher is any service that can broadcast domain events.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
