package service

import (
	"context"

	"workshop-scheduler/internal/domain/entity"
)

// EventPublisher delivers booking events to downstream consumers. Publication
// happens after commit and is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.BookingEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher is used when no broker is configured.
func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(ctx context.Context, event entity.BookingEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
