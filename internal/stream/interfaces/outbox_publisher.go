package interfaces

import (
	"context"

	"paystream/internal/eventing"
	"paystream/internal/stream/application"
)

// OutboxPublisher writes stream lifecycle events to the outbox.
type OutboxPublisher struct {
	publisher *eventing.Publisher
}

// NewOutboxPublisher constructs an outbox publisher.
func NewOutboxPublisher(publisher *eventing.Publisher) *OutboxPublisher {
	return &OutboxPublisher{publisher: publisher}
}

// PublishStreamCreated writes the event to the outbox.
func (p *OutboxPublisher) PublishStreamCreated(ctx context.Context, event application.StreamCreated) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	return p.publisher.Publish(ctx, event)
}

// PublishStreamWithdrawn writes the event to the outbox.
func (p *OutboxPublisher) PublishStreamWithdrawn(ctx context.Context, event application.StreamWithdrawn) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	return p.publisher.Publish(ctx, event)
}

// PublishStreamCancelled writes the event to the outbox.
func (p *OutboxPublisher) PublishStreamCancelled(ctx context.Context, event application.StreamCancelled) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	return p.publisher.Publish(ctx, event)
}
