package application

import (
	"context"
	"time"
)

// StreamCreated is emitted after a stream is created and funded.
type StreamCreated struct {
	StreamID   uint64
	Sender     string
	Recipient  string
	Asset      string
	Deposit    int64
	StartTime  int64
	StopTime   int64
	OccurredAt time.Time
}

// StreamWithdrawn is emitted after a withdrawal is paid out.
type StreamWithdrawn struct {
	StreamID   uint64
	Recipient  string
	Amount     int64
	OccurredAt time.Time
}

// StreamCancelled is emitted after a stream is cancelled and settled.
type StreamCancelled struct {
	StreamID   uint64
	OccurredAt time.Time
}

// EventPublisher emits stream lifecycle notifications. Publication is
// fire-and-forget: the engine never observes or awaits the outcome.
type EventPublisher interface {
	PublishStreamCreated(ctx context.Context, event StreamCreated) error
	PublishStreamWithdrawn(ctx context.Context, event StreamWithdrawn) error
	PublishStreamCancelled(ctx context.Context, event StreamCancelled) error
}
