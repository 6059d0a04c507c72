package interfaces

import (
	"context"
	"errors"
	"log"

	"paystream/internal/stream/application"
)

// LoggingPublisher logs stream lifecycle events.
type LoggingPublisher struct {
	logger *log.Logger
}

// NewLoggingPublisher constructs a logging publisher.
func NewLoggingPublisher(logger *log.Logger) *LoggingPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingPublisher{logger: logger}
}

// PublishStreamCreated logs the event.
func (p *LoggingPublisher) PublishStreamCreated(ctx context.Context, event application.StreamCreated) error {
	_ = ctx
	if p == nil {
		return errors.New("stream publisher: nil publisher")
	}
	p.logger.Printf("stream created: id=%d sender=%s recipient=%s deposit=%d", event.StreamID, event.Sender, event.Recipient, event.Deposit)
	return nil
}

// PublishStreamWithdrawn logs the event.
func (p *LoggingPublisher) PublishStreamWithdrawn(ctx context.Context, event application.StreamWithdrawn) error {
	_ = ctx
	if p == nil {
		return errors.New("stream publisher: nil publisher")
	}
	p.logger.Printf("stream withdrawn: id=%d recipient=%s amount=%d", event.StreamID, event.Recipient, event.Amount)
	return nil
}

// PublishStreamCancelled logs the event.
func (p *LoggingPublisher) PublishStreamCancelled(ctx context.Context, event application.StreamCancelled) error {
	_ = ctx
	if p == nil {
		return errors.New("stream publisher: nil publisher")
	}
	p.logger.Printf("stream cancelled: id=%d", event.StreamID)
	return nil
}
