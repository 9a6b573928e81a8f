package kafka

import "context"

// Publisher is the event emission surface used by the domain services.
type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close() error
}

// NoopPublisher is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }
