package port

import (
	"context"

	"github.com/hetrkumt/localy-v1/internal/core/domain"
)

type EventHandler func(ctx context.Context, event domain.Event) error

// EventPublisher is the producer half of the bus; it is all the core
// services ever hold.
//
//go:generate mockgen -source=bus.go -destination=mock/bus.go -package=mock
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// EventBus delivers events at least once. Delivery is ordered only within a
// partition (keyed by the event's PartitionKey); a handler error leaves the
// event unacknowledged and the bus redelivers it.
type EventBus interface {
	EventPublisher
	Subscribe(eventName string, handler EventHandler)
	Start(ctx context.Context)
	Stop()
}
