// Package pubsub provides a generic publish/subscribe event system.
//
// It carries the cross-panel "collection changed" notifications that keep
// every panel bound to the same playlist in sync, and doubles as the
// transport for debug log events. Delivery is synchronous, in-process and
// best-effort: there is no persistence and no replay for late subscribers.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// AddedEvent fires after items were added to a collection.
	AddedEvent EventType = "added"
	// RemovedEvent fires after items were removed from a collection.
	RemovedEvent EventType = "removed"
	// ReorderedEvent fires after items were reordered within a collection.
	ReorderedEvent EventType = "reordered"
	// MetadataEvent fires when only collection metadata (name, version
	// token) changed and the cached item rows are still valid.
	MetadataEvent EventType = "metadata"
	// CreatedEvent is a generic creation event used by non-collection
	// publishers (log broker, watcher).
	CreatedEvent EventType = "created"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
