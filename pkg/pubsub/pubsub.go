package pubsub

import (
	"context"
	"encoding/json"
)

// TopicGraphStatus announces graph loads and reloads
const TopicGraphStatus = "graph_status"

// Event types published on TopicGraphStatus
const (
	EventLoaded       = "loaded"
	EventReloaded     = "reloaded"
	EventReloadFailed = "reload_failed"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	Topic() string

	// Events is closed when the subscription or the publisher is closed
	Events() <-chan Event

	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	Publish(topic string, eventType string, data interface{}) error

	Close() error
}

// GraphStatus is the payload of TopicGraphStatus events
type GraphStatus struct {
	Version uint64 `json:"version"` // snapshot version in the store
	Nodes   int    `json:"nodes"`
	Edges   int    `json:"edges"`
	Message string `json:"message,omitempty"`
}
