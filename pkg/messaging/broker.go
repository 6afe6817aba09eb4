package messaging

import (
	"context"
	"encoding/json"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Close() error
}

// Message is the envelope published for every domain event.
type Message struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Channel returns the broker channel an event type is published on.
func Channel(eventType string) string {
	return "eservice." + eventType
}
