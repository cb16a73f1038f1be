package pubsub

import (
	"context"
	"encoding/json"
	"errors"
)

// Topics published by the live server
const (
	TopicIngestStatus = "ingest_status" // Progress of the current ingestion run
	TopicTopology     = "topology"      // Graph summary after each run
)

// ErrClosed is returned when subscribing or publishing after Close
var ErrClosed = errors.New("publisher is closed")

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic
	Type    string          `json:"type"`    // Event type (e.g. "discovering", "ingesting", "ready")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data any) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// IngestStatus is the payload of TopicIngestStatus events
type IngestStatus struct {
	RunID   string `json:"run_id,omitempty"`
	State   string `json:"state"`   // discovering, ingesting, ready, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Files processed so far
	Total   int    `json:"total"`   // Files in this run
}

// TopologyUpdate is the payload of TopicTopology events.
// Clients fetch the graph itself from the topology endpoint.
type TopologyUpdate struct {
	RunID    string `json:"run_id,omitempty"`
	Nodes    int    `json:"nodes"`
	Edges    int    `json:"edges"`
	Warnings int    `json:"warnings"`
	Files    int    `json:"files"`
}
