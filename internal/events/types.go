// Package events provides an asynchronous event bus that decouples dataset
// lifecycle reporting from MQTT publishing and push notifications, so a slow
// broker or webhook never blocks a table load.
package events

import (
	"context"
	"time"
)

// Kind identifies a dataset lifecycle transition.
type Kind string

const (
	KindLoaded      Kind = "loaded"
	KindLoadFailed  Kind = "load_failed"
	KindInvalidated Kind = "invalidated"
)

// DatasetEvent describes one load, failed load or invalidation of a habitat table.
type DatasetEvent struct {
	Kind       Kind      `json:"kind"`
	Habitat    string    `json:"habitat"`
	SourceType string    `json:"source_type,omitempty"`
	Source     string    `json:"source,omitempty"` // credentials removed
	Rows       int       `json:"rows,omitempty"`
	Dropped    int       `json:"dropped,omitempty"`
	Category   string    `json:"category,omitempty"` // error category of a failed load
	Message    string    `json:"message,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Consumer processes dataset events delivered by the bus.
type Consumer interface {
	// Name returns the consumer name for identification
	Name() string

	// ProcessEvent handles a single event. ctx is cancelled when the bus
	// shutdown deadline passes.
	ProcessEvent(ctx context.Context, event DatasetEvent) error
}

// Stats contains runtime statistics for monitoring
type Stats struct {
	EventsReceived   uint64
	EventsSuppressed uint64
	EventsProcessed  uint64
	EventsDropped    uint64
	ConsumerErrors   uint64
}
