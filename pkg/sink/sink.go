// Package sink publishes appended audit records to an external audit sink.
// The trail itself is in-memory; a sink is the downstream seam for durable
// collection, fed by the orchestrator after each append.
package sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/govcore/pkg/audit"
)

// EventVersion identifies the published event schema.
const EventVersion = "v1"

// Event is the envelope published for each appended audit record.
type Event struct {
	EventID      string       `json:"event_id"`
	EventVersion string       `json:"event_version"`
	Timestamp    time.Time    `json:"timestamp"`
	Record       audit.Record `json:"record"`
}

// NewEvent wraps an audit record in a publishable event envelope.
func NewEvent(rec audit.Record) *Event {
	return &Event{
		EventID:      uuid.NewString(),
		EventVersion: EventVersion,
		Timestamp:    time.Now().UTC(),
		Record:       rec,
	}
}

// Publisher delivers audit record events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, rec audit.Record) error
	Close() error
}

// Noop is a Publisher that discards events. Used when no sink is configured.
type Noop struct{}

func (Noop) Publish(context.Context, audit.Record) error { return nil }
func (Noop) Close() error                                { return nil }
