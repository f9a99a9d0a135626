// Package events publishes fire-and-forget tracker events to NATS so other
// devices (or a future stats consumer) can react to listens and table saves.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subject constants for every tracker event type.
const (
	SubjectListenRecorded    = "tracker.listen.recorded"
	SubjectTableSaved        = "tracker.table.saved"
	SubjectTableBootstrapped = "tracker.table.bootstrapped"
)

// Event is the canonical envelope sent to all tracker.* subjects.
type Event struct {
	EventID    string         `json:"event_id"`
	EventName  string         `json:"event_name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher publishes tracker events.
// The zero value and a nil pointer are both safe no-op stubs.
type Publisher struct {
	conn Conn
	log  *zap.Logger
}

// New creates a Publisher. Pass conn=nil to get a no-op stub.
func New(conn Conn, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{conn: conn, log: log}
}

// Publish sends an event. Failures are logged as warnings and never
// surface to the caller.
func (p *Publisher) Publish(subject, eventName string, props map[string]any) {
	if p == nil || p.conn == nil {
		return
	}
	ev := Event{
		EventID:    uuid.NewString(),
		EventName:  eventName,
		OccurredAt: time.Now().UTC(),
		Properties: props,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("events: marshal failed", zap.String("event", eventName), zap.Error(err))
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn("events: publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
