// Package realtime publishes fire-and-forget engine events to observers.
// Publishing is a side effect outside any storage transaction: a failed or
// slow delivery never affects mirror processing and is never retried.
package realtime

import (
	"log"
	"time"
)

// Event types emitted by the mirror engine.
const (
	EventBridgeUpdated   = "bridge.updated"
	EventSessionPrompted = "session.prompted"
)

// BridgeUpdatedPayload announces a new message in a bridge thread.
type BridgeUpdatedPayload struct {
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
}

// SessionPromptedPayload announces a new interaction mirrored into a session.
type SessionPromptedPayload struct {
	SessionID     string `json:"session_id"`
	InteractionID string `json:"interaction_id"`
}

// Publisher delivers events to external observers. Implementations must be
// best-effort and must not block the caller for long.
type Publisher interface {
	Publish(eventType string, payload any)
}

// Event is a published event as seen by broker subscribers.
type Event struct {
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// LogPublisher writes events to the process log.
type LogPublisher struct{}

// Publish implements Publisher.
func (LogPublisher) Publish(eventType string, payload any) {
	log.Printf("realtime: %s %+v", eventType, payload)
}

// Fanout delivers each event to every wrapped publisher.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(eventType string, payload any) {
	for _, p := range f {
		p.Publish(eventType, payload)
	}
}

// NopPublisher discards events, useful as a default.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(string, any) {}
