// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// ActivityQueue is the durable queue carrying ActivityEvent messages.
const ActivityQueue = "activity.events"

// Activity event types.
const (
	EventMemberRegistered = "member.registered"
	EventHealthRecorded   = "health.recorded"
)

// ActivityEvent is published after a document has been inserted.  It never
// carries a password or digest.
type ActivityEvent struct {
	Type       string `json:"type"`
	DocumentID string `json:"document_id"`
	Username   string `json:"username,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
