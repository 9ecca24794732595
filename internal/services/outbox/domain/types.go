// Package domain holds the downstream event taxonomy and outbox row types
package domain

import "time"

// Topics produced for notification and webhook collaborators
// delivery transport is owned by an external collaborator; rows here are the
// durable record it reads from
const (
	TopicSignalCreated = "signal.created"
	TopicScoreComputed = "score.computed"
	TopicScoreChanged  = "score.changed"
)

// KnownTopic reports whether t is part of the produced taxonomy
func KnownTopic(t string) bool {
	switch t {
	case TopicSignalCreated, TopicScoreComputed, TopicScoreChanged:
		return true
	}
	return false
}

// Event is one appended outbox row
type Event struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	Topic        string    `json:"topic"`
	Payload      []byte    `json:"payload"`
	CreatedAt    time.Time `json:"created_at"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}
