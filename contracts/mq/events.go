// Package mq defines the event payloads published on the events exchange.
package mq

import "time"

// Routing keys on the events exchange.
const (
	RoutingKeyEmailSynced  = "email.synced"
	RoutingKeyRunCompleted = "run.completed"
)

// EmailSyncedPayload is published after a sync pass persists new records.
type EmailSyncedPayload struct {
	UserID   string    `json:"user_id"`
	NewIDs   []string  `json:"new_ids"`
	KnownIDs int       `json:"known_ids"`
	SyncedAt time.Time `json:"synced_at"`
}

// RunCompletedPayload is published after a classification run settles.
type RunCompletedPayload struct {
	UserID      string    `json:"user_id"`
	RunID       string    `json:"run_id"`
	Classified  int       `json:"classified"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completed_at"`
}
