package model

import "time"

// EmailRecord is the locally persisted view of one remote message thread.
// ID is the remote thread identifier and is never regenerated; it joins
// remote and local state. A nil BucketID means the email is unclassified.
type EmailRecord struct {
	ID           string
	UserID       string
	Subject      string
	Sender       string
	Preview      string
	SentAt       *time.Time
	BucketID     *string
	LastSyncedAt time.Time
}

// Unclassified reports whether the record has no bucket assignment yet.
func (e EmailRecord) Unclassified() bool {
	return e.BucketID == nil
}

// Bucket is a user-defined category. Name is unique per user and is the
// label surfaced to the classifier; Description disambiguates similar
// categories in the prompt.
type Bucket struct {
	ID          string
	UserID      string
	Name        string
	Description string
}
