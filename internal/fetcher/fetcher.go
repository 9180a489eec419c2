package fetcher

import (
	"context"
	"time"
)

// RemoteThread is the minimal metadata the pipeline needs about one
// remote conversation thread.
type RemoteThread struct {
	ID      string
	Subject string
	Sender  string
	Preview string
	Date    *time.Time
}

// ThreadFetcher retrieves recent message threads from a mail provider.
type ThreadFetcher interface {
	// FetchRecent returns up to max recent threads, newest first.
	FetchRecent(ctx context.Context, max int) ([]RemoteThread, error)
}
