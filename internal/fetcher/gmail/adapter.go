package gmail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailbucket/internal/fetcher"
)

// Adapter implements fetcher.ThreadFetcher over the Gmail API.
type Adapter struct {
	svc *gmail.Service
}

// New creates a Gmail adapter from an OAuth2 access token supplied by the
// auth collaborator.
func New(ctx context.Context, accessToken string) (*Adapter, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	httpClient := oauth2.NewClient(ctx, src)

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Adapter{svc: svc}, nil
}

// FetchRecent lists recent threads and resolves their metadata.
func (a *Adapter) FetchRecent(ctx context.Context, max int) ([]fetcher.RemoteThread, error) {
	if max < 1 {
		max = 100
	}

	list, err := a.svc.Users.Threads.List("me").
		IncludeSpamTrash(false).
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	threads := make([]fetcher.RemoteThread, 0, len(list.Threads))
	for _, t := range list.Threads {
		full, err := a.svc.Users.Threads.Get("me", t.Id).
			Format("metadata").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get thread %s: %w", t.Id, err)
		}
		threads = append(threads, normalize(full))
	}

	return threads, nil
}

// normalize flattens a Gmail thread into the pipeline's thread shape,
// taking subject and sender from the first message.
func normalize(t *gmail.Thread) fetcher.RemoteThread {
	rt := fetcher.RemoteThread{
		ID:      t.Id,
		Preview: t.Snippet,
	}

	if len(t.Messages) == 0 {
		return rt
	}

	first := t.Messages[0]
	if rt.Preview == "" {
		rt.Preview = first.Snippet
	}
	if first.InternalDate > 0 {
		d := time.UnixMilli(first.InternalDate)
		rt.Date = &d
	}
	if first.Payload != nil {
		for _, h := range first.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				rt.Subject = h.Value
			case "from":
				rt.Sender = h.Value
			}
		}
	}
	return rt
}
