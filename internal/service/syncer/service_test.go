package syncer

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"mailbucket/internal/fetcher"
	"mailbucket/internal/model"
)

type fakeStore struct {
	known    map[string]struct{}
	upserted []model.EmailRecord
	getErr   error
	putErr   error
}

func (s *fakeStore) GetKnownIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.known, nil
}

func (s *fakeStore) UpsertEmails(ctx context.Context, records []model.EmailRecord) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.upserted = append(s.upserted, records...)
	return nil
}

type fakeFetcher struct {
	threads []fetcher.RemoteThread
	err     error
}

func (f *fakeFetcher) FetchRecent(ctx context.Context, max int) ([]fetcher.RemoteThread, error) {
	return f.threads, f.err
}

type fakePublisher struct {
	keys []string
}

func (p *fakePublisher) Publish(routingKey string, payload any) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

func TestSync_PersistsOnlyNew(t *testing.T) {
	store := &fakeStore{known: knownSet("b")}
	pub := &fakePublisher{}
	svc := NewService(store, pub, 100, zap.NewNop())

	f := &fakeFetcher{threads: []fetcher.RemoteThread{thread("a"), thread("b")}}
	result, err := svc.Sync(context.Background(), "u1", f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.upserted) != 1 || store.upserted[0].ID != "a" {
		t.Errorf("upserted: got %v, want only id a", store.upserted)
	}
	if len(result.NewIDs) != 1 || result.NewIDs[0] != "a" {
		t.Errorf("new ids: got %v, want [a]", result.NewIDs)
	}
	if len(pub.keys) != 1 || pub.keys[0] != "email.synced" {
		t.Errorf("published keys: got %v, want [email.synced]", pub.keys)
	}
}

func TestSync_FetchErrorAbortsWithStateIntact(t *testing.T) {
	store := &fakeStore{known: knownSet()}
	svc := NewService(store, nil, 100, zap.NewNop())

	f := &fakeFetcher{err: errors.New("remote unreachable")}
	if _, err := svc.Sync(context.Background(), "u1", f); err == nil {
		t.Fatal("expected fetch error")
	}
	if len(store.upserted) != 0 {
		t.Errorf("nothing may be persisted after a failed fetch, got %d records", len(store.upserted))
	}
}

func TestSync_NothingNewSkipsPersistAndEvent(t *testing.T) {
	store := &fakeStore{known: knownSet("a")}
	pub := &fakePublisher{}
	svc := NewService(store, pub, 100, zap.NewNop())

	f := &fakeFetcher{threads: []fetcher.RemoteThread{thread("a")}}
	result, err := svc.Sync(context.Background(), "u1", f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.upserted) != 0 {
		t.Errorf("upserted: got %d, want 0", len(store.upserted))
	}
	if len(result.KnownIDs) != 1 {
		t.Errorf("known ids: got %v, want [a]", result.KnownIDs)
	}
	if len(pub.keys) != 0 {
		t.Errorf("no event expected for an empty diff, got %v", pub.keys)
	}
}

func TestSync_PersistErrorSurfaces(t *testing.T) {
	store := &fakeStore{known: knownSet(), putErr: errors.New("db down")}
	svc := NewService(store, nil, 100, zap.NewNop())

	f := &fakeFetcher{threads: []fetcher.RemoteThread{thread("a")}}
	if _, err := svc.Sync(context.Background(), "u1", f); err == nil {
		t.Fatal("expected persistence error")
	}
}
