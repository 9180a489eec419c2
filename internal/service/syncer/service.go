package syncer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "mailbucket/contracts/mq"
	"mailbucket/internal/fetcher"
	"mailbucket/internal/model"
	"mailbucket/pkg/metrics"
)

// EmailStore is the slice of the storage collaborator the sync step needs.
type EmailStore interface {
	GetKnownIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	UpsertEmails(ctx context.Context, records []model.EmailRecord) error
}

// EventPublisher publishes pipeline events. Satisfied by pkg/mq.Publisher.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Result summarizes one sync pass.
type Result struct {
	NewIDs   []string `json:"new_ids"`
	KnownIDs []string `json:"known_ids"`
}

// Service runs fetch, reconcile and persist for one user.
type Service struct {
	store     EmailStore
	publisher EventPublisher
	fetchMax  int
	logger    *zap.Logger
}

func NewService(store EmailStore, publisher EventPublisher, fetchMax int, logger *zap.Logger) *Service {
	if fetchMax < 1 {
		fetchMax = 100
	}
	return &Service{
		store:     store,
		publisher: publisher,
		fetchMax:  fetchMax,
		logger:    logger,
	}
}

// Sync pulls recent threads through f and persists the ones not yet known.
// A fetch failure aborts the pass with previous local state intact.
func (s *Service) Sync(ctx context.Context, userID string, f fetcher.ThreadFetcher) (*Result, error) {
	fetched, err := f.FetchRecent(ctx, s.fetchMax)
	if err != nil {
		return nil, fmt.Errorf("fetch threads: %w", err)
	}

	known, err := s.store.GetKnownIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load known ids: %w", err)
	}

	now := time.Now()
	newRecords, knownIDs := Reconcile(fetched, known, userID, now)

	result := &Result{KnownIDs: knownIDs}
	for _, rec := range newRecords {
		result.NewIDs = append(result.NewIDs, rec.ID)
	}

	if len(newRecords) == 0 {
		s.logger.Info("Sync pass found nothing new",
			zap.String("user_id", userID),
			zap.Int("fetched", len(fetched)),
		)
		metrics.SyncedEmails.WithLabelValues("known").Add(float64(len(knownIDs)))
		return result, nil
	}

	if err := s.store.UpsertEmails(ctx, newRecords); err != nil {
		metrics.SyncedEmails.WithLabelValues("failed").Add(float64(len(newRecords)))
		return nil, fmt.Errorf("persist emails: %w", err)
	}

	metrics.SyncedEmails.WithLabelValues("new").Add(float64(len(newRecords)))
	metrics.SyncedEmails.WithLabelValues("known").Add(float64(len(knownIDs)))

	s.logger.Info("Sync pass complete",
		zap.String("user_id", userID),
		zap.Int("new", len(newRecords)),
		zap.Int("known", len(knownIDs)),
	)

	if s.publisher != nil {
		payload := mqcontracts.EmailSyncedPayload{
			UserID:   userID,
			NewIDs:   result.NewIDs,
			KnownIDs: len(knownIDs),
			SyncedAt: now,
		}
		if err := s.publisher.Publish(mqcontracts.RoutingKeyEmailSynced, payload); err != nil {
			// Event delivery is best effort, the records are already durable.
			s.logger.Warn("Failed to publish email.synced event",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return result, nil
}
