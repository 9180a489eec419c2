package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mqcontracts "mailbucket/contracts/mq"
	"mailbucket/internal/model"
	"mailbucket/pkg/metrics"
)

// EmailStore is the slice of the storage collaborator the pipeline needs.
type EmailStore interface {
	ListByUser(ctx context.Context, userID string) ([]model.EmailRecord, error)
	UpdateBucketAssignment(ctx context.Context, emailID, bucketID string) error
}

// BucketStore supplies the read-only bucket snapshot for one run.
type BucketStore interface {
	GetBuckets(ctx context.Context, userID string) ([]model.Bucket, error)
}

// Locker serializes runs per user. Satisfied by RunLock.
type Locker interface {
	Acquire(ctx context.Context, userID string) bool
	Release(ctx context.Context, userID string)
}

// EventPublisher publishes pipeline events. Satisfied by pkg/mq.Publisher.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Pipeline is the external-facing classification API. Its contract is
// stable regardless of internal batch size or rate-limit tuning: a run
// always returns whatever succeeded plus an enumerated list of failures.
type Pipeline struct {
	emails        EmailStore
	buckets       BucketStore
	orchestrator  *Orchestrator
	lock          Locker
	publisher     EventPublisher
	maxWorkingSet int
	logger        *zap.Logger
}

func NewPipeline(
	emails EmailStore,
	buckets BucketStore,
	orchestrator *Orchestrator,
	lock Locker,
	publisher EventPublisher,
	maxWorkingSet int,
	logger *zap.Logger,
) *Pipeline {
	if maxWorkingSet < 1 {
		maxWorkingSet = 500
	}
	return &Pipeline{
		emails:        emails,
		buckets:       buckets,
		orchestrator:  orchestrator,
		lock:          lock,
		publisher:     publisher,
		maxWorkingSet: maxWorkingSet,
		logger:        logger,
	}
}

// Run classifies the user's working set: all unclassified emails plus the
// members of explicitly chosen buckets. Setup failures abort the run with
// a single error; per-batch failures are reported inside the result.
func (p *Pipeline) Run(ctx context.Context, userID string, chosenBucketIDs []string) (*model.RunResult, error) {
	if !p.lock.Acquire(ctx, userID) {
		return nil, ErrRunInProgress
	}
	defer p.lock.Release(ctx, userID)

	buckets, err := p.buckets.GetBuckets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load buckets: %w", err)
	}
	if len(buckets) == 0 {
		return nil, ErrNoBuckets
	}
	// Bucket names are the interchange key with the model; ambiguous
	// names would make validation by name-set membership unsound.
	names := make(map[string]struct{}, len(buckets))
	for _, b := range buckets {
		if _, dup := names[b.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBucketName, b.Name)
		}
		names[b.Name] = struct{}{}
	}

	stored, err := p.emails.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load emails: %w", err)
	}

	chosen := make(map[string]struct{}, len(chosenBucketIDs))
	for _, id := range chosenBucketIDs {
		chosen[id] = struct{}{}
	}

	working := SelectWorkingSet(stored, chosen)
	result := &model.RunResult{
		RunID:           uuid.NewString(),
		Classifications: map[string]string{},
	}
	if len(working) == 0 {
		p.logger.Info("Nothing to classify",
			zap.String("user_id", userID),
			zap.String("run_id", result.RunID),
		)
		return result, nil
	}

	if len(working) > p.maxWorkingSet {
		p.logger.Warn("Working set capped",
			zap.String("user_id", userID),
			zap.Int("selected", len(working)),
			zap.Int("cap", p.maxWorkingSet),
		)
		working = working[:p.maxWorkingSet]
	}
	result.Submitted = len(working)

	p.logger.Info("Classification run starting",
		zap.String("user_id", userID),
		zap.String("run_id", result.RunID),
		zap.Int("emails", len(working)),
		zap.Int("buckets", len(buckets)),
	)

	start := time.Now()
	classifications, batchErrors := p.orchestrator.Run(ctx, working, buckets)
	metrics.RecordRunDuration(time.Since(start))

	result.Errors = batchErrors
	result.Classifications = p.persist(ctx, classifications, result)

	classified := len(result.Classifications)
	failed := result.Submitted - classified
	metrics.ClassifiedEmails.WithLabelValues("classified").Add(float64(classified))
	metrics.ClassifiedEmails.WithLabelValues("failed").Add(float64(failed))

	p.logger.Info("Classification run complete",
		zap.String("user_id", userID),
		zap.String("run_id", result.RunID),
		zap.Int("classified", classified),
		zap.Int("failed", failed),
		zap.Duration("took", time.Since(start)),
	)

	if p.publisher != nil {
		payload := mqcontracts.RunCompletedPayload{
			UserID:      userID,
			RunID:       result.RunID,
			Classified:  classified,
			Failed:      failed,
			CompletedAt: time.Now(),
		}
		if err := p.publisher.Publish(mqcontracts.RoutingKeyRunCompleted, payload); err != nil {
			p.logger.Warn("Failed to publish run.completed event",
				zap.String("run_id", result.RunID),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// persist writes validated assignments via idempotent upsert. A write
// failure demotes that email to a BatchError so no input is silently
// lost; it never aborts the rest of the set.
func (p *Pipeline) persist(ctx context.Context, classifications map[string]string, result *model.RunResult) map[string]string {
	persisted := make(map[string]string, len(classifications))
	for emailID, bucketID := range classifications {
		if err := p.emails.UpdateBucketAssignment(ctx, emailID, bucketID); err != nil {
			p.logger.Warn("Failed to persist bucket assignment",
				zap.String("email_id", emailID),
				zap.String("bucket_id", bucketID),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, model.BatchError{
				EmailIDs: []string{emailID},
				Reason:   fmt.Sprintf("persist assignment: %v", err),
			})
			continue
		}
		persisted[emailID] = bucketID
	}
	return persisted
}
