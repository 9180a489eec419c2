package classify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mailbucket/internal/model"
	"mailbucket/pkg/metrics"
	"mailbucket/pkg/ratelimit"
)

const (
	reasonCanceledBeforeDispatch = "run canceled before dispatch"
	reasonTimeout                = "classification call timed out"
)

// Orchestrator turns a working set into bounded, rate-limited
// classification calls and collects per-batch outcomes. One bad batch
// never aborts its siblings and never discards their results.
type Orchestrator struct {
	classifier Classifier
	limiter    *ratelimit.Limiter
	batchSize  int
	timeout    time.Duration
	logger     *zap.Logger
}

func NewOrchestrator(classifier Classifier, limiter *ratelimit.Limiter, batchSize int, timeout time.Duration, logger *zap.Logger) *Orchestrator {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Orchestrator{
		classifier: classifier,
		limiter:    limiter,
		batchSize:  batchSize,
		timeout:    timeout,
		logger:     logger,
	}
}

// outcome is one batch's result slot. Exactly one of the fields is set.
type outcome struct {
	assignments map[string]string
	batchErr    *model.BatchError
}

// Run dispatches every batch exactly once and returns after all of them
// settle. The limiter governs dispatch initiation only; in-flight calls
// from an earlier window run to completion. When ctx is canceled no new
// batches start and the undispatched remainder settles as BatchErrors.
func (o *Orchestrator) Run(ctx context.Context, emails []model.EmailRecord, buckets []model.Bucket) (map[string]string, []model.BatchError) {
	batches := partition(emails, o.batchSize)
	if len(batches) == 0 {
		return map[string]string{}, nil
	}

	slots := make([]outcome, len(batches))
	done := make(chan int, len(batches))
	dispatched := 0

	for i, batch := range batches {
		if err := o.limiter.Wait(ctx); err != nil {
			// Cancellation observed: everything not yet dispatched fails
			// with a cancellation reason, nothing new starts.
			for j := i; j < len(batches); j++ {
				slots[j] = outcome{batchErr: &model.BatchError{
					EmailIDs: batchIDs(batches[j]),
					Reason:   reasonCanceledBeforeDispatch,
				}}
				metrics.BatchOutcomes.WithLabelValues("canceled").Inc()
			}
			break
		}

		dispatched++
		go func(idx int, b []model.EmailRecord) {
			slots[idx] = o.dispatch(ctx, idx, b, buckets)
			done <- idx
		}(i, batch)
	}

	for settled := 0; settled < dispatched; settled++ {
		<-done
	}

	// Sequential merge after all slots settled; batches partition
	// disjoint id sets, so entries never collide.
	classifications := make(map[string]string)
	var batchErrors []model.BatchError
	for _, slot := range slots {
		if slot.batchErr != nil {
			batchErrors = append(batchErrors, *slot.batchErr)
			continue
		}
		for id, bucketID := range slot.assignments {
			classifications[id] = bucketID
		}
	}
	return classifications, batchErrors
}

// dispatch runs one classification call under its own timeout and
// validates the response. Each slot is written exactly once.
func (o *Orchestrator) dispatch(ctx context.Context, idx int, batch []model.EmailRecord, buckets []model.Bucket) outcome {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	raw, err := o.classifier.Classify(callCtx, batch, buckets)
	metrics.RecordBatchLatency(time.Since(start))

	if err != nil {
		reason := err.Error()
		label := "generation_error"
		switch {
		case errors.Is(err, context.Canceled):
			reason = "run canceled"
			label = "canceled"
		case errors.Is(err, context.DeadlineExceeded):
			reason = reasonTimeout
		}

		o.logger.Warn("Classification batch failed",
			zap.Int("batch", idx),
			zap.Int("size", len(batch)),
			zap.String("reason", reason),
		)
		metrics.BatchOutcomes.WithLabelValues(label).Inc()
		return outcome{batchErr: &model.BatchError{
			EmailIDs: batchIDs(batch),
			Reason:   reason,
		}}
	}

	assigned, vErr := ValidateAssignments(batch, buckets, raw)
	if vErr != nil {
		o.logger.Warn("Classification batch rejected",
			zap.Int("batch", idx),
			zap.Int("size", len(batch)),
			zap.String("reason", vErr.Reason),
		)
		metrics.BatchOutcomes.WithLabelValues("validation_error").Inc()
		return outcome{batchErr: &model.BatchError{
			EmailIDs: batchIDs(batch),
			Reason:   vErr.Reason,
		}}
	}

	metrics.BatchOutcomes.WithLabelValues("ok").Inc()
	return outcome{assignments: assigned}
}
