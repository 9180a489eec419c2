package classify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"mailbucket/internal/model"
	"mailbucket/pkg/ratelimit"
)

type classifierFunc func(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error)

func (f classifierFunc) Classify(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error) {
	return f(ctx, batch, buckets)
}

// classifyAll returns a well-formed assignment for every input id.
func classifyAll(batch []model.EmailRecord) []Assignment {
	out := make([]Assignment, len(batch))
	for i, e := range batch {
		out[i] = Assignment{ID: e.ID, BucketName: "Work"}
	}
	return out
}

func fastLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(1000, 10*time.Millisecond)
}

func newTestOrchestrator(c Classifier, l *ratelimit.Limiter, batchSize int) *Orchestrator {
	return NewOrchestrator(c, l, batchSize, time.Second, zap.NewNop())
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	// 23 emails, batch size 10 → batches of 10, 10, 3. The second batch's
	// response omits one input id; the other 13 emails still classify.
	emails := makeEmails(23)

	classifier := classifierFunc(func(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error) {
		if containsID(batchIDs(batch), "e10") {
			full := classifyAll(batch)
			return full[:len(full)-1], nil
		}
		return classifyAll(batch), nil
	})

	o := newTestOrchestrator(classifier, fastLimiter(), 10)
	classifications, batchErrors := o.Run(context.Background(), emails, testBuckets)

	if len(classifications) != 13 {
		t.Errorf("classified: got %d, want 13", len(classifications))
	}
	if len(batchErrors) != 1 {
		t.Fatalf("batch errors: got %d, want 1", len(batchErrors))
	}
	if !strings.Contains(batchErrors[0].Reason, "missing id") {
		t.Errorf("reason: got %q, want a missing id reason", batchErrors[0].Reason)
	}
	if len(batchErrors[0].EmailIDs) != 10 {
		t.Errorf("failed batch ids: got %d, want all 10", len(batchErrors[0].EmailIDs))
	}

	// Accounting: every input ends classified or error-listed.
	accounted := len(classifications)
	for _, be := range batchErrors {
		accounted += len(be.EmailIDs)
	}
	if accounted != len(emails) {
		t.Errorf("accounted emails: got %d, want %d", accounted, len(emails))
	}
}

func TestRun_GenerationErrorBecomesBatchError(t *testing.T) {
	emails := makeEmails(4)

	calls := int32(0)
	classifier := classifierFunc(func(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, &GenerationError{Err: errors.New("endpoint unreachable")}
		}
		return classifyAll(batch), nil
	})

	o := newTestOrchestrator(classifier, fastLimiter(), 2)
	classifications, batchErrors := o.Run(context.Background(), emails, testBuckets)

	if len(batchErrors) != 1 {
		t.Fatalf("batch errors: got %d, want 1", len(batchErrors))
	}
	if len(classifications) != 2 {
		t.Errorf("classified: got %d, want 2 from the surviving batch", len(classifications))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("dispatches: got %d, want 2 (exactly once per batch, no retry)", got)
	}
}

func TestRun_RateLimitGovernsDispatchInitiation(t *testing.T) {
	// 6 batches at 2 starts per 100ms window: batches beyond the first
	// window are delayed, so initiation spans at least 2 extra windows.
	const window = 100 * time.Millisecond
	emails := makeEmails(6)

	classifier := classifierFunc(func(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error) {
		return classifyAll(batch), nil
	})

	o := NewOrchestrator(classifier, ratelimit.NewLimiter(2, window), 1, time.Second, zap.NewNop())

	start := time.Now()
	classifications, batchErrors := o.Run(context.Background(), emails, testBuckets)
	elapsed := time.Since(start)

	if len(batchErrors) != 0 {
		t.Fatalf("unexpected batch errors: %v", batchErrors)
	}
	if len(classifications) != 6 {
		t.Fatalf("classified: got %d, want 6", len(classifications))
	}
	if minElapsed := 2 * window; elapsed < minElapsed {
		t.Errorf("dispatch initiation took %v, want at least %v", elapsed, minElapsed)
	}
}

func TestRun_CancellationStopsNewDispatches(t *testing.T) {
	emails := makeEmails(3)

	classifier := classifierFunc(func(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error) {
		return classifyAll(batch), nil
	})

	// One start per long window, so batches 2 and 3 are still queued when
	// the caller cancels.
	o := NewOrchestrator(classifier, ratelimit.NewLimiter(1, time.Minute), 1, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	classifications, batchErrors := o.Run(ctx, emails, testBuckets)

	accounted := len(classifications)
	canceled := 0
	for _, be := range batchErrors {
		accounted += len(be.EmailIDs)
		if strings.Contains(be.Reason, "canceled") {
			canceled += len(be.EmailIDs)
		}
	}
	if accounted != len(emails) {
		t.Errorf("accounted emails: got %d, want %d", accounted, len(emails))
	}
	if canceled < 2 {
		t.Errorf("canceled emails: got %d, want at least the 2 undispatched", canceled)
	}
}

func TestRun_EmptyWorkingSet(t *testing.T) {
	o := newTestOrchestrator(classifierFunc(func(ctx context.Context, batch []model.EmailRecord, buckets []model.Bucket) ([]Assignment, error) {
		t.Fatal("classifier must not be invoked for an empty working set")
		return nil, nil
	}), fastLimiter(), 10)

	classifications, batchErrors := o.Run(context.Background(), nil, testBuckets)
	if len(classifications) != 0 || len(batchErrors) != 0 {
		t.Errorf("empty set: got %d classifications, %d errors, want 0,0", len(classifications), len(batchErrors))
	}
}
