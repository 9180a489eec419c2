package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunLock serializes classification runs per user. Concurrent runs for
// the same user would race on bucket assignments, so the pipeline takes
// a redis lock for the duration of one run.
type RunLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRunLock(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RunLock {
	return &RunLock{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *RunLock) key(userID string) string {
	return fmt.Sprintf("runlock:classify:%s", userID)
}

// Acquire takes the per-user lock. Returns false when another run holds
// it. If redis is unavailable the lock fails open with a warning rather
// than blocking all classification.
func (l *RunLock) Acquire(ctx context.Context, userID string) bool {
	ok, err := l.rdb.SetNX(ctx, l.key(userID), 1, l.ttl).Result()
	if err != nil {
		l.logger.Warn("Run lock check failed, allowing run",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return true
	}
	return ok
}

// Release drops the lock after the run settles.
func (l *RunLock) Release(ctx context.Context, userID string) {
	if err := l.rdb.Del(ctx, l.key(userID)).Err(); err != nil {
		l.logger.Warn("Failed to release run lock",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
