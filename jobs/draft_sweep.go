package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/atlas-erp/atlas-erp/internal/jobs"
)

// DraftSweepJob walks draft keys in Redis and re-applies the expiry to
// any key that lost it, so abandoned editing sessions always age out.
type DraftSweepJob struct {
	Redis   *redis.Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

func NewDraftSweepJob(client *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *DraftSweepJob {
	return &DraftSweepJob{Redis: client, Logger: logger, Metrics: metrics}
}

const draftKeyPattern = "atlas:draft:*"

// Handle executes one sweep.
func (j *DraftSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Redis == nil {
		return errors.New("draft sweep: handler not configured")
	}
	var payload DraftSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	ttl := time.Duration(payload.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	tracker := j.Metrics.Track(TaskDraftSweep)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	var scanned, repaired int
	var cursor uint64
	for {
		keys, next, err := j.Redis.Scan(ctx, cursor, draftKeyPattern, 100).Result()
		if err != nil {
			resultErr = err
			return resultErr
		}
		for _, key := range keys {
			scanned++
			remaining, err := j.Redis.TTL(ctx, key).Result()
			if err != nil {
				resultErr = err
				return resultErr
			}
			// -1 means the key exists but carries no expiry.
			if remaining == -1 {
				if err := j.Redis.Expire(ctx, key, ttl).Err(); err != nil {
					resultErr = err
					return resultErr
				}
				repaired++
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	j.Logger.Info("draft sweep finished",
		slog.Int("scanned", scanned),
		slog.Int("repaired", repaired),
	)
	return nil
}
