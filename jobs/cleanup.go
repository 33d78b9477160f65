package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ringside-app/ringside/internal/shared"
)

// TaskIdempotencyCleanup prunes expired idempotency keys.
const TaskIdempotencyCleanup = "roster:idempotency_cleanup"

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the scheduled cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// Cleaner removes stale idempotency keys on schedule.
type Cleaner struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

// NewCleaner constructs a Cleaner.
func NewCleaner(store *shared.IdempotencyStore, logger *slog.Logger) *Cleaner {
	return &Cleaner{store: store, logger: logger}
}

// HandleIdempotencyCleanup processes TaskIdempotencyCleanup tasks.
func (c *Cleaner) HandleIdempotencyCleanup(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		payload.Retention = 7 * 24 * time.Hour
	}
	if err := c.store.Cleanup(ctx, payload.Retention); err != nil {
		return err
	}
	c.logger.Info("idempotency keys pruned", slog.Duration("retention", payload.Retention))
	return nil
}
