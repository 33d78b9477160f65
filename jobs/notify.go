package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// dedupTTL bounds how long a processed event marker lives. Asynq retries a
// failed handler, so markers are set only after successful processing.
const dedupTTL = 24 * time.Hour

// Notifier processes transition-applied tasks. Redis markers make delivery
// effectively once per event even when the queue redelivers.
type Notifier struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(client *redis.Client, logger *slog.Logger) *Notifier {
	return &Notifier{redis: client, logger: logger}
}

// HandleTransitionApplied logs the event and records the marker.
func (n *Notifier) HandleTransitionApplied(ctx context.Context, t *asynq.Task) error {
	var payload TransitionAppliedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	key := fmt.Sprintf("roster:event:%s:%s:%d:%d",
		payload.Event, payload.EntityType, payload.EntityID, payload.EffectiveAt.Unix())
	seen, err := n.redis.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if seen > 0 {
		n.logger.Debug("duplicate roster event skipped", slog.String("key", key))
		return nil
	}

	n.logger.Info("roster event",
		slog.String("event", payload.Event),
		slog.String("entity_type", payload.EntityType),
		slog.Int64("entity_id", payload.EntityID),
		slog.Time("effective_at", payload.EffectiveAt))

	return n.redis.Set(ctx, key, 1, dedupTTL).Err()
}
