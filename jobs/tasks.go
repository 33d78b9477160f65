package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ringside-app/ringside/internal/roster"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTransitionApplied fans out a committed lifecycle transition to
	// downstream consumers.
	TaskTransitionApplied = "roster:transition_applied"
)

// TransitionAppliedPayload mirrors one committed roster event.
type TransitionAppliedPayload struct {
	Event       string    `json:"event"`
	EntityType  string    `json:"entity_type"`
	EntityID    int64     `json:"entity_id"`
	EffectiveAt time.Time `json:"effective_at"`
}

// eventNamespace seeds deterministic task IDs so the same committed event
// enqueued twice collapses into one queue entry.
var eventNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// TaskID derives a stable identifier for the payload.
func (p TransitionAppliedPayload) TaskID() string {
	seed := fmt.Sprintf("%s|%s|%d|%d", p.Event, p.EntityType, p.EntityID, p.EffectiveAt.Unix())
	return uuid.NewSHA1(eventNamespace, []byte(seed)).String()
}

// NewTransitionAppliedTask constructs an Asynq task for one roster event.
func NewTransitionAppliedTask(payload TransitionAppliedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.TaskID(payload.TaskID())}
	return asynq.NewTask(TaskTransitionApplied, data, opts...), nil
}

// Publisher enqueues roster events onto the default queue. It satisfies the
// roster event publisher port and runs only after commit, so an enqueue
// failure never unwinds a transition; it is logged by the caller instead.
type Publisher struct {
	client *Client
}

// NewPublisher wraps an Asynq client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues one task per event.
func (p *Publisher) Publish(ctx context.Context, events []roster.Event) error {
	for _, ev := range events {
		task, err := NewTransitionAppliedTask(TransitionAppliedPayload{
			Event:       ev.Name,
			EntityType:  string(ev.Entity.Type),
			EntityID:    ev.Entity.ID,
			EffectiveAt: ev.EffectiveAt,
		})
		if err != nil {
			return err
		}
		if _, err := p.client.client.EnqueueContext(ctx, task); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				continue
			}
			return fmt.Errorf("jobs: enqueue %s: %w", ev.Name, err)
		}
	}
	return nil
}
