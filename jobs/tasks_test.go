package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTaskIDStableAcrossRetries(t *testing.T) {
	payload := TransitionAppliedPayload{
		Event:       "StableRetired",
		EntityType:  "STABLE",
		EntityID:    12,
		EffectiveAt: time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC),
	}
	require.Equal(t, payload.TaskID(), payload.TaskID())

	other := payload
	other.EntityID = 13
	require.NotEqual(t, payload.TaskID(), other.TaskID())
}
