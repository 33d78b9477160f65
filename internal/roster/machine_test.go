package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMachineSupports(t *testing.T) {
	m := NewMachine()

	require.True(t, m.Supports(EntityWrestler, TransitionInjure))
	require.False(t, m.Supports(EntityTagTeam, TransitionInjure))
	require.False(t, m.Supports(EntityTitle, TransitionEmploy))
	require.True(t, m.Supports(EntityTitle, TransitionDebut))

	// Delete and restore sit outside the status graph but are always
	// available.
	require.True(t, m.Supports(EntityTitle, TransitionDelete))
	require.True(t, m.Supports(EntityStable, TransitionRestore))
}

func TestMachineApply(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	dst, err := m.Apply(ctx, EntityWrestler, StatusUnemployed, TransitionEmploy)
	require.NoError(t, err)
	require.Equal(t, StatusEmployed, dst)

	dst, err = m.Apply(ctx, EntityWrestler, StatusSuspended, TransitionRetire)
	require.NoError(t, err)
	require.Equal(t, StatusRetired, dst)

	// Unretiring lands on Released, not Employed; a fresh employ is a
	// separate transition.
	dst, err = m.Apply(ctx, EntityWrestler, StatusRetired, TransitionUnretire)
	require.NoError(t, err)
	require.Equal(t, StatusReleased, dst)

	dst, err = m.Apply(ctx, EntityTitle, StatusInactive, TransitionDebut)
	require.NoError(t, err)
	require.Equal(t, StatusActive, dst)

	dst, err = m.Apply(ctx, EntityTitle, StatusRetired, TransitionUnretire)
	require.NoError(t, err)
	require.Equal(t, StatusInactive, dst)
}

func TestMachineApplyRejectsMissingEdge(t *testing.T) {
	m := NewMachine()
	ctx := context.Background()

	_, err := m.Apply(ctx, EntityWrestler, StatusUnemployed, TransitionSuspend)
	require.ErrorIs(t, err, ErrUnsupportedTransition)

	_, err = m.Apply(ctx, EntityTagTeam, StatusEmployed, TransitionInjure)
	require.ErrorIs(t, err, ErrUnsupportedTransition)

	_, err = m.Apply(ctx, EntityTitle, StatusActive, TransitionDebut)
	require.ErrorIs(t, err, ErrUnsupportedTransition)
}
