package roster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func requireDenied(t *testing.T, err error, reason Reason) {
	t.Helper()
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, reason, te.Reason)
}

func employedWrestler(id int64) *Snapshot {
	s := NewSnapshot(Ref{Type: EntityWrestler, ID: id}, "Alto Rivera")
	openFrom(s, DimEmployment, day(1))
	return s
}

func TestGuardEmploy(t *testing.T) {
	guards := NewGuardTable()
	now := day(30)

	s := employedWrestler(1)
	requireDenied(t, guards.Check(s, TransitionEmploy, now), ReasonAlreadyEmployed)

	s = NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	require.NoError(t, guards.Check(s, TransitionEmploy, now))

	// A pending future start is not "already employed": employ moves it.
	openFrom(s, DimEmployment, day(60))
	require.NoError(t, guards.Check(s, TransitionEmploy, now))
}

func TestGuardRelease(t *testing.T) {
	guards := NewGuardTable()
	now := day(30)

	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	requireDenied(t, guards.Check(s, TransitionRelease, now), ReasonUnemployed)

	closedSpan(s, DimEmployment, day(1), day(10))
	requireDenied(t, guards.Check(s, TransitionRelease, now), ReasonReleased)

	s = NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	openFrom(s, DimEmployment, day(60))
	requireDenied(t, guards.Check(s, TransitionRelease, now), ReasonHasFutureEmployment)

	s = employedWrestler(1)
	require.NoError(t, guards.Check(s, TransitionRelease, now))

	// Releasing while suspended or injured is legal; the planner closes
	// those periods first.
	openFrom(s, DimSuspension, day(5))
	require.NoError(t, guards.Check(s, TransitionRelease, now))
}

func TestGuardSuspend(t *testing.T) {
	guards := NewGuardTable()
	now := day(30)

	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	requireDenied(t, guards.Check(s, TransitionSuspend, now), ReasonUnemployed)

	s = employedWrestler(1)
	require.NoError(t, guards.Check(s, TransitionSuspend, now))

	openFrom(s, DimSuspension, day(5))
	requireDenied(t, guards.Check(s, TransitionSuspend, now), ReasonAlreadySuspended)

	s = employedWrestler(1)
	openFrom(s, DimInjury, day(5))
	requireDenied(t, guards.Check(s, TransitionSuspend, now), ReasonInjured)
}

func TestGuardInjure(t *testing.T) {
	guards := NewGuardTable()
	now := day(30)

	s := employedWrestler(1)
	require.NoError(t, guards.Check(s, TransitionInjure, now))

	openFrom(s, DimInjury, day(5))
	requireDenied(t, guards.Check(s, TransitionInjure, now), ReasonAlreadyInjured)

	s = employedWrestler(1)
	openFrom(s, DimSuspension, day(5))
	requireDenied(t, guards.Check(s, TransitionInjure, now), ReasonSuspended)
}

func TestGuardReinstateAndHeal(t *testing.T) {
	guards := NewGuardTable()
	now := day(30)

	s := employedWrestler(1)
	requireDenied(t, guards.Check(s, TransitionReinstate, now), ReasonNotSuspended)
	requireDenied(t, guards.Check(s, TransitionHeal, now), ReasonNotInjured)

	openFrom(s, DimSuspension, day(5))
	require.NoError(t, guards.Check(s, TransitionReinstate, now))

	s = employedWrestler(1)
	openFrom(s, DimInjury, day(5))
	require.NoError(t, guards.Check(s, TransitionHeal, now))
}

func TestGuardRetireUnretire(t *testing.T) {
	guards := NewGuardTable()
	now := day(30)

	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	requireDenied(t, guards.Check(s, TransitionRetire, now), ReasonUnemployed)
	requireDenied(t, guards.Check(s, TransitionUnretire, now), ReasonNotRetired)

	// Released wrestlers may still retire.
	closedSpan(s, DimEmployment, day(1), day(10))
	require.NoError(t, guards.Check(s, TransitionRetire, now))

	openFrom(s, DimRetirement, day(11))
	requireDenied(t, guards.Check(s, TransitionRetire, now), ReasonAlreadyRetired)
	require.NoError(t, guards.Check(s, TransitionUnretire, now))
}

func TestGuardTitle(t *testing.T) {
	guards := NewGuardTable()
	now := day(30)

	s := NewSnapshot(Ref{Type: EntityTitle, ID: 1}, "World Championship")
	require.NoError(t, guards.Check(s, TransitionDebut, now))
	requireDenied(t, guards.Check(s, TransitionPull, now), ReasonNotActive)
	requireDenied(t, guards.Check(s, TransitionRetire, now), ReasonUnactivated)

	openFrom(s, DimActivity, day(1))
	requireDenied(t, guards.Check(s, TransitionDebut, now), ReasonAlreadyActive)
	require.NoError(t, guards.Check(s, TransitionPull, now))
	require.NoError(t, guards.Check(s, TransitionRetire, now))

	s = NewSnapshot(Ref{Type: EntityTitle, ID: 1}, "World Championship")
	openFrom(s, DimActivity, day(60))
	requireDenied(t, guards.Check(s, TransitionRetire, now), ReasonHasFutureActivation)
}

func TestGuardUnknownPairing(t *testing.T) {
	guards := NewGuardTable()

	s := NewSnapshot(Ref{Type: EntityTitle, ID: 1}, "World Championship")
	require.ErrorIs(t, guards.Check(s, TransitionInjure, day(1)), ErrUnsupportedTransition)

	s = NewSnapshot(Ref{Type: EntityTagTeam, ID: 1}, "Night Shift")
	require.ErrorIs(t, guards.Check(s, TransitionInjure, day(1)), ErrUnsupportedTransition)
}
