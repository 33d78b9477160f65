package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func ops(plan *Plan) []MutationOp {
	out := make([]MutationOp, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		out = append(out, s.Op)
	}
	return out
}

func eventNames(plan *Plan) []string {
	out := make([]string, 0, len(plan.Events))
	for _, e := range plan.Events {
		out = append(out, e.Name)
	}
	return out
}

func TestPlanEmploy(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionEmploy, day(5), day(5))
	require.NoError(t, err)
	require.Equal(t, []MutationOp{OpOpenPeriod}, ops(plan))
	require.Equal(t, DimEmployment, plan.Steps[0].Dimension)
	require.Equal(t, []string{"WrestlerEmployed"}, eventNames(plan))
	require.Equal(t, StatusEmployed, s.StatusAt(day(5)))
}

func TestPlanEmployMovesFutureStart(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	openFrom(s, DimEmployment, day(60))
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionEmploy, day(5), day(5))
	require.NoError(t, err)
	require.Equal(t, []MutationOp{OpRewritePeriodStart}, ops(plan))
	require.Len(t, s.Periods[DimEmployment], 1)
	require.Equal(t, day(5), s.Periods[DimEmployment][0].StartedAt)
}

func TestPlanRetireClosesDetoursFirst(t *testing.T) {
	pl := NewPlanner()
	s := employedWrestler(1)
	openFrom(s, DimSuspension, day(10))
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionRetire, day(20), day(20))
	require.NoError(t, err)

	require.Equal(t, []MutationOp{OpClosePeriod, OpClosePeriod, OpOpenPeriod}, ops(plan))
	require.Equal(t, DimSuspension, plan.Steps[0].Dimension)
	require.Equal(t, DimEmployment, plan.Steps[1].Dimension)
	require.Equal(t, DimRetirement, plan.Steps[2].Dimension)
	require.Equal(t, []string{"WrestlerRetired"}, eventNames(plan))
	require.Equal(t, StatusRetired, s.StatusAt(day(20)))
}

func TestPlanReleaseKeepsRetirementUntouched(t *testing.T) {
	pl := NewPlanner()
	s := employedWrestler(1)
	openFrom(s, DimInjury, day(10))
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionRelease, day(20), day(20))
	require.NoError(t, err)

	require.Equal(t, []MutationOp{OpClosePeriod, OpClosePeriod}, ops(plan))
	require.Equal(t, DimInjury, plan.Steps[0].Dimension)
	require.Equal(t, DimEmployment, plan.Steps[1].Dimension)
	require.Equal(t, StatusReleased, s.StatusAt(day(20)))
}

func TestPlanEmployAfterRetirement(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	closedSpan(s, DimEmployment, day(1), day(10))
	openFrom(s, DimRetirement, day(10))
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionEmploy, day(20), day(20))
	require.NoError(t, err)

	require.Equal(t, []MutationOp{OpClosePeriod, OpOpenPeriod}, ops(plan))
	require.Equal(t, DimRetirement, plan.Steps[0].Dimension)
	require.Equal(t, DimEmployment, plan.Steps[1].Dimension)
	require.Equal(t, StatusEmployed, s.StatusAt(day(20)))
}

func TestPlanUnretireOnly(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	closedSpan(s, DimEmployment, day(1), day(10))
	openFrom(s, DimRetirement, day(10))
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionUnretire, day(20), day(20))
	require.NoError(t, err)

	// Unretiring closes retirement and nothing else; employment needs its
	// own transition.
	require.Equal(t, []MutationOp{OpClosePeriod}, ops(plan))
	require.Equal(t, DimRetirement, plan.Steps[0].Dimension)
	require.Equal(t, StatusReleased, s.StatusAt(day(20)))
}

func TestPlanTitleRetireClosesActivity(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityTitle, ID: 1}, "World Championship")
	openFrom(s, DimActivity, day(1))
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionRetire, day(20), day(20))
	require.NoError(t, err)

	require.Equal(t, []MutationOp{OpClosePeriod, OpOpenPeriod}, ops(plan))
	require.Equal(t, DimActivity, plan.Steps[0].Dimension)
	require.Equal(t, DimRetirement, plan.Steps[1].Dimension)
	require.Equal(t, []string{"TitleRetired"}, eventNames(plan))
}

func TestPlanDelete(t *testing.T) {
	pl := NewPlanner()
	s := employedWrestler(1)
	openFrom(s, DimSuspension, day(10))
	manager := Ref{Type: EntityManager, ID: 9}
	membership := &Membership{ID: 77, Member: s.Ref, Group: manager, JoinedAt: day(2)}
	env := NewEnvironment([]*Snapshot{s}, []*Membership{membership})

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionDelete, day(20), day(20))
	require.NoError(t, err)

	require.Equal(t, []MutationOp{OpClosePeriod, OpClosePeriod, OpEndMembership, OpSoftDelete}, ops(plan))
	require.Equal(t, int64(77), plan.Steps[2].MembershipID)
	require.Equal(t, []string{"WrestlerDeleted"}, eventNames(plan))
	require.NotNil(t, s.DeletedAt)

	// Deleting twice fails.
	_, err = pl.Plan(context.Background(), env, s.Ref, TransitionDelete, day(21), day(21))
	require.ErrorIs(t, err, ErrAlreadyDeleted)
}

func TestPlanDeleteClampsFutureStart(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	openFrom(s, DimEmployment, day(60))
	env := NewEnvironment([]*Snapshot{s}, nil)

	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionDelete, day(20), day(20))
	require.NoError(t, err)

	// The unstarted employment closes at its own start, never before it.
	require.Equal(t, OpClosePeriod, plan.Steps[0].Op)
	require.Equal(t, day(60), plan.Steps[0].At)
}

func TestPlanRestore(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	env := NewEnvironment([]*Snapshot{s}, nil)

	_, err := pl.Plan(context.Background(), env, s.Ref, TransitionRestore, day(20), day(20))
	require.ErrorIs(t, err, ErrNotDeleted)

	deleted := day(10)
	s.DeletedAt = &deleted
	plan, err := pl.Plan(context.Background(), env, s.Ref, TransitionRestore, day(20), day(20))
	require.NoError(t, err)
	require.Equal(t, []MutationOp{OpRestore}, ops(plan))
	require.Nil(t, s.DeletedAt)

	// Restore never reopens the periods delete closed.
	require.Nil(t, s.OpenPeriod(DimEmployment))
}

func TestPlanRejectsUnsupportedTransition(t *testing.T) {
	pl := NewPlanner()
	s := NewSnapshot(Ref{Type: EntityTitle, ID: 1}, "World Championship")
	env := NewEnvironment([]*Snapshot{s}, nil)

	_, err := pl.Plan(context.Background(), env, s.Ref, TransitionInjure, day(5), day(5))
	require.ErrorIs(t, err, ErrUnsupportedTransition)
}

func TestPlanGuardFailureLeavesNoSteps(t *testing.T) {
	pl := NewPlanner()
	s := employedWrestler(1)
	env := NewEnvironment([]*Snapshot{s}, nil)

	_, err := pl.Plan(context.Background(), env, s.Ref, TransitionEmploy, day(5), day(30))
	requireDenied(t, err, ReasonAlreadyEmployed)
}
