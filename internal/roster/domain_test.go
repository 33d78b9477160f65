package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return testBase.AddDate(0, 0, n)
}

func openFrom(s *Snapshot, d Dimension, start time.Time) {
	s.Periods[d] = append(s.Periods[d], Period{StartedAt: start})
}

func closedSpan(s *Snapshot, d Dimension, start, end time.Time) {
	s.Periods[d] = append(s.Periods[d], Period{StartedAt: start, EndedAt: &end})
}

func TestPeriodInEffectAt(t *testing.T) {
	end := day(10)
	p := Period{StartedAt: day(1), EndedAt: &end}

	require.False(t, p.InEffectAt(day(0)))
	require.True(t, p.InEffectAt(day(1)))
	require.True(t, p.InEffectAt(day(9)))
	require.False(t, p.InEffectAt(day(10)))

	open := Period{StartedAt: day(1)}
	require.True(t, open.InEffectAt(day(100)))
	require.False(t, open.InEffectAt(day(0)))
}

func TestPeriodOverlaps(t *testing.T) {
	endA := day(10)
	a := Period{StartedAt: day(1), EndedAt: &endA}

	endB := day(20)
	require.False(t, a.Overlaps(Period{StartedAt: day(10), EndedAt: &endB}))
	require.True(t, a.Overlaps(Period{StartedAt: day(5), EndedAt: &endB}))
	require.True(t, a.Overlaps(Period{StartedAt: day(0)}))
	require.False(t, a.Overlaps(Period{StartedAt: day(15)}))
}

func TestStatusPrecedence(t *testing.T) {
	now := day(30)

	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	require.Equal(t, StatusUnemployed, s.StatusAt(now))

	openFrom(s, DimEmployment, day(1))
	require.Equal(t, StatusEmployed, s.StatusAt(now))

	openFrom(s, DimInjury, day(5))
	require.Equal(t, StatusInjured, s.StatusAt(now))

	// Suspension outranks injury; retirement outranks both.
	openFrom(s, DimSuspension, day(6))
	require.Equal(t, StatusSuspended, s.StatusAt(now))

	openFrom(s, DimRetirement, day(7))
	require.Equal(t, StatusRetired, s.StatusAt(now))
}

func TestStatusReleasedAndFuture(t *testing.T) {
	now := day(30)

	s := NewSnapshot(Ref{Type: EntityWrestler, ID: 1}, "Alto Rivera")
	closedSpan(s, DimEmployment, day(1), day(10))
	require.Equal(t, StatusReleased, s.StatusAt(now))

	openFrom(s, DimEmployment, day(40))
	require.Equal(t, StatusFutureEmployment, s.StatusAt(now))
	require.Equal(t, StatusEmployed, s.StatusAt(day(40)))
}

func TestTitleStatuses(t *testing.T) {
	now := day(30)

	s := NewSnapshot(Ref{Type: EntityTitle, ID: 1}, "World Championship")
	require.Equal(t, StatusUnactivated, s.StatusAt(now))

	openFrom(s, DimActivity, day(40))
	require.Equal(t, StatusFutureActivation, s.StatusAt(now))

	s = NewSnapshot(Ref{Type: EntityTitle, ID: 1}, "World Championship")
	closedSpan(s, DimActivity, day(1), day(10))
	require.Equal(t, StatusInactive, s.StatusAt(now))

	openFrom(s, DimRetirement, day(11))
	require.Equal(t, StatusRetired, s.StatusAt(now))
}

func TestSupportsDimension(t *testing.T) {
	require.True(t, SupportsDimension(EntityWrestler, DimInjury))
	require.False(t, SupportsDimension(EntityTagTeam, DimInjury))
	require.False(t, SupportsDimension(EntityTitle, DimEmployment))
	require.True(t, SupportsDimension(EntityTitle, DimActivity))
	require.True(t, SupportsDimension(EntityStable, DimSuspension))
}

func TestTagTeamBookability(t *testing.T) {
	require.Equal(t, BookabilityDissolved, TagTeamBookability(0))
	require.Equal(t, BookabilitySeekingPartner, TagTeamBookability(1))
	require.Equal(t, BookabilityBookable, TagTeamBookability(2))
	require.Equal(t, BookabilityBookable, TagTeamBookability(5))
}

func TestStableStrength(t *testing.T) {
	require.Equal(t, 3, StableStrength(1, 1, 0))
	require.Equal(t, 4, StableStrength(1, 1, 1))
	require.Equal(t, 2, StableStrength(2, 0, 0))
	require.True(t, StableStrength(1, 1, 0) >= StableMinimumMembers)
	require.False(t, StableStrength(2, 0, 0) >= StableMinimumMembers)
}
