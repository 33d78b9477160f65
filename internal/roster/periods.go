package roster

import (
	"fmt"
	"time"
)

// Period bookkeeping on the aggregate. These methods enforce the temporal
// invariants: at most one open period per dimension, no two periods for the
// same dimension overlap, and a close never precedes its start. They carry
// no cascade knowledge; the planner sequences them.

// OpenAt appends a new open period for the dimension starting at the given
// instant.
func (s *Snapshot) OpenAt(d Dimension, at time.Time) (Period, error) {
	if !SupportsDimension(s.Ref.Type, d) {
		return Period{}, fmt.Errorf("%w: %s does not track %s", ErrUnsupportedTransition, entityLabel(s.Ref.Type), d)
	}
	opened := Period{StartedAt: at}
	for _, p := range s.Periods[d] {
		if p.Open() {
			return Period{}, fmt.Errorf("%w: %s %s", ErrPeriodConflict, entityLabel(s.Ref.Type), d)
		}
		if p.Overlaps(opened) {
			return Period{}, fmt.Errorf("%w: new %s period overlaps history", ErrInvalidDateRange, d)
		}
	}
	s.Periods[d] = append(s.Periods[d], opened)
	return opened, nil
}

// CloseAt ends the open period for the dimension at the given instant.
func (s *Snapshot) CloseAt(d Dimension, at time.Time) (Period, error) {
	for i := range s.Periods[d] {
		p := &s.Periods[d][i]
		if !p.Open() {
			continue
		}
		if at.Before(p.StartedAt) {
			return Period{}, fmt.Errorf("%w: %s end %s precedes start %s",
				ErrInvalidDateRange, d, at.Format(time.RFC3339), p.StartedAt.Format(time.RFC3339))
		}
		end := at
		p.EndedAt = &end
		return *p, nil
	}
	return Period{}, fmt.Errorf("%w: %s %s", ErrNoOpenPeriod, entityLabel(s.Ref.Type), d)
}

// RewriteOpenStart moves the start of the open period for the dimension.
// Used when a future-dated start is pulled forward or pushed back before it
// takes effect.
func (s *Snapshot) RewriteOpenStart(d Dimension, at time.Time) (Period, error) {
	for i := range s.Periods[d] {
		p := &s.Periods[d][i]
		if !p.Open() {
			continue
		}
		moved := Period{StartedAt: at}
		for j, other := range s.Periods[d] {
			if j != i && other.Overlaps(moved) {
				return Period{}, fmt.Errorf("%w: moved %s start overlaps history", ErrInvalidDateRange, d)
			}
		}
		p.StartedAt = at
		return *p, nil
	}
	return Period{}, fmt.Errorf("%w: %s %s", ErrNoOpenPeriod, entityLabel(s.Ref.Type), d)
}

// IsOpenAt reports whether an open period for the dimension is in effect at
// the instant.
func (s *Snapshot) IsOpenAt(d Dimension, at time.Time) bool {
	p := s.OpenPeriod(d)
	return p != nil && !p.StartedAt.After(at)
}

// WasOpenOn reports whether any period, open or since closed, covered the
// instant. Used by backdating checks.
func (s *Snapshot) WasOpenOn(d Dimension, at time.Time) bool {
	for _, p := range s.Periods[d] {
		if p.InEffectAt(at) {
			return true
		}
	}
	return false
}

// Guard predicates. Each inspects one dimension so a failure can name the
// exact condition that blocked the transition.

func (s *Snapshot) employedAt(t time.Time) bool {
	return s.IsOpenAt(baseDimension(s.Ref.Type), t)
}

func (s *Snapshot) hasFutureStart(t time.Time) bool {
	p := s.OpenPeriod(baseDimension(s.Ref.Type))
	return p != nil && p.StartedAt.After(t)
}

func (s *Snapshot) neverEmployed() bool {
	return !s.HasHistory(baseDimension(s.Ref.Type))
}

func (s *Snapshot) released() bool {
	return s.OpenPeriod(baseDimension(s.Ref.Type)) == nil && s.HasHistory(baseDimension(s.Ref.Type))
}

func (s *Snapshot) suspendedAt(t time.Time) bool {
	return s.IsOpenAt(DimSuspension, t)
}

func (s *Snapshot) injuredAt(t time.Time) bool {
	return s.IsOpenAt(DimInjury, t)
}

func (s *Snapshot) retiredAt(t time.Time) bool {
	return s.IsOpenAt(DimRetirement, t)
}
