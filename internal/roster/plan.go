package roster

import (
	"context"
	"fmt"
	"time"
)

// MutationOp enumerates the persistence effects a plan can emit.
type MutationOp string

const (
	OpOpenPeriod         MutationOp = "OPEN_PERIOD"
	OpClosePeriod        MutationOp = "CLOSE_PERIOD"
	OpRewritePeriodStart MutationOp = "REWRITE_PERIOD_START"
	OpEndMembership      MutationOp = "END_MEMBERSHIP"
	OpSoftDelete         MutationOp = "SOFT_DELETE"
	OpRestore            MutationOp = "RESTORE"
)

// Mutation is one ordered persistence effect. The repository applies the
// whole list inside a single transaction.
type Mutation struct {
	Op           MutationOp
	Entity       Ref
	Dimension    Dimension
	MembershipID int64
	At           time.Time
}

// Plan is the ordered outcome of one transition request: the mutations to
// apply atomically and the events to publish after commit.
type Plan struct {
	Steps  []Mutation
	Events []Event
}

func (p *Plan) step(m Mutation) {
	p.Steps = append(p.Steps, m)
}

// Environment holds the working aggregates a plan may read and mutate: the
// triggering entity's snapshot plus any related entities and current
// memberships the cascades can touch. Planning mutates these working copies
// in place so nested plans observe intermediate state; nothing is persisted
// until the service replays the recorded steps.
type Environment struct {
	snapshots   map[Ref]*Snapshot
	memberships []*Membership
}

// NewEnvironment builds a planning environment.
func NewEnvironment(snapshots []*Snapshot, memberships []*Membership) *Environment {
	env := &Environment{snapshots: make(map[Ref]*Snapshot, len(snapshots)), memberships: memberships}
	for _, s := range snapshots {
		env.snapshots[s.Ref] = s
	}
	return env
}

// Snapshot returns the working aggregate for the entity.
func (e *Environment) Snapshot(ref Ref) (*Snapshot, error) {
	s, ok := e.snapshots[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, entityLabel(ref.Type), ref.ID)
	}
	return s, nil
}

// CurrentManagers returns the managers currently assigned to the entity.
func (e *Environment) CurrentManagers(ref Ref) []Ref {
	var out []Ref
	for _, m := range e.memberships {
		if m.Current() && m.Member == ref && m.Group.Type == EntityManager {
			out = append(out, m.Group)
		}
	}
	return out
}

// CurrentWrestlers returns the wrestlers currently on the group.
func (e *Environment) CurrentWrestlers(group Ref) []Ref {
	var out []Ref
	for _, m := range e.memberships {
		if m.Current() && m.Group == group && m.Member.Type == EntityWrestler {
			out = append(out, m.Member)
		}
	}
	return out
}

// CurrentRelationships returns every current membership the entity
// participates in, on either side.
func (e *Environment) CurrentRelationships(ref Ref) []*Membership {
	var out []*Membership
	for _, m := range e.memberships {
		if m.Current() && (m.Member == ref || m.Group == ref) {
			out = append(out, m)
		}
	}
	return out
}

// Planner turns a transition request into an ordered mutation plan. It is
// pure apart from mutating the environment's working copies: guards decide
// legality, the machine supplies the graph, cascades append secondary
// transitions, and every effect lands in the plan for the repository to
// replay.
type Planner struct {
	machine  *Machine
	guards   *GuardTable
	cascades *CascadeRegistry
}

// NewPlanner wires the default guard table, status graph, and cascades.
func NewPlanner() *Planner {
	return &Planner{machine: NewMachine(), guards: NewGuardTable(), cascades: NewCascadeRegistry()}
}

// Plan validates and sequences one transition. effective is the caller's
// effective date (backdated and future-dated are both legal); now is the
// invocation instant captured once and reused for every guard in the call.
func (pl *Planner) Plan(ctx context.Context, env *Environment, ref Ref, tr Transition, effective, now time.Time) (*Plan, error) {
	plan := &Plan{}
	if err := pl.plan(ctx, env, ref, tr, effective, now, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// plan appends one transition's steps to an existing plan. Cascades re-enter
// here for related entities.
func (pl *Planner) plan(ctx context.Context, env *Environment, ref Ref, tr Transition, effective, now time.Time, plan *Plan) error {
	s, err := env.Snapshot(ref)
	if err != nil {
		return err
	}

	switch tr {
	case TransitionDelete:
		return pl.planDelete(ctx, env, s, effective, now, plan)
	case TransitionRestore:
		return pl.planRestore(s, plan)
	}

	if !pl.machine.Supports(ref.Type, tr) {
		return fmt.Errorf("%w: %s cannot %s", ErrUnsupportedTransition, entityLabel(ref.Type), tr)
	}
	if err := pl.guards.Check(s, tr, now); err != nil {
		return err
	}
	if _, err := pl.machine.Apply(ctx, ref.Type, s.StatusAt(now), tr); err != nil {
		return err
	}

	if err := pl.preSteps(s, tr, effective, plan); err != nil {
		return err
	}
	if err := pl.primary(s, tr, effective, plan); err != nil {
		return err
	}
	if cascade := pl.cascades.Lookup(ref.Type, tr); cascade != nil {
		if err := cascade(ctx, pl, env, s, effective, now, plan); err != nil {
			return err
		}
	}

	plan.Events = append(plan.Events, NewEvent(s.Ref, tr, effective))
	return nil
}

// preSteps closes the periods a transition implicitly ends, in fixed order:
// suspension, injury, then the base dimension for Release and Retire;
// retirement before Employ and Debut reopen the base dimension.
func (pl *Planner) preSteps(s *Snapshot, tr Transition, effective time.Time, plan *Plan) error {
	switch tr {
	case TransitionRelease, TransitionRetire:
		for _, d := range []Dimension{DimSuspension, DimInjury} {
			if err := pl.closeIfOpen(s, d, effective, plan); err != nil {
				return err
			}
		}
		if tr == TransitionRetire {
			return pl.closeIfOpen(s, baseDimension(s.Ref.Type), effective, plan)
		}
	case TransitionEmploy, TransitionDebut:
		return pl.closeIfOpen(s, DimRetirement, effective, plan)
	}
	return nil
}

// primary applies the transition's own period mutation.
func (pl *Planner) primary(s *Snapshot, tr Transition, effective time.Time, plan *Plan) error {
	base := baseDimension(s.Ref.Type)
	switch tr {
	case TransitionEmploy, TransitionDebut:
		// A pending future-dated start is moved rather than doubled up.
		if p := s.OpenPeriod(base); p != nil {
			if _, err := s.RewriteOpenStart(base, effective); err != nil {
				return err
			}
			plan.step(Mutation{Op: OpRewritePeriodStart, Entity: s.Ref, Dimension: base, At: effective})
			return nil
		}
		return pl.open(s, base, effective, plan)
	case TransitionRelease, TransitionPull:
		return pl.close(s, base, effective, plan)
	case TransitionSuspend:
		return pl.open(s, DimSuspension, effective, plan)
	case TransitionReinstate:
		return pl.close(s, DimSuspension, effective, plan)
	case TransitionInjure:
		return pl.open(s, DimInjury, effective, plan)
	case TransitionHeal:
		return pl.close(s, DimInjury, effective, plan)
	case TransitionRetire:
		return pl.open(s, DimRetirement, effective, plan)
	case TransitionUnretire:
		return pl.close(s, DimRetirement, effective, plan)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedTransition, tr)
	}
}

func (pl *Planner) planDelete(ctx context.Context, env *Environment, s *Snapshot, effective, now time.Time, plan *Plan) error {
	if s.DeletedAt != nil {
		return ErrAlreadyDeleted
	}
	dims := []Dimension{DimSuspension, DimInjury, baseDimension(s.Ref.Type)}
	for _, d := range dims {
		if !SupportsDimension(s.Ref.Type, d) {
			continue
		}
		if err := pl.closeIfOpen(s, d, effective, plan); err != nil {
			return err
		}
	}
	endRelationships(env, s.Ref, effective, plan)
	end := effective
	s.DeletedAt = &end
	plan.step(Mutation{Op: OpSoftDelete, Entity: s.Ref, At: effective})
	plan.Events = append(plan.Events, NewEvent(s.Ref, TransitionDelete, effective))
	return nil
}

func (pl *Planner) planRestore(s *Snapshot, plan *Plan) error {
	if s.DeletedAt == nil {
		return ErrNotDeleted
	}
	s.DeletedAt = nil
	plan.step(Mutation{Op: OpRestore, Entity: s.Ref})
	plan.Events = append(plan.Events, NewEvent(s.Ref, TransitionRestore, time.Time{}))
	return nil
}

func (pl *Planner) open(s *Snapshot, d Dimension, at time.Time, plan *Plan) error {
	if _, err := s.OpenAt(d, at); err != nil {
		return err
	}
	plan.step(Mutation{Op: OpOpenPeriod, Entity: s.Ref, Dimension: d, At: at})
	return nil
}

func (pl *Planner) close(s *Snapshot, d Dimension, at time.Time, plan *Plan) error {
	if _, err := s.CloseAt(d, at); err != nil {
		return err
	}
	plan.step(Mutation{Op: OpClosePeriod, Entity: s.Ref, Dimension: d, At: at})
	return nil
}

// closeIfOpen ends an open period when one exists. A period whose start is
// still in the future is closed at its own start so history never records a
// negative interval.
func (pl *Planner) closeIfOpen(s *Snapshot, d Dimension, at time.Time, plan *Plan) error {
	p := s.OpenPeriod(d)
	if p == nil {
		return nil
	}
	if p.StartedAt.After(at) {
		at = p.StartedAt
	}
	return pl.close(s, d, at, plan)
}
