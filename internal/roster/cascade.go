package roster

import (
	"context"
	"time"
)

// CascadeFunc appends the secondary transitions a primary transition
// triggers. Cascades receive the planner so they can re-enter planning for
// related entities; every guard failure inside a cascade aborts the whole
// plan.
type CascadeFunc func(ctx context.Context, pl *Planner, env *Environment, s *Snapshot, effective, now time.Time, plan *Plan) error

type cascadeKey struct {
	entity     EntityType
	transition Transition
}

// CascadeRegistry maps (entity type, transition) to its cascade.
type CascadeRegistry struct {
	cascades map[cascadeKey]CascadeFunc
}

// NewCascadeRegistry registers the canonical cascades.
func NewCascadeRegistry() *CascadeRegistry {
	r := &CascadeRegistry{cascades: make(map[cascadeKey]CascadeFunc)}

	// Employing a wrestler brings their currently-assigned managers along;
	// employing a tag team brings its wrestlers (and through them, their
	// managers).
	r.register(EntityWrestler, TransitionEmploy, employCurrentManagers)
	r.register(EntityTagTeam, TransitionEmploy, employCurrentWrestlers)

	// Leaving the roster ends every current relationship. History stays.
	for _, et := range []EntityType{EntityWrestler, EntityManager} {
		r.register(et, TransitionRelease, endCurrentRelationships)
		r.register(et, TransitionRetire, endCurrentRelationships)
	}
	r.register(EntityTagTeam, TransitionRetire, endCurrentRelationships)
	r.register(EntityStable, TransitionRetire, endCurrentRelationships)

	return r
}

func (r *CascadeRegistry) register(et EntityType, tr Transition, fn CascadeFunc) {
	r.cascades[cascadeKey{entity: et, transition: tr}] = fn
}

// Lookup returns the cascade for the pair, or nil.
func (r *CascadeRegistry) Lookup(et EntityType, tr Transition) CascadeFunc {
	return r.cascades[cascadeKey{entity: et, transition: tr}]
}

// employCurrentManagers employs every manager currently assigned to the
// entity. Managers already employed are skipped, never re-opened, so
// re-running the cascade is a no-op for them.
func employCurrentManagers(ctx context.Context, pl *Planner, env *Environment, s *Snapshot, effective, now time.Time, plan *Plan) error {
	for _, ref := range env.CurrentManagers(s.Ref) {
		manager, err := env.Snapshot(ref)
		if err != nil {
			return err
		}
		if manager.employedAt(now) {
			continue
		}
		if err := pl.plan(ctx, env, ref, TransitionEmploy, effective, now, plan); err != nil {
			return err
		}
	}
	return nil
}

// employCurrentWrestlers employs the group's current wrestler members,
// skipping ones already employed.
func employCurrentWrestlers(ctx context.Context, pl *Planner, env *Environment, s *Snapshot, effective, now time.Time, plan *Plan) error {
	for _, ref := range env.CurrentWrestlers(s.Ref) {
		wrestler, err := env.Snapshot(ref)
		if err != nil {
			return err
		}
		if wrestler.employedAt(now) {
			continue
		}
		if err := pl.plan(ctx, env, ref, TransitionEmploy, effective, now, plan); err != nil {
			return err
		}
	}
	return nil
}

// endCurrentRelationships closes every current membership the entity
// participates in, on either side: its tag team and stable memberships, its
// manager assignments, and, for groups, their members' links to the group.
func endCurrentRelationships(ctx context.Context, pl *Planner, env *Environment, s *Snapshot, effective, now time.Time, plan *Plan) error {
	endRelationships(env, s.Ref, effective, plan)
	return nil
}

func endRelationships(env *Environment, ref Ref, effective time.Time, plan *Plan) {
	for _, m := range env.CurrentRelationships(ref) {
		at := effective
		if m.JoinedAt.After(at) {
			at = m.JoinedAt
		}
		left := at
		m.LeftAt = &left
		plan.step(Mutation{Op: OpEndMembership, Entity: ref, MembershipID: m.ID, At: at})
	}
}
