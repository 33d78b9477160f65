package roster

import "time"

// Guards are pure predicates over the aggregate evaluated at the captured
// invocation time. Each transition carries a fixed-order guard list; the
// first failing guard short-circuits with its specific reason, so callers
// always learn exactly which precondition blocked the request. The registry
// is keyed by (entity type, transition) so new entity types register
// behavior without subclassing anything.

type guardFunc func(s *Snapshot, tr Transition, now time.Time) error

func notAlreadyEmployed(s *Snapshot, tr Transition, now time.Time) error {
	if s.employedAt(now) {
		return deny(s, tr, ReasonAlreadyEmployed)
	}
	return nil
}

func notAlreadyActive(s *Snapshot, tr Transition, now time.Time) error {
	if s.employedAt(now) {
		return deny(s, tr, ReasonAlreadyActive)
	}
	return nil
}

// requireEmployment fails with Unemployed for entities that never held
// employment and Released for ones whose employment ended. Suspended and
// injured entities still hold an in-effect employment period and pass.
func requireEmployment(s *Snapshot, tr Transition, now time.Time) error {
	if s.neverEmployed() {
		return deny(s, tr, ReasonUnemployed)
	}
	if s.released() {
		return deny(s, tr, ReasonReleased)
	}
	return nil
}

func notUnemployed(s *Snapshot, tr Transition, now time.Time) error {
	if s.neverEmployed() {
		return deny(s, tr, ReasonUnemployed)
	}
	return nil
}

func notReleased(s *Snapshot, tr Transition, now time.Time) error {
	if s.released() {
		return deny(s, tr, ReasonReleased)
	}
	return nil
}

func notRetired(s *Snapshot, tr Transition, now time.Time) error {
	if s.retiredAt(now) {
		return deny(s, tr, ReasonRetired)
	}
	return nil
}

func noFutureStart(s *Snapshot, tr Transition, now time.Time) error {
	if s.hasFutureStart(now) {
		if s.Ref.Type == EntityTitle {
			return deny(s, tr, ReasonHasFutureActivation)
		}
		return deny(s, tr, ReasonHasFutureEmployment)
	}
	return nil
}

func notAlreadySuspended(s *Snapshot, tr Transition, now time.Time) error {
	if s.suspendedAt(now) {
		return deny(s, tr, ReasonAlreadySuspended)
	}
	return nil
}

func notSuspended(s *Snapshot, tr Transition, now time.Time) error {
	if s.suspendedAt(now) {
		return deny(s, tr, ReasonSuspended)
	}
	return nil
}

func requireSuspended(s *Snapshot, tr Transition, now time.Time) error {
	if !s.suspendedAt(now) {
		return deny(s, tr, ReasonNotSuspended)
	}
	return nil
}

func notAlreadyInjured(s *Snapshot, tr Transition, now time.Time) error {
	if s.injuredAt(now) {
		return deny(s, tr, ReasonAlreadyInjured)
	}
	return nil
}

func notInjured(s *Snapshot, tr Transition, now time.Time) error {
	if s.injuredAt(now) {
		return deny(s, tr, ReasonInjured)
	}
	return nil
}

func requireInjured(s *Snapshot, tr Transition, now time.Time) error {
	if !s.injuredAt(now) {
		return deny(s, tr, ReasonNotInjured)
	}
	return nil
}

func notAlreadyRetired(s *Snapshot, tr Transition, now time.Time) error {
	if s.retiredAt(now) {
		return deny(s, tr, ReasonAlreadyRetired)
	}
	return nil
}

func requireRetired(s *Snapshot, tr Transition, now time.Time) error {
	if !s.retiredAt(now) {
		return deny(s, tr, ReasonNotRetired)
	}
	return nil
}

func notUnactivated(s *Snapshot, tr Transition, now time.Time) error {
	if s.neverEmployed() {
		return deny(s, tr, ReasonUnactivated)
	}
	return nil
}

func requireActive(s *Snapshot, tr Transition, now time.Time) error {
	if !s.employedAt(now) {
		return deny(s, tr, ReasonNotActive)
	}
	return nil
}

type guardKey struct {
	entity     EntityType
	transition Transition
}

// GuardTable maps (entity type, transition) to its ordered guard list.
type GuardTable struct {
	guards map[guardKey][]guardFunc
}

// NewGuardTable registers the canonical guard sets for every entity type.
func NewGuardTable() *GuardTable {
	t := &GuardTable{guards: make(map[guardKey][]guardFunc)}

	people := []EntityType{EntityWrestler, EntityManager, EntityReferee}
	groups := []EntityType{EntityTagTeam, EntityStable}

	for _, et := range append(append([]EntityType{}, people...), groups...) {
		t.register(et, TransitionEmploy, notAlreadyEmployed)
		t.register(et, TransitionRelease, notUnemployed, notReleased, noFutureStart, notRetired)
		t.register(et, TransitionReinstate, requireSuspended)
		t.register(et, TransitionRetire, notUnemployed, noFutureStart, notAlreadyRetired)
		t.register(et, TransitionUnretire, requireRetired)
	}
	for _, et := range groups {
		t.register(et, TransitionSuspend, requireEmployment, notAlreadySuspended, notRetired, noFutureStart)
	}
	for _, et := range people {
		// Suspension and injury are mutually exclusive under the same
		// employment period, checked in both directions.
		t.register(et, TransitionSuspend, requireEmployment, notAlreadySuspended, notInjured, notRetired, noFutureStart)
		t.register(et, TransitionInjure, requireEmployment, notAlreadyInjured, notSuspended, notRetired, noFutureStart)
		t.register(et, TransitionHeal, requireInjured)
	}

	t.register(EntityTitle, TransitionDebut, notAlreadyActive)
	t.register(EntityTitle, TransitionPull, requireActive)
	t.register(EntityTitle, TransitionRetire, notUnactivated, noFutureStart, notAlreadyRetired)
	t.register(EntityTitle, TransitionUnretire, requireRetired)

	return t
}

func (t *GuardTable) register(et EntityType, tr Transition, guards ...guardFunc) {
	t.guards[guardKey{entity: et, transition: tr}] = guards
}

// Check runs the ordered guard list and returns the first failure.
func (t *GuardTable) Check(s *Snapshot, tr Transition, now time.Time) error {
	guards, ok := t.guards[guardKey{entity: s.Ref.Type, transition: tr}]
	if !ok {
		return ErrUnsupportedTransition
	}
	for _, guard := range guards {
		if err := guard(s, tr, now); err != nil {
			return err
		}
	}
	return nil
}
