package roster

import "time"

// EntityType enumerates the roster entity kinds managed by the promotion.
type EntityType string

const (
	EntityWrestler EntityType = "WRESTLER"
	EntityManager  EntityType = "MANAGER"
	EntityReferee  EntityType = "REFEREE"
	EntityTagTeam  EntityType = "TAG_TEAM"
	EntityStable   EntityType = "STABLE"
	EntityTitle    EntityType = "TITLE"
)

// Dimension is one axis of lifecycle status tracked as periods.
type Dimension string

const (
	DimEmployment Dimension = "EMPLOYMENT"
	DimInjury     Dimension = "INJURY"
	DimSuspension Dimension = "SUSPENSION"
	DimRetirement Dimension = "RETIREMENT"
	DimActivity   Dimension = "ACTIVITY"
)

// Transition identifies a requested lifecycle change.
type Transition string

const (
	TransitionEmploy    Transition = "EMPLOY"
	TransitionRelease   Transition = "RELEASE"
	TransitionSuspend   Transition = "SUSPEND"
	TransitionReinstate Transition = "REINSTATE"
	TransitionInjure    Transition = "INJURE"
	TransitionHeal      Transition = "HEAL"
	TransitionRetire    Transition = "RETIRE"
	TransitionUnretire  Transition = "UNRETIRE"
	TransitionDebut     Transition = "DEBUT"
	TransitionPull      Transition = "PULL"
	TransitionDelete    Transition = "DELETE"
	TransitionRestore   Transition = "RESTORE"
)

// Status is the derived single-label summary of an entity's current state.
// It is computed from the period history, never stored.
type Status string

const (
	StatusUnemployed       Status = "UNEMPLOYED"
	StatusFutureEmployment Status = "FUTURE_EMPLOYMENT"
	StatusEmployed         Status = "EMPLOYED"
	StatusSuspended        Status = "SUSPENDED"
	StatusInjured          Status = "INJURED"
	StatusReleased         Status = "RELEASED"
	StatusRetired          Status = "RETIRED"

	// Title statuses. Activity plays the role employment plays for people.
	StatusUnactivated      Status = "UNACTIVATED"
	StatusFutureActivation Status = "FUTURE_ACTIVATION"
	StatusActive           Status = "ACTIVE"
	StatusInactive         Status = "INACTIVE"
)

// Ref identifies one roster entity.
type Ref struct {
	Type EntityType
	ID   int64
}

// Period is a bounded-or-open interval during which one dimension was in
// effect. EndedAt nil means the period is still open. Periods are
// append-only: closing sets EndedAt, nothing is ever removed.
type Period struct {
	ID        int64
	StartedAt time.Time
	EndedAt   *time.Time
}

// Open reports whether the period has no end.
func (p Period) Open() bool {
	return p.EndedAt == nil
}

// InEffectAt reports whether the period covers the given instant.
func (p Period) InEffectAt(t time.Time) bool {
	if p.StartedAt.After(t) {
		return false
	}
	return p.EndedAt == nil || p.EndedAt.After(t)
}

// Overlaps reports whether two periods share any instant.
func (p Period) Overlaps(other Period) bool {
	if p.EndedAt != nil && !p.EndedAt.After(other.StartedAt) {
		return false
	}
	if other.EndedAt != nil && !other.EndedAt.After(p.StartedAt) {
		return false
	}
	return true
}

// Membership is a period-like join between a member and a group
// (wrestler<->tag team, member<->stable, client<->manager). LeftAt nil
// means the membership is current.
type Membership struct {
	ID       int64
	Member   Ref
	Group    Ref
	JoinedAt time.Time
	LeftAt   *time.Time
}

// Current reports whether the membership is still open.
func (m Membership) Current() bool {
	return m.LeftAt == nil
}

// Snapshot is the state aggregate for one entity: its identity, full period
// history across all dimensions, and the soft-delete marker. The aggregate
// owns its period collections exclusively; related entities touched by
// cascades carry their own snapshots.
type Snapshot struct {
	Ref       Ref
	Name      string
	Periods   map[Dimension][]Period
	DeletedAt *time.Time
}

// NewSnapshot returns an empty aggregate for the given entity.
func NewSnapshot(ref Ref, name string) *Snapshot {
	return &Snapshot{Ref: ref, Name: name, Periods: make(map[Dimension][]Period)}
}

// entityDimensions maps each entity type to the dimensions it tracks.
var entityDimensions = map[EntityType][]Dimension{
	EntityWrestler: {DimEmployment, DimInjury, DimSuspension, DimRetirement},
	EntityManager:  {DimEmployment, DimInjury, DimSuspension, DimRetirement},
	EntityReferee:  {DimEmployment, DimInjury, DimSuspension, DimRetirement},
	EntityTagTeam:  {DimEmployment, DimSuspension, DimRetirement},
	EntityStable:   {DimEmployment, DimSuspension, DimRetirement},
	EntityTitle:    {DimActivity, DimRetirement},
}

// SupportsDimension reports whether the entity type tracks the dimension.
func SupportsDimension(t EntityType, d Dimension) bool {
	for _, dim := range entityDimensions[t] {
		if dim == d {
			return true
		}
	}
	return false
}

// baseDimension returns the dimension that carries the entity's working
// state: Activity for titles, Employment for everyone else.
func baseDimension(t EntityType) Dimension {
	if t == EntityTitle {
		return DimActivity
	}
	return DimEmployment
}

// OpenPeriod returns the single open period for the dimension, or nil.
func (s *Snapshot) OpenPeriod(d Dimension) *Period {
	for i := range s.Periods[d] {
		if s.Periods[d][i].Open() {
			return &s.Periods[d][i]
		}
	}
	return nil
}

// HasHistory reports whether any period, open or closed, exists for the
// dimension.
func (s *Snapshot) HasHistory(d Dimension) bool {
	return len(s.Periods[d]) > 0
}

// StatusAt derives the composite status at the given instant. Precedence:
// Retirement > Suspension > Injury > base-dimension state. Exactly one
// status holds at any instant; the guards keep suspension and injury from
// being simultaneously open.
func (s *Snapshot) StatusAt(t time.Time) Status {
	title := s.Ref.Type == EntityTitle
	if p := s.OpenPeriod(DimRetirement); p != nil && !p.StartedAt.After(t) {
		return StatusRetired
	}
	base := s.OpenPeriod(baseDimension(s.Ref.Type))
	if base == nil {
		if s.HasHistory(baseDimension(s.Ref.Type)) {
			if title {
				return StatusInactive
			}
			return StatusReleased
		}
		if title {
			return StatusUnactivated
		}
		return StatusUnemployed
	}
	if base.StartedAt.After(t) {
		if title {
			return StatusFutureActivation
		}
		return StatusFutureEmployment
	}
	if p := s.OpenPeriod(DimSuspension); p != nil && !p.StartedAt.After(t) {
		return StatusSuspended
	}
	if p := s.OpenPeriod(DimInjury); p != nil && !p.StartedAt.After(t) {
		return StatusInjured
	}
	if title {
		return StatusActive
	}
	return StatusEmployed
}

// Bookability is the derived match-eligibility of a tag team.
type Bookability string

const (
	BookabilityDissolved      Bookability = "DISSOLVED"
	BookabilitySeekingPartner Bookability = "SEEKING_PARTNER"
	BookabilityBookable       Bookability = "BOOKABLE"
)

// TagTeamBookability derives bookability from the count of active wrestler
// members. Read-time derivation only; membership changes never write it.
func TagTeamBookability(activeWrestlers int) Bookability {
	switch {
	case activeWrestlers == 0:
		return BookabilityDissolved
	case activeWrestlers == 1:
		return BookabilitySeekingPartner
	default:
		return BookabilityBookable
	}
}

// StableMinimumMembers is the membership strength a stable needs to be
// considered viable. A tag team counts for two, anyone else for one.
const StableMinimumMembers = 3

// StableStrength computes the weighted member count of a stable.
func StableStrength(wrestlers, tagTeams, managers int) int {
	return wrestlers + 2*tagTeams + managers
}
