package roster

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the entity does not exist.
	ErrNotFound = errors.New("roster: entity not found")
	// ErrPeriodConflict indicates an open period already exists for the
	// dimension.
	ErrPeriodConflict = errors.New("roster: open period already exists")
	// ErrNoOpenPeriod indicates a close was requested with nothing open.
	ErrNoOpenPeriod = errors.New("roster: no open period")
	// ErrInvalidDateRange indicates an end preceding a start, or an
	// effective date violating a period's bounds.
	ErrInvalidDateRange = errors.New("roster: invalid date range")
	// ErrMembershipConflict indicates a double-membership or other
	// relationship conflict.
	ErrMembershipConflict = errors.New("roster: membership conflict")
	// ErrNotEnoughMembers indicates a structural minimum would be violated.
	ErrNotEnoughMembers = errors.New("roster: not enough members")
	// ErrUnsupportedTransition indicates the entity type does not support
	// the requested transition at all.
	ErrUnsupportedTransition = errors.New("roster: transition not supported for entity type")
	// ErrAlreadyDeleted indicates a delete on a soft-deleted entity.
	ErrAlreadyDeleted = errors.New("roster: entity already deleted")
	// ErrNotDeleted indicates a restore on an entity that is not deleted.
	ErrNotDeleted = errors.New("roster: entity not deleted")
)

// Reason identifies the specific guard that rejected a transition. Callers
// map each reason to a user-facing message; the core never collapses them
// into a generic failure.
type Reason string

const (
	ReasonAlreadyEmployed     Reason = "ALREADY_EMPLOYED"
	ReasonUnemployed          Reason = "UNEMPLOYED"
	ReasonReleased            Reason = "RELEASED"
	ReasonRetired             Reason = "RETIRED"
	ReasonHasFutureEmployment Reason = "HAS_FUTURE_EMPLOYMENT"
	ReasonAlreadySuspended    Reason = "ALREADY_SUSPENDED"
	ReasonNotSuspended        Reason = "NOT_SUSPENDED"
	ReasonSuspended           Reason = "SUSPENDED"
	ReasonAlreadyInjured      Reason = "ALREADY_INJURED"
	ReasonNotInjured          Reason = "NOT_INJURED"
	ReasonInjured             Reason = "INJURED"
	ReasonAlreadyRetired      Reason = "ALREADY_RETIRED"
	ReasonNotRetired          Reason = "NOT_RETIRED"
	ReasonAlreadyActive       Reason = "ALREADY_ACTIVE"
	ReasonNotActive           Reason = "NOT_ACTIVE"
	ReasonUnactivated         Reason = "UNACTIVATED"
	ReasonHasFutureActivation Reason = "HAS_FUTURE_ACTIVATION"
)

// TransitionError is the guard-failure family: one reason per rejected
// precondition, carrying the entity identity for user-facing messages.
type TransitionError struct {
	Entity     Ref
	Name       string
	Transition Transition
	Reason     Reason
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("roster: %s %q cannot %s: %s",
		entityLabel(e.Entity.Type), e.Name, transitionLabel(e.Transition), reasonLabel(e.Reason))
}

func deny(s *Snapshot, tr Transition, reason Reason) *TransitionError {
	return &TransitionError{Entity: s.Ref, Name: s.Name, Transition: tr, Reason: reason}
}

func entityLabel(t EntityType) string {
	switch t {
	case EntityWrestler:
		return "wrestler"
	case EntityManager:
		return "manager"
	case EntityReferee:
		return "referee"
	case EntityTagTeam:
		return "tag team"
	case EntityStable:
		return "stable"
	case EntityTitle:
		return "title"
	default:
		return string(t)
	}
}

func transitionLabel(tr Transition) string {
	switch tr {
	case TransitionEmploy:
		return "be employed"
	case TransitionRelease:
		return "be released"
	case TransitionSuspend:
		return "be suspended"
	case TransitionReinstate:
		return "be reinstated"
	case TransitionInjure:
		return "be injured"
	case TransitionHeal:
		return "be cleared from injury"
	case TransitionRetire:
		return "be retired"
	case TransitionUnretire:
		return "be unretired"
	case TransitionDebut:
		return "be debuted"
	case TransitionPull:
		return "be pulled"
	case TransitionDelete:
		return "be deleted"
	case TransitionRestore:
		return "be restored"
	default:
		return string(tr)
	}
}

func reasonLabel(r Reason) string {
	switch r {
	case ReasonAlreadyEmployed:
		return "already employed"
	case ReasonUnemployed:
		return "currently unemployed"
	case ReasonReleased:
		return "currently released"
	case ReasonRetired:
		return "currently retired"
	case ReasonHasFutureEmployment:
		return "employment has not started yet"
	case ReasonAlreadySuspended:
		return "already suspended"
	case ReasonNotSuspended:
		return "not suspended"
	case ReasonSuspended:
		return "currently suspended"
	case ReasonAlreadyInjured:
		return "already injured"
	case ReasonNotInjured:
		return "not injured"
	case ReasonInjured:
		return "currently injured"
	case ReasonAlreadyRetired:
		return "already retired"
	case ReasonNotRetired:
		return "not retired"
	case ReasonAlreadyActive:
		return "already active"
	case ReasonNotActive:
		return "not active"
	case ReasonUnactivated:
		return "has never been activated"
	case ReasonHasFutureActivation:
		return "activation has not started yet"
	default:
		return string(r)
	}
}
