package roster

import (
	"context"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Event is a named domain event emitted on a successful transition. Events
// are published only after the transaction commits.
type Event struct {
	Name        string
	Entity      Ref
	EffectiveAt time.Time
}

// NewEvent derives the event name from the entity type and transition,
// e.g. "WrestlerRetired" or "TagTeamEmployed".
func NewEvent(ref Ref, tr Transition, effective time.Time) Event {
	return Event{Name: eventSubject(ref.Type) + eventVerb(tr), Entity: ref, EffectiveAt: effective}
}

var eventCaser = cases.Title(language.English)

func eventSubject(t EntityType) string {
	if t == EntityTagTeam {
		return "TagTeam"
	}
	return eventCaser.String(entityLabel(t))
}

func eventVerb(tr Transition) string {
	switch tr {
	case TransitionEmploy:
		return "Employed"
	case TransitionRelease:
		return "Released"
	case TransitionSuspend:
		return "Suspended"
	case TransitionReinstate:
		return "Reinstated"
	case TransitionInjure:
		return "Injured"
	case TransitionHeal:
		return "Healed"
	case TransitionRetire:
		return "Retired"
	case TransitionUnretire:
		return "Unretired"
	case TransitionDebut:
		return "Debuted"
	case TransitionPull:
		return "Pulled"
	case TransitionDelete:
		return "Deleted"
	case TransitionRestore:
		return "Restored"
	default:
		return string(tr)
	}
}

// Publisher delivers events to external subscribers (notifications, audit
// fan-out). Implementations must tolerate redelivery.
type Publisher interface {
	Publish(ctx context.Context, events []Event) error
}
