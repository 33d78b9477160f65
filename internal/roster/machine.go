package roster

import (
	"context"
	"errors"
	"fmt"

	loopfsm "github.com/looplab/fsm"
)

// graphTransition is one edge of the status graph: a transition moves an
// entity from Src to Dst.
type graphTransition struct {
	Transition Transition
	Src        Status
	Dst        Status
}

// personGraph covers wrestlers, managers, and referees. Suspension and
// injury are detours from Employed; Released and Retired are re-enterable,
// not dead ends.
var personGraph = []graphTransition{
	{TransitionEmploy, StatusUnemployed, StatusEmployed},
	{TransitionEmploy, StatusFutureEmployment, StatusEmployed},
	{TransitionEmploy, StatusReleased, StatusEmployed},
	{TransitionEmploy, StatusRetired, StatusEmployed},
	{TransitionRelease, StatusEmployed, StatusReleased},
	{TransitionRelease, StatusSuspended, StatusReleased},
	{TransitionRelease, StatusInjured, StatusReleased},
	{TransitionSuspend, StatusEmployed, StatusSuspended},
	{TransitionReinstate, StatusSuspended, StatusEmployed},
	{TransitionInjure, StatusEmployed, StatusInjured},
	{TransitionHeal, StatusInjured, StatusEmployed},
	{TransitionRetire, StatusEmployed, StatusRetired},
	{TransitionRetire, StatusSuspended, StatusRetired},
	{TransitionRetire, StatusInjured, StatusRetired},
	{TransitionRetire, StatusReleased, StatusRetired},
	{TransitionUnretire, StatusRetired, StatusReleased},
}

// groupGraph covers tag teams and stables: the person graph without the
// injury detour.
var groupGraph = []graphTransition{
	{TransitionEmploy, StatusUnemployed, StatusEmployed},
	{TransitionEmploy, StatusFutureEmployment, StatusEmployed},
	{TransitionEmploy, StatusReleased, StatusEmployed},
	{TransitionEmploy, StatusRetired, StatusEmployed},
	{TransitionRelease, StatusEmployed, StatusReleased},
	{TransitionRelease, StatusSuspended, StatusReleased},
	{TransitionSuspend, StatusEmployed, StatusSuspended},
	{TransitionReinstate, StatusSuspended, StatusEmployed},
	{TransitionRetire, StatusEmployed, StatusRetired},
	{TransitionRetire, StatusSuspended, StatusRetired},
	{TransitionRetire, StatusReleased, StatusRetired},
	{TransitionUnretire, StatusRetired, StatusReleased},
}

// titleGraph tracks activity instead of employment.
var titleGraph = []graphTransition{
	{TransitionDebut, StatusUnactivated, StatusActive},
	{TransitionDebut, StatusFutureActivation, StatusActive},
	{TransitionDebut, StatusInactive, StatusActive},
	{TransitionDebut, StatusRetired, StatusActive},
	{TransitionPull, StatusActive, StatusInactive},
	{TransitionRetire, StatusActive, StatusRetired},
	{TransitionRetire, StatusInactive, StatusRetired},
	{TransitionUnretire, StatusRetired, StatusInactive},
}

var entityGraphs = map[EntityType][]graphTransition{
	EntityWrestler: personGraph,
	EntityManager:  personGraph,
	EntityReferee:  personGraph,
	EntityTagTeam:  groupGraph,
	EntityStable:   groupGraph,
	EntityTitle:    titleGraph,
}

// Machine validates transitions against the status graph and yields the
// destination status. Delete and Restore are orthogonal to the graph and
// never pass through here.
type Machine struct {
	events map[EntityType][]loopfsm.EventDesc
}

// NewMachine builds the per-entity-type event tables once.
func NewMachine() *Machine {
	m := &Machine{events: make(map[EntityType][]loopfsm.EventDesc, len(entityGraphs))}
	for t, graph := range entityGraphs {
		m.events[t] = buildEvents(graph)
	}
	return m
}

// buildEvents converts a status graph into looplab/fsm EventDesc entries,
// consolidating edges sharing an event and destination into one entry with
// multiple sources.
func buildEvents(graph []graphTransition) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0, len(graph))
	for _, g := range graph {
		k := key{event: string(g.Transition), dst: string(g.Dst)}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(g.Src))
	}
	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{Name: k.event, Src: grouped[k], Dst: k.dst})
	}
	return out
}

// Supports reports whether the entity type has any edge for the transition.
func (m *Machine) Supports(t EntityType, tr Transition) bool {
	if tr == TransitionDelete || tr == TransitionRestore {
		return true
	}
	for _, desc := range m.events[t] {
		if desc.Name == string(tr) {
			return true
		}
	}
	return false
}

// Apply checks the edge from the current status and returns the
// destination. looplab/fsm is stateful, so a short-lived instance is seeded
// with the current status per call. The destination reflects the
// instantaneous graph; a future-dated effective start still derives
// FutureEmployment from the period history.
func (m *Machine) Apply(ctx context.Context, t EntityType, current Status, tr Transition) (Status, error) {
	events, ok := m.events[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedTransition, t)
	}
	machine := loopfsm.NewFSM(string(current), events, nil)
	if err := machine.Event(ctx, string(tr)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", fmt.Errorf("%w: %s from %s", ErrUnsupportedTransition, tr, current)
		}
		return "", err
	}
	return Status(machine.Current()), nil
}
