package tablefsm

import (
	"fmt"
	"sort"
)

// Transition defines a state change rule
type Transition struct {
	Trigger TriggerID
	From    StateID
	To      StateID
	Guards  []Guard // All must pass, evaluated in order
	Before  Hook    // Runs before the source state is exited
	After   Hook    // Runs after the destination state is entered
}

// IsSelf reports whether the transition stays in its source state
func (t *Transition) IsSelf() bool {
	return t.From == t.To
}

// TransitionOption is a functional option for configuring a Transition
type TransitionOption func(*Transition)

// WithGuard appends a guard condition to the transition
func WithGuard(fn Guard) TransitionOption {
	return func(t *Transition) {
		if fn != nil {
			t.Guards = append(t.Guards, fn)
		}
	}
}

// WithGuards appends multiple guard conditions that must ALL pass (AND logic)
func WithGuards(guards ...Guard) TransitionOption {
	return func(t *Transition) {
		for _, g := range guards {
			if g != nil {
				t.Guards = append(t.Guards, g)
			}
		}
	}
}

// WithBefore sets the hook executed before leaving the source state
func WithBefore(fn Hook) TransitionOption {
	return func(t *Transition) {
		t.Before = fn
	}
}

// WithAfter sets the hook executed once the destination state is entered
func WithAfter(fn Hook) TransitionOption {
	return func(t *Transition) {
		t.After = fn
	}
}

// transitionTable indexes transitions by source state, then trigger.
// It is written only while the owning Definition is open and read-only afterwards.
type transitionTable struct {
	bySource map[StateID]map[TriggerID]*Transition
	order    []*Transition
	frozen   bool
}

func newTransitionTable() *transitionTable {
	return &transitionTable{
		bySource: make(map[StateID]map[TriggerID]*Transition),
	}
}

func (tt *transitionTable) register(states *stateRegistry, t *Transition) error {
	if tt.frozen {
		return ErrTableFrozen
	}
	if t.Trigger == "" {
		return fmt.Errorf("transition %q -> %q: empty trigger name", t.From, t.To)
	}
	if !states.contains(t.From) {
		return fmt.Errorf("%w: transition %q from %q", ErrUnknownState, t.Trigger, t.From)
	}
	if !states.contains(t.To) {
		return fmt.Errorf("%w: transition %q to %q", ErrUnknownState, t.Trigger, t.To)
	}

	byTrigger, ok := tt.bySource[t.From]
	if !ok {
		byTrigger = make(map[TriggerID]*Transition)
		tt.bySource[t.From] = byTrigger
	}
	if existing, ok := byTrigger[t.Trigger]; ok {
		return fmt.Errorf("%w: trigger %q from %q already leads to %q",
			ErrAmbiguousTransition, t.Trigger, t.From, existing.To)
	}

	byTrigger[t.Trigger] = t
	tt.order = append(tt.order, t)
	return nil
}

func (tt *transitionTable) finalize() {
	tt.frozen = true
}

// triggersFrom returns the triggers structurally admissible from state, sorted by name
func (tt *transitionTable) triggersFrom(state StateID) []TriggerID {
	byTrigger := tt.bySource[state]
	triggers := make([]TriggerID, 0, len(byTrigger))
	for trigger := range byTrigger {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

func (tt *transitionTable) resolve(trigger TriggerID, state StateID) (*Transition, bool) {
	t, ok := tt.bySource[state][trigger]
	return t, ok
}
