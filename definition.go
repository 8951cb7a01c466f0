package tablefsm

import (
	"errors"
	"fmt"
)

// Definition holds the FSM structure before building a Machine.
// It is not safe for concurrent use; register everything from one goroutine at startup.
type Definition struct {
	states      *stateRegistry
	transitions *transitionTable
	initial     StateID
	err         error
}

// NewDefinition creates a new FSM definition builder
func NewDefinition() *Definition {
	return &Definition{
		states:      newStateRegistry(),
		transitions: newTransitionTable(),
	}
}

// AddState registers a state
func (d *Definition) AddState(id StateID, opts ...StateOption) error {
	if d.transitions.frozen {
		return ErrTableFrozen
	}
	s := &State{ID: id}
	for _, opt := range opts {
		opt(s)
	}
	return d.states.register(s)
}

// AddTransition registers a transition. Both states must already be registered
// and the (trigger, from) pair must not be taken.
func (d *Definition) AddTransition(trigger TriggerID, from, to StateID, opts ...TransitionOption) error {
	t := &Transition{
		Trigger: trigger,
		From:    from,
		To:      to,
	}
	for _, opt := range opts {
		opt(t)
	}
	return d.transitions.register(d.states, t)
}

// State adds a state, recording the first error for Err and Build
func (d *Definition) State(id StateID, opts ...StateOption) *Definition {
	d.record(d.AddState(id, opts...))
	return d
}

// Transition adds a transition rule, recording the first error for Err and Build
func (d *Definition) Transition(trigger TriggerID, from, to StateID, opts ...TransitionOption) *Definition {
	d.record(d.AddTransition(trigger, from, to, opts...))
	return d
}

// Initial sets the default initial state for new models
func (d *Definition) Initial(id StateID) *Definition {
	d.initial = id
	return d
}

// Err returns the first error recorded by the fluent builder methods
func (d *Definition) Err() error {
	return d.err
}

func (d *Definition) record(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// Validate checks the definition for errors
func (d *Definition) Validate() error {
	if d.err != nil {
		return d.err
	}
	if len(d.states.order) == 0 {
		return errors.New("no states defined")
	}
	if d.initial != "" && !d.states.contains(d.initial) {
		return fmt.Errorf("%w: initial state %q", ErrUnknownState, d.initial)
	}
	return nil
}

// Build validates and freezes the definition and creates a Machine from it.
// The definition rejects further registrations afterwards.
func (d *Definition) Build(opts ...MachineOption) (*Machine, error) {
	if d.transitions.frozen {
		return nil, ErrTableFrozen
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	d.transitions.finalize()

	m := &Machine{
		states:      d.states,
		transitions: d.transitions,
		initial:     d.initial,
		logger:      Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.observer == nil {
		m.observer = NewLogObserver(m.logger)
	}
	m.notify = notifier{observer: m.observer, logger: m.logger}

	return m, nil
}

// MustBuild is like Build but panics on an invalid definition
func (d *Definition) MustBuild(opts ...MachineOption) *Machine {
	m, err := d.Build(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to build state machine: %v", err))
	}
	return m
}
