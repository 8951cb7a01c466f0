package tablefsm

import "fmt"

// State defines a state in the machine
type State struct {
	ID      StateID
	OnEnter Hook
	OnExit  Hook
}

// StateOption is a functional option for configuring a State
type StateOption func(*State)

// WithOnEnter sets the entry hook for the state
func WithOnEnter(fn Hook) StateOption {
	return func(s *State) {
		s.OnEnter = fn
	}
}

// WithOnExit sets the exit hook for the state
func WithOnExit(fn Hook) StateOption {
	return func(s *State) {
		s.OnExit = fn
	}
}

// stateRegistry holds the declared states in registration order
type stateRegistry struct {
	states map[StateID]*State
	order  []StateID
}

func newStateRegistry() *stateRegistry {
	return &stateRegistry{
		states: make(map[StateID]*State),
	}
}

func (r *stateRegistry) register(s *State) error {
	if s.ID == "" {
		return fmt.Errorf("%w: empty state name", ErrUnknownState)
	}
	if _, ok := r.states[s.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateState, s.ID)
	}
	r.states[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

func (r *stateRegistry) contains(id StateID) bool {
	_, ok := r.states[id]
	return ok
}

func (r *stateRegistry) hooksFor(id StateID) (onEnter, onExit Hook) {
	s, ok := r.states[id]
	if !ok {
		return nil, nil
	}
	return s.OnEnter, s.OnExit
}
