package tablefsm

import (
	"sync"

	"github.com/google/uuid"
)

// Model is the entity driven by a Machine. It owns only its current state;
// the Machine holding the transition table can drive any number of models.
type Model struct {
	id      string
	mu      sync.Mutex
	current StateID
	data    any
}

// ModelOption is a functional option for configuring a Model
type ModelOption func(*Model)

// WithInitialState overrides the definition's initial state for this model
func WithInitialState(id StateID) ModelOption {
	return func(m *Model) {
		m.current = id
	}
}

// WithModelID sets a host-chosen identifier instead of a generated one
func WithModelID(id string) ModelOption {
	return func(m *Model) {
		if id != "" {
			m.id = id
		}
	}
}

// WithModelData attaches host data, available to hooks via Context.ModelData
func WithModelData(data any) ModelOption {
	return func(m *Model) {
		m.data = data
	}
}

// ID returns the model identifier used in records and logs
func (m *Model) ID() string {
	return m.id
}

// State returns the current state. It blocks while a transition is in progress,
// so callers never see a partially applied transition.
func (m *Model) State() StateID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Data returns the host data attached to the model
func (m *Model) Data() any {
	return m.data
}

func newModel(initial StateID, opts ...ModelOption) *Model {
	m := &Model{
		id:      uuid.NewString(),
		current: initial,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
