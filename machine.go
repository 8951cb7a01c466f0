package tablefsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Machine drives models through the transition table it was built from.
// The table is read-only, so one Machine may serve many models concurrently.
type Machine struct {
	states      *stateRegistry
	transitions *transitionTable
	initial     StateID

	logger   *slog.Logger
	observer Observer
	notify   notifier

	suppressHookErrors bool
	now                func() time.Time
}

// MachineOption is a functional option for configuring a Machine
type MachineOption func(*Machine)

// WithLogger sets the logger for the machine
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver sets the sink receiving transition records. Defaults to a LogObserver.
func WithObserver(o Observer) MachineOption {
	return func(m *Machine) {
		m.observer = o
	}
}

// WithSuppressHookErrors makes SafeTrigger log hook failures and report false
// instead of returning them
func WithSuppressHookErrors() MachineOption {
	return func(m *Machine) {
		m.suppressHookErrors = true
	}
}

// WithClock overrides the time source used for record timestamps
func WithClock(now func() time.Time) MachineOption {
	return func(m *Machine) {
		m.now = now
	}
}

// Result is the outcome of a dispatch
type Result struct {
	Outcome Outcome
	From    StateID
	To      StateID // Attempted destination, empty when not applicable
	Reason  string
}

// Permitted reports whether the transition ran to completion
func (r Result) Permitted() bool {
	return r.Outcome == OutcomePermitted
}

// NewModel creates a model in the definition's initial state, or the one given
// with WithInitialState
func (m *Machine) NewModel(opts ...ModelOption) (*Model, error) {
	model := newModel(m.initial, opts...)
	if model.current == "" {
		return nil, errors.New("no initial state: set one on the definition or pass WithInitialState")
	}
	if !m.states.contains(model.current) {
		return nil, fmt.Errorf("%w: initial state %q", ErrUnknownState, model.current)
	}
	return model, nil
}

// HasState reports whether id is a registered state
func (m *Machine) HasState(id StateID) bool {
	return m.states.contains(id)
}

// States returns the registered states in registration order
func (m *Machine) States() []StateID {
	out := make([]StateID, len(m.states.order))
	copy(out, m.states.order)
	return out
}

// Transitions returns copies of the registered transitions in registration order
func (m *Machine) Transitions() []Transition {
	out := make([]Transition, 0, len(m.transitions.order))
	for _, t := range m.transitions.order {
		out = append(out, *t)
	}
	return out
}

// TriggersFrom returns the triggers defined for state, without evaluating guards
func (m *Machine) TriggersFrom(state StateID) []TriggerID {
	return m.transitions.triggersFrom(state)
}

// Resolve looks up the transition for trigger in state
func (m *Machine) Resolve(trigger TriggerID, state StateID) (Transition, bool) {
	t, ok := m.transitions.resolve(trigger, state)
	if !ok {
		return Transition{}, false
	}
	return *t, true
}

// CanTrigger reports whether trigger is defined for the model's current state.
// Guards are not evaluated.
func (m *Machine) CanTrigger(model *Model, trigger TriggerID) bool {
	_, ok := m.transitions.resolve(trigger, model.State())
	return ok
}

// Dispatch runs the transition protocol for trigger. Refusals and structural
// misses are reported in the Result; only hook failures return an error.
func (m *Machine) Dispatch(ctx context.Context, model *Model, trigger TriggerID, data any) (Result, error) {
	model.mu.Lock()
	defer model.mu.Unlock()

	t, ok := m.transitions.resolve(trigger, model.current)
	if !ok {
		m.logger.Debug("no transition found", "model", model.id, "trigger", trigger, "state", model.current)
		m.notify.miss(Miss{
			ModelID: model.id,
			Trigger: trigger,
			State:   model.current,
			At:      m.clock(),
		})
		return Result{Outcome: OutcomeNotApplicable, From: model.current}, nil
	}

	return m.dispatchLocked(ctx, model, t, data)
}

// Fire is the strict variant of Dispatch: a structural miss returns a
// *NoTransitionError and a guard refusal returns a *RefusedError.
func (m *Machine) Fire(ctx context.Context, model *Model, trigger TriggerID, data any) error {
	res, err := m.Dispatch(ctx, model, trigger, data)
	if err != nil {
		return err
	}
	switch res.Outcome {
	case OutcomeNotApplicable:
		return &NoTransitionError{State: res.From, Trigger: trigger}
	case OutcomeRefused:
		return &RefusedError{State: res.From, Trigger: trigger, Reason: res.Reason}
	}
	return nil
}

// dispatchLocked runs guards and hooks for a resolved transition. The model lock must be held.
func (m *Machine) dispatchLocked(ctx context.Context, model *Model, t *Transition, data any) (Result, error) {
	started := m.clock()
	rec := Record{
		ID:      uuid.NewString(),
		ModelID: model.id,
		Trigger: t.Trigger,
		From:    t.From,
		To:      t.To,
		Started: started,
	}
	res := Result{From: t.From, To: t.To}

	c := &Context{
		Ctx:     ctx,
		FSM:     m,
		Model:   model,
		Trigger: t.Trigger,
		From:    t.From,
		To:      t.To,
		Data:    data,
		Logger:  m.logger,
	}

	m.logger.Debug("evaluating guards", "model", model.id, "trigger", t.Trigger, "from", t.From, "to", t.To, "guards", len(t.Guards))
	if verdict := evaluateGuards(t.Guards, c); !verdict.ok {
		m.logger.Debug("guard rejected transition", "model", model.id, "trigger", t.Trigger, "guard", verdict.index, "reason", verdict.reason)
		rec.Outcome = OutcomeRefused
		rec.Reason = verdict.reason
		rec.Stage = StageGuard
		rec.Err = verdict.err
		rec.Duration = m.clock().Sub(started)
		m.notify.attempt(rec)

		res.Outcome = OutcomeRefused
		res.Reason = verdict.reason
		return res, nil
	}

	if err := m.runProtocol(model, t, c); err != nil {
		var herr *HookError
		errors.As(err, &herr)
		rec.Outcome = OutcomeFailed
		rec.Stage = herr.Stage
		rec.Reason = err.Error()
		rec.Err = herr.Err
		rec.Duration = m.clock().Sub(started)
		m.notify.attempt(rec)

		res.Outcome = OutcomeFailed
		res.Reason = rec.Reason
		return res, err
	}

	rec.Permitted = true
	rec.Outcome = OutcomePermitted
	rec.Duration = m.clock().Sub(started)
	m.notify.attempt(rec)

	res.Outcome = OutcomePermitted
	return res, nil
}

// runProtocol executes before, exit, state assignment, enter and after.
// Self-transitions skip exit and enter.
func (m *Machine) runProtocol(model *Model, t *Transition, c *Context) error {
	if err := m.runHook(StageBefore, t.Before, t, c); err != nil {
		return err
	}

	_, onExit := m.states.hooksFor(t.From)
	onEnter, _ := m.states.hooksFor(t.To)

	if !t.IsSelf() {
		m.logger.Debug("exiting state", "model", model.id, "state", t.From)
		if err := m.runHook(StageExit, onExit, t, c); err != nil {
			return err
		}
	}

	model.current = t.To

	if !t.IsSelf() {
		m.logger.Debug("entering state", "model", model.id, "state", t.To)
		if err := m.runHook(StageEnter, onEnter, t, c); err != nil {
			return err
		}
	}

	return m.runHook(StageAfter, t.After, t, c)
}

func (m *Machine) runHook(stage Stage, hook Hook, t *Transition, c *Context) (err error) {
	if hook == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = &HookError{Stage: stage, Trigger: t.Trigger, From: t.From, To: t.To, Err: fmt.Errorf("hook panicked: %v", p)}
		}
	}()
	if herr := hook(c); herr != nil {
		return &HookError{Stage: stage, Trigger: t.Trigger, From: t.From, To: t.To, Err: herr}
	}
	return nil
}

func (m *Machine) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}
