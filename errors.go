package tablefsm

import (
	"errors"
	"fmt"
)

// Configuration errors, returned only while building a definition.
var (
	ErrDuplicateState      = errors.New("duplicate state")
	ErrUnknownState        = errors.New("unknown state")
	ErrAmbiguousTransition = errors.New("ambiguous transition")
	ErrTableFrozen         = errors.New("transition table is frozen")
)

// Runtime errors.
var (
	ErrNoTransition      = errors.New("no transition available")
	ErrTransitionRefused = errors.New("transition refused by guards")
	ErrHookFailed        = errors.New("hook execution failed")
)

// HookError reports a lifecycle hook that failed during dispatch.
// Stage tells the caller where the model's state ended up: before and exit
// failures leave it at From, enter and after failures leave it at To.
type HookError struct {
	Stage   Stage
	Trigger TriggerID
	From    StateID
	To      StateID
	Err     error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook failed for trigger %q (%s -> %s): %v", e.Stage, e.Trigger, e.From, e.To, e.Err)
}

func (e *HookError) Unwrap() []error {
	return []error{ErrHookFailed, e.Err}
}

// NoTransitionError is returned by Fire when the trigger is not defined for the current state
type NoTransitionError struct {
	State   StateID
	Trigger TriggerID
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state %q for trigger %q", e.State, e.Trigger)
}

func (e *NoTransitionError) Unwrap() error {
	return ErrNoTransition
}

// RefusedError is returned by Fire when a guard rejected the transition
type RefusedError struct {
	State   StateID
	Trigger TriggerID
	Reason  string
}

func (e *RefusedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transition from state %q for trigger %q was refused by guards", e.State, e.Trigger)
	}
	return fmt.Sprintf("transition from state %q for trigger %q was refused by guards: %s", e.State, e.Trigger, e.Reason)
}

func (e *RefusedError) Unwrap() error {
	return ErrTransitionRefused
}

func IsHookError(err error) bool {
	var e *HookError
	return errors.As(err, &e)
}

func IsNoTransition(err error) bool {
	return errors.Is(err, ErrNoTransition)
}

func IsRefused(err error) bool {
	return errors.Is(err, ErrTransitionRefused)
}
