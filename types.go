// Package tablefsm executes finite state machines declared as a table of states
// and guarded transitions, driving any number of independent models through
// them with enter, exit, before and after hooks.
package tablefsm

import "log/slog"

// StateID is a unique identifier for a state
type StateID string

// TriggerID names a trigger that may move a model between states
type TriggerID string

// Hook runs host logic at a fixed point of the transition protocol
type Hook func(c *Context) error

// Guard decides whether a transition is admissible. An error counts as a refusal.
type Guard func(c *Context) (bool, error)

// Cond adapts a plain predicate into a Guard
func Cond(fn func(c *Context) bool) Guard {
	return func(c *Context) (bool, error) {
		return fn(c), nil
	}
}

// Stage identifies the protocol step a hook belongs to
type Stage string

const (
	StageGuard  Stage = "guard"
	StageBefore Stage = "before"
	StageExit   Stage = "exit"
	StageEnter  Stage = "enter"
	StageAfter  Stage = "after"
)

// Outcome classifies the result of a dispatch
type Outcome int

const (
	// OutcomeNotApplicable means no transition is defined for the trigger in the current state
	OutcomeNotApplicable Outcome = iota
	// OutcomeRefused means a guard rejected the transition; state is unchanged
	OutcomeRefused
	// OutcomePermitted means the transition ran to completion
	OutcomePermitted
	// OutcomeFailed means a hook failed part way through the protocol
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeRefused:
		return "refused"
	case OutcomePermitted:
		return "permitted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Logger is the default logger used when none is provided
var Logger = slog.Default()
