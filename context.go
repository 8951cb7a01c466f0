package tablefsm

import (
	"context"
	"log/slog"
)

// Context is passed to all guards and hooks and describes the transition in progress
type Context struct {
	Ctx     context.Context
	FSM     *Machine
	Model   *Model
	Trigger TriggerID
	From    StateID // State the transition leaves
	To      StateID // State the transition enters
	Data    any     // Payload given to the trigger call
	Logger  *slog.Logger
}

// CurrentState returns the model's state at this point of the protocol.
// Before and exit hooks observe From, enter and after hooks observe To.
func (c *Context) CurrentState() StateID {
	return c.Model.current
}

// ModelData returns the host data attached to the model
func (c *Context) ModelData() any {
	return c.Model.data
}
