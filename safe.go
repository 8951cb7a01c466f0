package tablefsm

import (
	"context"
	"slices"
)

// SafeTrigger fires trigger if it is defined for the model's current state.
//
// A trigger that is not defined for the current state is reported to the
// observer as a Miss (the default LogObserver warns "trigger lost in state");
// no guard or hook runs and false is returned. Otherwise the transition is
// dispatched and true is returned only if it was permitted. A guard refusal
// returns false with a nil error. A hook failure returns false and the
// *HookError, unless the machine was built with WithSuppressHookErrors.
func (m *Machine) SafeTrigger(ctx context.Context, model *Model, trigger TriggerID, data any) (bool, error) {
	model.mu.Lock()
	defer model.mu.Unlock()

	if !slices.Contains(m.transitions.triggersFrom(model.current), trigger) {
		m.logger.Debug("trigger not defined for state", "model", model.id, "trigger", trigger, "state", model.current)
		m.notify.miss(Miss{
			ModelID: model.id,
			Trigger: trigger,
			State:   model.current,
			At:      m.clock(),
		})
		return false, nil
	}

	t, _ := m.transitions.resolve(trigger, model.current)
	res, err := m.dispatchLocked(ctx, model, t, data)
	if err != nil {
		if m.suppressHookErrors {
			m.logger.Error("hook failed, transition aborted", "model", model.id, "trigger", trigger, "state", model.current, "error", err)
			return false, nil
		}
		return false, err
	}
	return res.Permitted(), nil
}
