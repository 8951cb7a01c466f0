package tablefsm

import (
	"log/slog"
	"time"
)

// Record describes one transition attempt that reached guard evaluation
type Record struct {
	ID        string
	ModelID   string
	Trigger   TriggerID
	From      StateID
	To        StateID // Attempted destination
	Permitted bool
	Outcome   Outcome
	Reason    string // Why the attempt was refused or failed
	Stage     Stage  // Stage of the failing guard or hook, empty when permitted
	Err       error
	Started   time.Time
	Duration  time.Duration
}

// Miss describes a trigger that was not applicable in the model's current state
type Miss struct {
	ModelID string
	Trigger TriggerID
	State   StateID
	At      time.Time
}

// Observer receives a notification for every trigger call. Implementations must
// not call back into the machine for the same model.
type Observer interface {
	OnAttempt(r Record)
	OnMiss(m Miss)
}

// ObserverFuncs adapts plain functions to the Observer interface. Nil fields are skipped.
type ObserverFuncs struct {
	Attempt func(Record)
	Missed  func(Miss)
}

func (o ObserverFuncs) OnAttempt(r Record) {
	if o.Attempt != nil {
		o.Attempt(r)
	}
}

func (o ObserverFuncs) OnMiss(m Miss) {
	if o.Missed != nil {
		o.Missed(m)
	}
}

// NopObserver discards all notifications
type NopObserver struct{}

func (NopObserver) OnAttempt(Record) {}
func (NopObserver) OnMiss(Miss)      {}

type multiObserver []Observer

// Observers fans notifications out to every given observer in order
func Observers(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (mo multiObserver) OnAttempt(r Record) {
	for _, o := range mo {
		o.OnAttempt(r)
	}
}

func (mo multiObserver) OnMiss(m Miss) {
	for _, o := range mo {
		o.OnMiss(m)
	}
}

// LogObserver writes attempts and misses to a structured logger
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver; a nil logger falls back to the package Logger
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = Logger
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnAttempt(r Record) {
	attrs := []any{
		"model", r.ModelID,
		"trigger", r.Trigger,
		"from", r.From,
		"to", r.To,
		"permitted", r.Permitted,
		"duration", r.Duration,
	}
	switch r.Outcome {
	case OutcomeFailed:
		o.logger.Error("transition failed", append(attrs, "stage", r.Stage, "error", r.Err)...)
	case OutcomeRefused:
		o.logger.Info("transition refused", append(attrs, "reason", r.Reason)...)
	default:
		o.logger.Info("transition attempted", attrs...)
	}
}

func (o *LogObserver) OnMiss(m Miss) {
	o.logger.Warn("trigger lost in state", "model", m.ModelID, "trigger", m.Trigger, "state", m.State)
}

// notifier shields the machine from observer panics
type notifier struct {
	observer Observer
	logger   *slog.Logger
}

func (n notifier) attempt(r Record) {
	defer n.catch("attempt", r.Trigger)
	n.observer.OnAttempt(r)
}

func (n notifier) miss(m Miss) {
	defer n.catch("miss", m.Trigger)
	n.observer.OnMiss(m)
}

func (n notifier) catch(kind string, trigger TriggerID) {
	if p := recover(); p != nil {
		n.logger.Debug("observer panicked, notification dropped", "kind", kind, "trigger", trigger, "panic", p)
	}
}
