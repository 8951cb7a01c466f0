// Package metrics exports transition activity of a tablefsm Machine as
// Prometheus metrics. Attach an Observer with tablefsm.WithObserver, usually
// next to a LogObserver via tablefsm.Observers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/librescoot/tablefsm"
)

const (
	defaultNamespace = "tablefsm"
	defaultSubsystem = "machine"
)

// Observer counts attempts, misses and hook failures and times dispatches
type Observer struct {
	attempts     *prometheus.CounterVec
	misses       *prometheus.CounterVec
	hookFailures *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

type config struct {
	namespace   string
	subsystem   string
	constLabels prometheus.Labels
	buckets     []float64
}

// Option configures the Observer
type Option func(*config)

// WithNamespace overrides the metric namespace (default "tablefsm")
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithSubsystem overrides the metric subsystem (default "machine")
func WithSubsystem(s string) Option {
	return func(c *config) { c.subsystem = s }
}

// WithConstLabels adds labels to every metric, e.g. the machine name when
// several machines share a registry
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *config) { c.constLabels = labels }
}

// WithBuckets sets the dispatch duration histogram buckets in seconds
func WithBuckets(buckets []float64) Option {
	return func(c *config) { c.buckets = buckets }
}

// New creates an Observer and registers its collectors with reg.
// A nil registerer leaves the collectors unregistered.
// Registering twice on the same registry panics, as with promauto.
func New(reg prometheus.Registerer, opts ...Option) *Observer {
	cfg := &config{
		namespace: defaultNamespace,
		subsystem: defaultSubsystem,
		buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	factory := promauto.With(reg)

	return &Observer{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.namespace,
				Subsystem:   cfg.subsystem,
				Name:        "transition_attempts_total",
				Help:        "Transition attempts that reached guard evaluation, by outcome",
				ConstLabels: cfg.constLabels,
			},
			[]string{"trigger", "from", "to", "outcome"},
		),
		misses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.namespace,
				Subsystem:   cfg.subsystem,
				Name:        "trigger_misses_total",
				Help:        "Triggers that were not defined for the model's current state",
				ConstLabels: cfg.constLabels,
			},
			[]string{"trigger", "state"},
		),
		hookFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   cfg.namespace,
				Subsystem:   cfg.subsystem,
				Name:        "hook_failures_total",
				Help:        "Lifecycle hook failures by protocol stage",
				ConstLabels: cfg.constLabels,
			},
			[]string{"trigger", "stage"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   cfg.namespace,
				Subsystem:   cfg.subsystem,
				Name:        "dispatch_duration_seconds",
				Help:        "Time spent evaluating guards and running hooks",
				ConstLabels: cfg.constLabels,
				Buckets:     cfg.buckets,
			},
			[]string{"trigger"},
		),
	}
}

func (o *Observer) OnAttempt(r tablefsm.Record) {
	trigger := string(r.Trigger)
	o.attempts.WithLabelValues(trigger, string(r.From), string(r.To), r.Outcome.String()).Inc()
	o.duration.WithLabelValues(trigger).Observe(r.Duration.Seconds())
	if r.Outcome == tablefsm.OutcomeFailed {
		o.hookFailures.WithLabelValues(trigger, string(r.Stage)).Inc()
	}
}

func (o *Observer) OnMiss(m tablefsm.Miss) {
	o.misses.WithLabelValues(string(m.Trigger), string(m.State)).Inc()
}
