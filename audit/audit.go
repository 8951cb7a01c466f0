// Package audit keeps an optional audit trail of transition attempts.
//
// A Log is a tablefsm.Observer that retains the most recent entries in a
// bounded ring and can mirror every entry as a JSON line to an io.Writer
// (a file, a pipe to a log shipper). Only the trail is kept; the engine itself
// still persists nothing but each model's current state.
package audit

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/librescoot/tablefsm"
)

// DefaultCapacity is the number of entries retained when no capacity is given
const DefaultCapacity = 1024

// Kind distinguishes attempts from structural misses
type Kind string

const (
	KindAttempt Kind = "attempt"
	KindMiss    Kind = "miss"
)

// Entry is a serialisable copy of a tablefsm.Record or tablefsm.Miss
type Entry struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	ModelID   string        `json:"model_id"`
	Trigger   string        `json:"trigger"`
	From      string        `json:"from"`
	To        string        `json:"to,omitempty"`
	Permitted bool          `json:"permitted"`
	Outcome   string        `json:"outcome"`
	Reason    string        `json:"reason,omitempty"`
	Stage     string        `json:"stage,omitempty"`
	Error     string        `json:"error,omitempty"`
	At        time.Time     `json:"at"`
	Duration  time.Duration `json:"duration_ns,omitempty"`
}

// Log is a bounded, concurrency-safe audit trail
type Log struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool

	w      io.Writer
	logger *slog.Logger

	writeErrors int
}

// Option configures a Log
type Option func(*Log)

// WithCapacity sets how many entries are retained in memory. Values below 1 use DefaultCapacity.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.entries = make([]Entry, n)
		}
	}
}

// WithWriter mirrors every entry as one JSON document per line to w
func WithWriter(w io.Writer) Option {
	return func(l *Log) {
		l.w = w
	}
}

// WithLogger sets the logger used to report write failures
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an audit Log
func New(opts ...Option) *Log {
	l := &Log{
		logger: tablefsm.Logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.entries == nil {
		l.entries = make([]Entry, DefaultCapacity)
	}
	return l
}

func (l *Log) OnAttempt(r tablefsm.Record) {
	e := Entry{
		ID:        r.ID,
		Kind:      KindAttempt,
		ModelID:   r.ModelID,
		Trigger:   string(r.Trigger),
		From:      string(r.From),
		To:        string(r.To),
		Permitted: r.Permitted,
		Outcome:   r.Outcome.String(),
		Reason:    r.Reason,
		Stage:     string(r.Stage),
		At:        r.Started,
		Duration:  r.Duration,
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	}
	l.append(e)
}

func (l *Log) OnMiss(m tablefsm.Miss) {
	l.append(Entry{
		ID:      uuid.NewString(),
		Kind:    KindMiss,
		ModelID: m.ModelID,
		Trigger: string(m.Trigger),
		From:    string(m.State),
		Outcome: tablefsm.OutcomeNotApplicable.String(),
		At:      m.At,
	})
}

func (l *Log) append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[l.next] = e
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}

	if l.w == nil {
		return
	}
	line, err := json.Marshal(e)
	if err == nil {
		line = append(line, '\n')
		_, err = l.w.Write(line)
	}
	if err != nil {
		l.writeErrors++
		l.logger.Error("failed to write audit entry", "id", e.ID, "error", err)
	}
}

// Entries returns the retained entries, oldest first
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

// ForModel returns the retained entries of one model, oldest first
func (l *Log) ForModel(modelID string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, e := range l.snapshot() {
		if e.ModelID == modelID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of retained entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return len(l.entries)
	}
	return l.next
}

// WriteErrors returns how many entries could not be written to the writer
func (l *Log) WriteErrors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeErrors
}

func (l *Log) snapshot() []Entry {
	if !l.full {
		out := make([]Entry, l.next)
		copy(out, l.entries[:l.next])
		return out
	}
	out := make([]Entry, 0, len(l.entries))
	out = append(out, l.entries[l.next:]...)
	out = append(out, l.entries[:l.next]...)
	return out
}
