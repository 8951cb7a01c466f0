package main

import (
	"bytes"
	_ "embed"
	"log/slog"
	"slices"

	"github.com/librescoot/tablefsm"
	"github.com/librescoot/tablefsm/loader"
)

//go:embed tracked.yaml
var defaultTable []byte

// defaultSequence exercises every transition of the built-in table and ends with two lost triggers
var defaultSequence = []string{"start", "proceed", "fail", "reset", "proceed", "fail"}

// readTable loads the table at path, or the built-in one when path is empty
func readTable(path string) (*loader.Table, error) {
	if path == "" {
		return loader.Load(bytes.NewReader(defaultTable))
	}
	return loader.LoadFile(path)
}

// logBindings binds every hook named in the table to a log line and every guard
// to a constant verdict: false for names in deny, true otherwise
func logBindings(t *loader.Table, deny []string, logger *slog.Logger) loader.Bindings {
	b := loader.Bindings{
		Hooks:  make(map[string]tablefsm.Hook),
		Guards: make(map[string]tablefsm.Guard),
	}

	addHooks := func(names loader.Names) {
		for _, name := range names {
			name := name
			b.Hooks[name] = func(c *tablefsm.Context) error {
				logger.Info("hook", "name", name, "model", c.Model.ID(), "trigger", c.Trigger, "state", c.CurrentState())
				return nil
			}
		}
	}
	addGuards := func(names loader.Names) {
		for _, name := range names {
			verdict := !slices.Contains(deny, name)
			b.Guards[name] = tablefsm.Cond(func(*tablefsm.Context) bool { return verdict })
		}
	}

	for _, s := range t.States {
		addHooks(s.OnEnter)
		addHooks(s.OnExit)
	}
	for _, tr := range t.Transitions {
		addHooks(tr.Before)
		addHooks(tr.After)
		addGuards(tr.Conditions)
		addGuards(tr.Unless)
	}
	return b
}
