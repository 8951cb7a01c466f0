// Package loader builds tablefsm definitions from a declarative YAML table.
//
// Hooks and guards are referenced by name in the table and resolved against
// a Bindings set once, while the definition is built. Dispatch never looks a
// name up again.
//
//	initial: idle
//	states:
//	  - name: idle
//	    on_enter: log_idle
//	    on_exit: [flush, log_leave]
//	transitions:
//	  - trigger: proceed
//	    source: processing
//	    dest: processing
//	    before: on_proceed
//	    conditions: can_proceed
//	    unless: [is_paused]
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/librescoot/tablefsm"
)

// ErrUnknownBinding is returned when a table references a hook or guard that is not bound
var ErrUnknownBinding = errors.New("unknown binding")

// Table is the parsed YAML form of a state machine
type Table struct {
	Initial     string           `yaml:"initial"`
	States      []StateSpec      `yaml:"states"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

// StateSpec declares one state and its hooks by name
type StateSpec struct {
	Name    string `yaml:"name"`
	OnEnter Names  `yaml:"on_enter"`
	OnExit  Names  `yaml:"on_exit"`
}

// TransitionSpec declares a transition. Source may list several states, which
// registers one transition per source.
type TransitionSpec struct {
	Trigger    string `yaml:"trigger"`
	Source     Names  `yaml:"source"`
	Dest       string `yaml:"dest"`
	Before     Names  `yaml:"before"`
	After      Names  `yaml:"after"`
	Conditions Names  `yaml:"conditions"`
	Unless     Names  `yaml:"unless"`
}

// Names accepts either a single scalar or a sequence of scalars
type Names []string

func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			*n = nil
			return nil
		}
		*n = Names{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*n = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a name or a list of names", node.Line)
	}
}

// Bindings maps the names used in a table to Go functions
type Bindings struct {
	Hooks  map[string]tablefsm.Hook
	Guards map[string]tablefsm.Guard
}

// Parse decodes a YAML table. Unknown keys are rejected.
func Parse(data []byte) (*Table, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes a YAML table from r. Unknown keys are rejected.
func Load(r io.Reader) (*Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	return &t, nil
}

// LoadFile decodes the YAML table at path
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Definition registers the table's states and transitions on a new
// tablefsm.Definition, binding every name through b. The first configuration
// or binding error is returned.
func (t *Table) Definition(b Bindings) (*tablefsm.Definition, error) {
	d := tablefsm.NewDefinition()

	for _, s := range t.States {
		onEnter, err := b.hook(s.OnEnter)
		if err != nil {
			return nil, fmt.Errorf("state %q on_enter: %w", s.Name, err)
		}
		onExit, err := b.hook(s.OnExit)
		if err != nil {
			return nil, fmt.Errorf("state %q on_exit: %w", s.Name, err)
		}

		var opts []tablefsm.StateOption
		if onEnter != nil {
			opts = append(opts, tablefsm.WithOnEnter(onEnter))
		}
		if onExit != nil {
			opts = append(opts, tablefsm.WithOnExit(onExit))
		}
		if err := d.AddState(tablefsm.StateID(s.Name), opts...); err != nil {
			return nil, err
		}
	}

	for i, tr := range t.Transitions {
		opts, err := b.transitionOptions(tr)
		if err != nil {
			return nil, fmt.Errorf("transition[%d] %q: %w", i, tr.Trigger, err)
		}
		if len(tr.Source) == 0 {
			return nil, fmt.Errorf("transition[%d] %q: no source state", i, tr.Trigger)
		}
		for _, src := range tr.Source {
			err := d.AddTransition(tablefsm.TriggerID(tr.Trigger), tablefsm.StateID(src), tablefsm.StateID(tr.Dest), opts...)
			if err != nil {
				return nil, fmt.Errorf("transition[%d]: %w", i, err)
			}
		}
	}

	if t.Initial != "" {
		d.Initial(tablefsm.StateID(t.Initial))
	}

	return d, d.Validate()
}

func (b Bindings) transitionOptions(tr TransitionSpec) ([]tablefsm.TransitionOption, error) {
	var opts []tablefsm.TransitionOption

	before, err := b.hook(tr.Before)
	if err != nil {
		return nil, fmt.Errorf("before: %w", err)
	}
	if before != nil {
		opts = append(opts, tablefsm.WithBefore(before))
	}

	after, err := b.hook(tr.After)
	if err != nil {
		return nil, fmt.Errorf("after: %w", err)
	}
	if after != nil {
		opts = append(opts, tablefsm.WithAfter(after))
	}

	for _, name := range tr.Conditions {
		g, ok := b.Guards[name]
		if !ok {
			return nil, fmt.Errorf("conditions: %w: guard %q", ErrUnknownBinding, name)
		}
		opts = append(opts, tablefsm.WithGuard(g))
	}
	for _, name := range tr.Unless {
		g, ok := b.Guards[name]
		if !ok {
			return nil, fmt.Errorf("unless: %w: guard %q", ErrUnknownBinding, name)
		}
		opts = append(opts, tablefsm.WithGuard(negate(g)))
	}

	return opts, nil
}

// hook resolves names into a single hook running them in order; nil when names is empty
func (b Bindings) hook(names Names) (tablefsm.Hook, error) {
	if len(names) == 0 {
		return nil, nil
	}
	hooks := make([]tablefsm.Hook, 0, len(names))
	for _, name := range names {
		h, ok := b.Hooks[name]
		if !ok {
			return nil, fmt.Errorf("%w: hook %q", ErrUnknownBinding, name)
		}
		hooks = append(hooks, h)
	}
	if len(hooks) == 1 {
		return hooks[0], nil
	}
	return func(c *tablefsm.Context) error {
		for _, h := range hooks {
			if err := h(c); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func negate(g tablefsm.Guard) tablefsm.Guard {
	return func(c *tablefsm.Context) (bool, error) {
		ok, err := g(c)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}
