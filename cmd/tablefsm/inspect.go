package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/librescoot/tablefsm"
)

func newTriggersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "triggers <state>",
		Short: "List the triggers defined for a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := root.machine()
			if err != nil {
				return err
			}
			state := tablefsm.StateID(args[0])
			if !m.HasState(state) {
				return fmt.Errorf("%w: %q", tablefsm.ErrUnknownState, state)
			}
			for _, trigger := range m.TriggersFrom(state) {
				t, _ := m.Resolve(trigger, state)
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (guards: %d)\n", trigger, t.To, len(t.Guards))
			}
			return nil
		},
	}
}

func newDotCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dot",
		Short: "Print the table as a Graphviz digraph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := root.machine()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), m.DOT())
			return err
		},
	}
}

// machine builds the configured table with inert bindings, for inspection only
func (o *rootOptions) machine() (*tablefsm.Machine, error) {
	cfg, err := o.resolve()
	if err != nil {
		return nil, err
	}
	table, err := readTable(cfg.Table)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(io.Discard, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	def, err := table.Definition(logBindings(table, cfg.Deny, logger))
	if err != nil {
		return nil, err
	}
	return def.Build(tablefsm.WithLogger(logger), tablefsm.WithObserver(tablefsm.NopObserver{}))
}
