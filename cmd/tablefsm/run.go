package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/librescoot/tablefsm"
	"github.com/librescoot/tablefsm/audit"
	"github.com/librescoot/tablefsm/metrics"
)

type runOptions struct {
	models    int
	deny      []string
	auditFile string
	metrics   bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [trigger...]",
		Short: "Fire triggers with SafeTrigger and print the state after each one",
		Long: `Fire triggers with SafeTrigger and print the state after each one.

Hooks named in the table log their name; guards pass unless listed with --deny.
Without a table and without triggers the built-in scenario is run:
start, proceed, fail, reset, proceed, fail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolve()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("models") {
				cfg.Models = opts.models
			}
			if flags.Changed("deny") {
				cfg.Deny = opts.deny
			}
			if flags.Changed("audit-file") {
				cfg.AuditFile = opts.auditFile
			}
			if flags.Changed("metrics") {
				cfg.Metrics = opts.metrics
			}
			return runSequence(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.models, "models", "n", 1, "number of independent models driven in parallel")
	flags.StringSliceVar(&opts.deny, "deny", nil, "guard names that refuse")
	flags.StringVar(&opts.auditFile, "audit-file", "", "append a JSON-lines audit trail to this file")
	flags.BoolVar(&opts.metrics, "metrics", false, "print Prometheus metrics after the run")

	return cmd
}

type step struct {
	trigger string
	state   tablefsm.StateID
	ok      bool
}

func runSequence(ctx context.Context, out, errOut io.Writer, cfg Config, triggers []string) error {
	if cfg.Models < 1 {
		return fmt.Errorf("%w: need at least one model", errInvalidConfig)
	}

	logger, err := newLogger(errOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	table, err := readTable(cfg.Table)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		if cfg.Table != "" {
			return errors.New("no triggers given")
		}
		triggers = defaultSequence
	}

	def, err := table.Definition(logBindings(table, cfg.Deny, logger))
	if err != nil {
		return err
	}

	observers := []tablefsm.Observer{tablefsm.NewLogObserver(logger)}

	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		observers = append(observers, metrics.New(reg))
	}

	if cfg.AuditFile != "" {
		f, err := os.OpenFile(cfg.AuditFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open audit file: %w", err)
		}
		defer f.Close()
		observers = append(observers, audit.New(audit.WithWriter(f), audit.WithLogger(logger)))
	}

	m, err := def.Build(
		tablefsm.WithLogger(logger),
		tablefsm.WithObserver(tablefsm.Observers(observers...)),
	)
	if err != nil {
		return err
	}

	models := make([]*tablefsm.Model, cfg.Models)
	for i := range models {
		models[i], err = m.NewModel(tablefsm.WithModelID(fmt.Sprintf("model-%d", i+1)))
		if err != nil {
			return err
		}
	}

	trails := make([][]step, len(models))
	g, gctx := errgroup.WithContext(ctx)
	for i, model := range models {
		i, model := i, model
		g.Go(func() error {
			for _, trigger := range triggers {
				if err := gctx.Err(); err != nil {
					return err
				}
				ok, err := m.SafeTrigger(gctx, model, tablefsm.TriggerID(trigger), nil)
				if err != nil {
					return fmt.Errorf("model %s: %w", model.ID(), err)
				}
				trails[i] = append(trails[i], step{trigger: trigger, state: model.State(), ok: ok})
			}
			return nil
		})
	}
	runErr := g.Wait()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tTRIGGER\tSTATE\tPERMITTED")
	for i, trail := range trails {
		for _, s := range trail {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", models[i].ID(), s.trigger, s.state, s.ok)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if reg != nil {
		if err := writeMetrics(out, reg); err != nil {
			return err
		}
	}

	return runErr
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
