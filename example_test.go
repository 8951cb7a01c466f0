package tablefsm_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/librescoot/tablefsm"
)

// Example: the idle/processing/error machine driven with SafeTrigger
func Example_trackedProcessing() {
	const (
		stateIdle       tablefsm.StateID = "idle"
		stateProcessing tablefsm.StateID = "processing"
		stateError      tablefsm.StateID = "error"

		trStart   tablefsm.TriggerID = "start"
		trFail    tablefsm.TriggerID = "fail"
		trReset   tablefsm.TriggerID = "reset"
		trProceed tablefsm.TriggerID = "proceed"
	)

	say := func(msg string) tablefsm.Hook {
		return func(c *tablefsm.Context) error {
			fmt.Println(msg)
			return nil
		}
	}

	def := tablefsm.NewDefinition().
		State(stateIdle,
			tablefsm.WithOnEnter(say("entered idle")),
			tablefsm.WithOnExit(say("exiting idle")),
		).
		State(stateProcessing,
			tablefsm.WithOnEnter(say("entered processing")),
			tablefsm.WithOnExit(say("exiting processing")),
		).
		State(stateError,
			tablefsm.WithOnEnter(say("entered error")),
			tablefsm.WithOnExit(say("exiting error")),
		).
		Transition(trStart, stateIdle, stateProcessing, tablefsm.WithBefore(say("processing started"))).
		Transition(trFail, stateProcessing, stateError, tablefsm.WithBefore(say("error occurred"))).
		Transition(trReset, stateError, stateIdle, tablefsm.WithBefore(say("resetting"))).
		Transition(trProceed, stateProcessing, stateProcessing,
			tablefsm.WithBefore(say("processing...")),
			tablefsm.WithGuard(tablefsm.Cond(func(c *tablefsm.Context) bool { return true })),
		).
		Initial(stateIdle)

	m, _ := def.Build(
		tablefsm.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))),
		tablefsm.WithObserver(tablefsm.NopObserver{}),
	)
	model, _ := m.NewModel()

	ctx := context.Background()
	for _, trigger := range []tablefsm.TriggerID{trStart, trProceed, trFail, trReset, trProceed, trFail} {
		ok, _ := m.SafeTrigger(ctx, model, trigger, nil)
		fmt.Printf("%s -> %s (%v)\n", trigger, model.State(), ok)
	}

	// Output:
	// processing started
	// exiting idle
	// entered processing
	// start -> processing (true)
	// processing...
	// proceed -> processing (true)
	// error occurred
	// exiting processing
	// entered error
	// fail -> error (true)
	// resetting
	// exiting error
	// entered idle
	// reset -> idle (true)
	// proceed -> idle (false)
	// fail -> idle (false)
}

// Example: strict firing distinguishes refusals from misses
func Example_strictFire() {
	const (
		draft     tablefsm.StateID   = "draft"
		published tablefsm.StateID   = "published"
		publish   tablefsm.TriggerID = "publish"
	)

	type article struct{ Reviewed bool }

	m := tablefsm.NewDefinition().
		State(draft).
		State(published).
		Transition(publish, draft, published,
			tablefsm.WithGuard(tablefsm.Cond(func(c *tablefsm.Context) bool {
				return c.ModelData().(*article).Reviewed
			})),
		).
		Initial(draft).
		MustBuild(tablefsm.WithObserver(tablefsm.NopObserver{}))

	doc := &article{}
	model, _ := m.NewModel(tablefsm.WithModelData(doc))
	ctx := context.Background()

	err := m.Fire(ctx, model, publish, nil)
	fmt.Println("refused:", tablefsm.IsRefused(err))

	doc.Reviewed = true
	err = m.Fire(ctx, model, publish, nil)
	fmt.Println("published:", err == nil, model.State())

	err = m.Fire(ctx, model, publish, nil)
	fmt.Println("no transition:", tablefsm.IsNoTransition(err))

	// Output:
	// refused: true
	// published: true published
	// no transition: true
}
