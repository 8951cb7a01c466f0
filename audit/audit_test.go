package audit_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/tablefsm"
	"github.com/librescoot/tablefsm/audit"
)

func newMachine(t *testing.T, log *audit.Log) *tablefsm.Machine {
	t.Helper()
	m, err := tablefsm.NewDefinition().
		State("idle").
		State("processing").
		State("error").
		Transition("start", "idle", "processing").
		Transition("fail", "processing", "error").
		Transition("reset", "error", "idle").
		Transition("proceed", "processing", "processing",
			tablefsm.WithGuard(func(*tablefsm.Context) (bool, error) { return false, errors.New("queue empty") }),
		).
		Initial("idle").
		Build(tablefsm.WithObserver(log))
	require.NoError(t, err)
	return m
}

func TestLogRecordsAttemptsAndMisses(t *testing.T) {
	var buf bytes.Buffer
	log := audit.New(audit.WithWriter(&buf))
	m := newMachine(t, log)

	model, err := m.NewModel(tablefsm.WithModelID("job-1"))
	require.NoError(t, err)
	ctx := context.Background()

	for _, trigger := range []tablefsm.TriggerID{"start", "proceed", "reset"} {
		_, err := m.SafeTrigger(ctx, model, trigger, nil)
		require.NoError(t, err)
	}

	entries := log.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, audit.KindAttempt, entries[0].Kind)
	assert.True(t, entries[0].Permitted)
	assert.Equal(t, "idle", entries[0].From)
	assert.Equal(t, "processing", entries[0].To)

	assert.Equal(t, audit.KindAttempt, entries[1].Kind)
	assert.False(t, entries[1].Permitted)
	assert.Equal(t, "refused", entries[1].Outcome)
	assert.Equal(t, "guard", entries[1].Stage)
	assert.Equal(t, "queue empty", entries[1].Error)

	assert.Equal(t, audit.KindMiss, entries[2].Kind)
	assert.Equal(t, "reset", entries[2].Trigger)
	assert.Equal(t, "processing", entries[2].From)
	assert.Equal(t, "not_applicable", entries[2].Outcome)
	assert.NotEmpty(t, entries[2].ID)

	scanner := bufio.NewScanner(&buf)
	var lines []audit.Entry
	for scanner.Scan() {
		var e audit.Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		lines = append(lines, e)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 3)
	assert.Equal(t, entries[0].ID, lines[0].ID)
	assert.Equal(t, "job-1", lines[2].ModelID)
}

func TestLogIsBounded(t *testing.T) {
	log := audit.New(audit.WithCapacity(3))

	for i := 0; i < 5; i++ {
		log.OnMiss(tablefsm.Miss{ModelID: "m", Trigger: tablefsm.TriggerID(fmt.Sprintf("t%d", i)), State: "idle"})
	}

	assert.Equal(t, 3, log.Len())
	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "t2", entries[0].Trigger)
	assert.Equal(t, "t3", entries[1].Trigger)
	assert.Equal(t, "t4", entries[2].Trigger)
}

func TestForModel(t *testing.T) {
	log := audit.New()
	m := newMachine(t, log)
	ctx := context.Background()

	a, err := m.NewModel(tablefsm.WithModelID("a"))
	require.NoError(t, err)
	b, err := m.NewModel(tablefsm.WithModelID("b"))
	require.NoError(t, err)

	require.NoError(t, m.Fire(ctx, a, "start", nil))
	require.NoError(t, m.Fire(ctx, b, "start", nil))
	require.NoError(t, m.Fire(ctx, a, "fail", nil))

	assert.Len(t, log.ForModel("a"), 2)
	assert.Len(t, log.ForModel("b"), 1)
	assert.Empty(t, log.ForModel("c"))
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestWriteFailuresDoNotAffectMachine(t *testing.T) {
	log := audit.New(audit.WithWriter(brokenWriter{}))
	m := newMachine(t, log)

	model, err := m.NewModel()
	require.NoError(t, err)

	ok, err := m.SafeTrigger(context.Background(), model, "start", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tablefsm.StateID("processing"), model.State())
	assert.Equal(t, 1, log.WriteErrors())
	assert.Equal(t, 1, log.Len())
}
