package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// trail parses the run table into "trigger state permitted" rows per model
func trail(t *testing.T, out string) map[string][]string {
	t.Helper()
	rows := map[string][]string{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 4 || fields[0] == "MODEL" || !strings.HasPrefix(fields[0], "model-") {
			continue
		}
		rows[fields[0]] = append(rows[fields[0]], strings.Join(fields[1:], " "))
	}
	require.NoError(t, scanner.Err())
	return rows
}

func TestRunDefaultScenario(t *testing.T) {
	out, logs, err := execute(t, "run")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start processing true",
		"proceed processing true",
		"fail error true",
		"reset idle true",
		"proceed idle false",
		"fail idle false",
	}, trail(t, out)["model-1"])
	assert.Contains(t, logs, "trigger lost in state")
	assert.Contains(t, logs, "on_enter_processing")
}

func TestRunDeniedGuard(t *testing.T) {
	out, _, err := execute(t, "run", "--deny", "can_proceed", "start", "proceed")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start processing true",
		"proceed processing false",
	}, trail(t, out)["model-1"])
}

func TestRunManyModelsWithMetrics(t *testing.T) {
	out, _, err := execute(t, "run", "--models", "3", "--metrics")
	require.NoError(t, err)

	rows := trail(t, out)
	require.Len(t, rows, 3)
	for id, steps := range rows {
		assert.Len(t, steps, 6, id)
		assert.Equal(t, "fail idle false", steps[5], id)
	}
	assert.Contains(t, out, `tablefsm_machine_transition_attempts_total{from="idle",outcome="permitted",to="processing",trigger="start"} 3`)
	assert.Contains(t, out, `tablefsm_machine_trigger_misses_total{state="idle",trigger="fail"} 3`)
}

func TestRunWritesAuditFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	_, _, err := execute(t, "run", "--audit-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[4], `"kind":"miss"`)
}

func TestRunCustomTableNeedsTriggers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial: a\nstates:\n  - name: a\n"), 0o600))

	_, _, err := execute(t, "run", "--table", path)
	assert.Error(t, err)
}

func TestTriggersCmd(t *testing.T) {
	out, _, err := execute(t, "triggers", "processing")
	require.NoError(t, err)
	assert.Equal(t, "fail -> error (guards: 0)\nproceed -> processing (guards: 1)\n", out)

	_, _, err = execute(t, "triggers", "nowhere")
	assert.Error(t, err)
}

func TestDotCmd(t *testing.T) {
	out, _, err := execute(t, "dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph fsm {"))
	assert.Contains(t, out, `"error" -> "idle" [label="reset"];`)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TABLEFSM_MODELS", "4")
	t.Setenv("TABLEFSM_DENY", "a,b")
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Models)
	assert.Equal(t, []string{"a", "b"}, cfg.Deny)
	assert.Equal(t, "info", cfg.LogLevel)

	t.Setenv("TABLEFSM_MODELS", "0")
	_, err = loadConfig("")
	assert.ErrorIs(t, err, errInvalidConfig)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger(&bytes.Buffer{}, "xml", "info")
	assert.ErrorIs(t, err, errInvalidConfig)

	_, err = newLogger(&bytes.Buffer{}, "json", "loud")
	assert.ErrorIs(t, err, errInvalidConfig)

	var buf bytes.Buffer
	logger, err := newLogger(&buf, "json", "warn")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
