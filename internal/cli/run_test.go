package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/verdict/internal/store"
)

const passingScenarioYAML = `name: quiet-box
description: the watched event never fires
tests:
  - name: stays-quiet
    listeners:
      - target: box
        event: transitionend
        sets:
          - flag: ended
            value: true
    steps:
      - at: 0
        start: true
      - at: 1000
        assert:
          predicate: flag_false
          flag: ended
          message: transitionend fired unexpectedly
      - at: 2000
        done: true
`

const failingScenarioYAML = `name: noisy-box
description: the watched event fires and fails the test
tests:
  - name: goes-noisy
    listeners:
      - target: box
        event: transitionend
        sets:
          - flag: ended
            value: true
    steps:
      - at: 0
        start: true
      - at: 500
        emit:
          target: box
          event: transitionend
      - at: 1000
        assert:
          predicate: flag_false
          flag: ended
          message: transitionend fired unexpectedly
      - at: 2000
        done: true
`

// writeScenarioDir creates a temp directory holding the given scenario
// files, keyed by filename.
func writeScenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestRunCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunCommandNonExistentDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommandEmptyDir(t *testing.T) {
	dir := t.TempDir()

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestRunCommandAllPassing(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"quiet.yaml": passingScenarioYAML})

	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ quiet-box")
	assert.Contains(t, buf.String(), "1 passed, 0 failed, 1 total")
	assert.Contains(t, buf.String(), "All scenarios passed")
}

func TestRunCommandFailureExitsOne(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"noisy.yaml": failingScenarioYAML})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "✗ noisy-box")
	assert.Contains(t, buf.String(), "transitionend fired unexpectedly")
}

func TestRunCommandFilter(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{
		"quiet.yaml": passingScenarioYAML,
		"noisy.yaml": failingScenarioYAML,
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--filter", "quiet"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "quiet-box")
	assert.NotContains(t, buf.String(), "noisy-box")
}

func TestRunCommandJSON(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"quiet.yaml": passingScenarioYAML})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var report RunReport
	require.NoError(t, json.Unmarshal(payload, &report))
	require.Len(t, report.Scenarios, 1)
	assert.Equal(t, "quiet-box", report.Scenarios[0].Name)
	assert.True(t, report.Scenarios[0].Pass)
	assert.NotEmpty(t, report.Scenarios[0].Digest)
}

func TestRunCommandInvalidScenarioFails(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"broken.yaml": "name: broken\ntests: []\n"})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Load error")
}

func TestRunCommandRecordsToStore(t *testing.T) {
	dir := writeScenarioDir(t, map[string]string{"quiet.yaml": passingScenarioYAML})
	dbPath := filepath.Join(t.TempDir(), "verdict.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "quiet-box", runs[0].Scenario)
	assert.Equal(t, 1, runs[0].Passed)
	assert.Equal(t, 0, runs[0].Failed)
	assert.NotEmpty(t, runs[0].Digest)
	assert.NotEmpty(t, runs[0].Token)

	full, err := st.ReadRun(context.Background(), runs[0].Token)
	require.NoError(t, err)
	require.Len(t, full.Tests, 1)
	assert.Equal(t, "stays-quiet", full.Tests[0].Name)
	assert.Equal(t, "passed", full.Tests[0].State)
	require.Len(t, full.Tests[0].Assertions, 1)
	assert.True(t, full.Tests[0].Assertions[0].Pass)
}

func TestRunCommandTimeoutOverride(t *testing.T) {
	// With the deadline pulled below the done step's fire time, the
	// otherwise-passing scenario times out.
	dir := writeScenarioDir(t, map[string]string{"quiet.yaml": passingScenarioYAML})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--timeout", "100"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
