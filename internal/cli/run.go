package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/scenario"
	"github.com/roach88/verdict/internal/store"
	"github.com/roach88/verdict/internal/testutil"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Filter   string
	Timeout  int64

	// TokenGenerator allows overriding the run token generator (for
	// testing). If nil, defaults to UUIDv7Generator.
	TokenGenerator testutil.TokenGenerator
}

// ScenarioOutcome holds the outcome of a single scenario execution.
type ScenarioOutcome struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Token    string   `json:"token,omitempty"`
	Digest   string   `json:"digest,omitempty"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	TimedOut int      `json:"timed_out"`
	Errors   []string `json:"errors,omitempty"`
}

// RunReport holds the overall run result across all scenarios.
type RunReport struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run every scenario file in a directory and report verdicts.

Each scenario executes on its own logical scheduler; the wall clock is
never consulted, so results and traces are identical across machines.
With --db, each run is recorded in a SQLite run log under a fresh
run token.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  verdict run ./scenarios
  verdict run ./scenarios --filter "transition-*"
  verdict run ./scenarios --db ./verdict.db
  verdict run ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (optional)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().Int64Var(&opts.Timeout, "timeout", 0, "override per-test deadline in logical units")

	return cmd
}

func runScenarios(opts *RunOptions, scenariosDir string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(files) == 0 {
		if opts.Format == "json" {
			return outputRunJSON(cmd, RunReport{Scenarios: []ScenarioOutcome{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	// Open the run log if requested
	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open run log", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing run log", "error", closeErr)
			}
		}()
	}

	tokenGen := opts.TokenGenerator
	if tokenGen == nil {
		tokenGen = testutil.NewUUIDv7Generator()
	}

	// Use the command's context if available (for testing).
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report := RunReport{
		Scenarios: make([]ScenarioOutcome, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		outcome := runOneScenario(ctx, file, opts, st, tokenGen, logger, cmd)
		report.Scenarios = append(report.Scenarios, outcome)
		if outcome.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, report)
	}
	return outputRunText(cmd, report)
}

// runOneScenario executes one scenario file, optionally recording the
// run, and returns its outcome.
func runOneScenario(ctx context.Context, file string, opts *RunOptions, st *store.Store, tokenGen testutil.TokenGenerator, logger *slog.Logger, cmd *cobra.Command) ScenarioOutcome {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	sc, err := scenario.LoadScenario(file)
	if err != nil {
		if text {
			fmt.Fprintf(w, "✗ %s\n", filepath.Base(file))
			fmt.Fprintf(w, "  Load error: %v\n", err)
		}
		return ScenarioOutcome{
			Name:   filepath.Base(file),
			Pass:   false,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}
	if opts.Timeout > 0 {
		sc.Timeout = opts.Timeout
	}

	result, err := scenario.RunWithLogger(sc, logger)
	if err != nil {
		if text {
			fmt.Fprintf(w, "✗ %s\n", sc.Name)
			fmt.Fprintf(w, "  Execution error: %v\n", err)
		}
		return ScenarioOutcome{
			Name:   sc.Name,
			Pass:   false,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	outcome := ScenarioOutcome{
		Name:     sc.Name,
		Pass:     result.Pass(),
		Digest:   result.Digest,
		Passed:   result.Summary.Passed,
		Failed:   result.Summary.Failed,
		TimedOut: result.Summary.TimedOut,
		Errors:   result.Errors,
	}
	for _, v := range result.Summary.Verdicts {
		if !v.Pass() && v.FirstMessage() != "" {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %s", v.Name, v.FirstMessage()))
		}
	}

	if st != nil {
		token := tokenGen.Generate()
		rec := store.RunRecord{
			Token:    token,
			Scenario: result.Scenario,
			Digest:   result.Digest,
			Passed:   result.Summary.Passed,
			Failed:   result.Summary.Failed,
			TimedOut: result.Summary.TimedOut,
			Total:    result.Summary.Total,
			Tests:    result.Records,
		}
		if err := st.WriteRun(ctx, rec); err != nil {
			outcome.Pass = false
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("failed to record run: %v", err))
		} else {
			outcome.Token = token
			logger.Debug("run recorded", "scenario", sc.Name, "token", token, "digest", result.Digest)
		}
	}

	if text {
		if outcome.Pass {
			fmt.Fprintf(w, "✓ %s\n", sc.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", sc.Name)
			for _, e := range outcome.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}
	return outcome
}

// findScenarioFiles finds all YAML scenario files in a directory.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// outputRunJSON outputs the run report as JSON.
func outputRunJSON(cmd *cobra.Command, report RunReport) error {
	status := "ok"
	if report.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   report,
	}
	if report.Failed > 0 {
		response.Error = &CLIError{
			Code:    ErrCodeTestsFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", report.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// outputRunText outputs the run report as text.
func outputRunText(cmd *cobra.Command, report RunReport) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
