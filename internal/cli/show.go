package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-token>",
		Short: "Show one recorded run in full",
		Long: `Show a recorded run: per-test verdicts in registration order and
every assertion result in logical-clock order.

Examples:
  verdict show --db ./verdict.db 0190c3a8-...
  verdict show --db ./verdict.db 0190c3a8-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *ShowOptions, token string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run log not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", token))
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: run})
	}

	return outputShowText(cmd, run)
}

func outputShowText(cmd *cobra.Command, run store.RunRecord) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run %s\n", run.Token)
	fmt.Fprintf(w, "Scenario: %s\n", run.Scenario)
	fmt.Fprintf(w, "Digest:   %s\n", run.Digest)
	fmt.Fprintf(w, "Verdicts: %d passed, %d failed (%d timed out), %d total\n",
		run.Passed, run.Failed, run.TimedOut, run.Total)

	for _, tr := range run.Tests {
		marker := "✓"
		if tr.State != "passed" {
			marker = "✗"
		}
		fmt.Fprintf(w, "\n%s %s [%s]\n", marker, tr.Name, tr.State)
		for _, a := range tr.Assertions {
			status := "pass"
			if !a.Pass {
				status = "FAIL"
			}
			fmt.Fprintf(w, "  seq=%d %s %s: %s\n", a.Seq, status, a.Predicate, a.Message)
		}
	}
	return nil
}
