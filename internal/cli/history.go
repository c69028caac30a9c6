package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/verdict/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Scenario string // optional - filter to one scenario name
}

// HistoryEntry is one recorded run in the listing.
type HistoryEntry struct {
	Token    string `json:"token"`
	Scenario string `json:"scenario"`
	Digest   string `json:"digest"`
	Passed   int    `json:"passed"`
	Failed   int    `json:"failed"`
	TimedOut int    `json:"timed_out"`
	Total    int    `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded in a run log, in recording order.

Each entry shows the run token, the scenario it ran, its trace digest,
and the verdict counts. Identical digests across runs of the same
scenario confirm deterministic behavior.

Examples:
  verdict history --db ./verdict.db
  verdict history --db ./verdict.db --scenario transition-cancel
  verdict history --db ./verdict.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "filter to one scenario name")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for _, run := range runs {
		if opts.Scenario != "" && run.Scenario != opts.Scenario {
			continue
		}
		entries = append(entries, HistoryEntry{
			Token:    run.Token,
			Scenario: run.Scenario,
			Digest:   run.Digest,
			Passed:   run.Passed,
			Failed:   run.Failed,
			TimedOut: run.TimedOut,
			Total:    run.Total,
		})
	}

	if opts.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: entries})
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, e := range entries {
		marker := "✓"
		if e.Failed > 0 {
			marker = "✗"
		}
		fmt.Fprintf(w, "%s %s  %s  %d/%d passed  digest=%s\n", marker, e.Token, e.Scenario, e.Passed, e.Total, shortDigest(e.Digest))
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(entries))
	return nil
}

// shortDigest trims a hex digest for the text listing.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
