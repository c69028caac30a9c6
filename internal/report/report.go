// Package report defines the machine-readable summary a harness run
// produces: one verdict per registered test, in registration order, plus
// aggregate counts and the process exit code mapping.
package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// Exit codes for harness consumers.
const (
	ExitAllPassed = 0 // every test reached passed
	ExitFailures  = 1 // at least one test failed or timed out
)

// Verdict is the final outcome of one test: its terminal state plus any
// recorded failure messages.
type Verdict struct {
	Name     string   `json:"name"`
	State    string   `json:"state"` // "passed" | "failed" | "timed_out"
	Messages []string `json:"messages,omitempty"`
	TimedOut bool     `json:"timed_out,omitempty"`
}

// Pass reports whether this verdict counts as a pass.
func (v Verdict) Pass() bool {
	return v.State == "passed"
}

// FirstMessage returns the first recorded failure message, or "" if none.
// The text summary shows only the first failing assertion per test.
func (v Verdict) FirstMessage() string {
	if len(v.Messages) == 0 {
		return ""
	}
	return v.Messages[0]
}

// Summary aggregates the verdicts of one harness run.
// Verdicts keep registration order for deterministic output.
type Summary struct {
	Verdicts []Verdict `json:"verdicts"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	TimedOut int       `json:"timed_out"`
	Total    int       `json:"total"`
}

// NewSummary builds a Summary from ordered verdicts.
func NewSummary(verdicts []Verdict) Summary {
	s := Summary{
		Verdicts: verdicts,
		Total:    len(verdicts),
	}
	for _, v := range verdicts {
		switch {
		case v.Pass():
			s.Passed++
		case v.TimedOut:
			s.TimedOut++
			s.Failed++
		default:
			s.Failed++
		}
	}
	return s
}

// AllPassed reports whether every test reached the passed state.
func (s Summary) AllPassed() bool {
	return s.Failed == 0
}

// ExitCode maps the summary to a process exit code:
// 0 if all tests passed, 1 otherwise.
func (s Summary) ExitCode() int {
	if s.AllPassed() {
		return ExitAllPassed
	}
	return ExitFailures
}

// RenderJSON writes the summary as JSON.
func (s Summary) RenderJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// RenderText writes a human-readable summary: one line per test with a
// pass/fail marker, the first failing message for failures, and a
// trailing count line.
func (s Summary) RenderText(w io.Writer) error {
	for _, v := range s.Verdicts {
		marker := "✓"
		if !v.Pass() {
			marker = "✗"
		}
		if _, err := fmt.Fprintf(w, "%s %s (%s)\n", marker, v.Name, v.State); err != nil {
			return err
		}
		if !v.Pass() {
			if msg := v.FirstMessage(); msg != "" {
				if _, err := fmt.Fprintf(w, "  %s\n", msg); err != nil {
					return err
				}
			}
			if v.TimedOut {
				if _, err := fmt.Fprintln(w, "  (timed out)"); err != nil {
					return err
				}
			}
		}
	}

	_, err := fmt.Fprintf(w, "\n%d passed, %d failed (%d timed out), %d total\n",
		s.Passed, s.Failed, s.TimedOut, s.Total)
	return err
}
