package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadRun retrieves a complete run record by token.
// Returns sql.ErrNoRows if the run is unknown.
//
// Per-test order follows registration position; assertions are ordered
// by logical seq. No wall-clock ordering anywhere, so reads are
// identical across machines.
func (s *Store) ReadRun(ctx context.Context, token string) (RunRecord, error) {
	var run RunRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT token, scenario, digest, passed, failed, timed_out, total
		FROM runs WHERE token = ?
	`, token).Scan(
		&run.Token,
		&run.Scenario,
		&run.Digest,
		&run.Passed,
		&run.Failed,
		&run.TimedOut,
		&run.Total,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("read run %q: %w", token, err)
	}

	tests, err := s.readRunTests(ctx, token)
	if err != nil {
		return RunRecord{}, err
	}
	run.Tests = tests
	return run, nil
}

// readRunTests returns a run's per-test verdicts with their assertions.
func (s *Store) readRunTests(ctx context.Context, token string) ([]TestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, name, state, timed_out
		FROM run_tests
		WHERE run_token = ?
		ORDER BY position ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read run tests %q: %w", token, err)
	}
	defer rows.Close()

	tests := []TestRecord{}
	for rows.Next() {
		var t TestRecord
		if err := rows.Scan(&t.Position, &t.Name, &t.State, &t.TimedOut); err != nil {
			return nil, fmt.Errorf("scan run test: %w", err)
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read run tests %q: %w", token, err)
	}

	for i := range tests {
		assertions, err := s.readAssertions(ctx, token, tests[i].Name)
		if err != nil {
			return nil, err
		}
		tests[i].Assertions = assertions
	}
	return tests, nil
}

// readAssertions returns one test's assertion results ordered by seq.
func (s *Store) readAssertions(ctx context.Context, token, testName string) ([]AssertionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, predicate, message, pass
		FROM run_assertions
		WHERE run_token = ? AND test_name = ?
		ORDER BY seq ASC
	`, token, testName)
	if err != nil {
		return nil, fmt.Errorf("read assertions (%q, %q): %w", token, testName, err)
	}
	defer rows.Close()

	out := []AssertionRecord{}
	for rows.Next() {
		var a AssertionRecord
		if err := rows.Scan(&a.Seq, &a.Predicate, &a.Message, &a.Pass); err != nil {
			return nil, fmt.Errorf("scan assertion: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read assertions (%q, %q): %w", token, testName, err)
	}
	return out, nil
}

// ListRuns returns all recorded runs without their per-test detail,
// in insertion order.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, scenario, digest, passed, failed, timed_out, total
		FROM runs
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.Token, &r.Scenario, &r.Digest, &r.Passed, &r.Failed, &r.TimedOut, &r.Total); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// HasRun reports whether a run token is already recorded.
func (s *Store) HasRun(ctx context.Context, token string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE token = ?`, token).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has run %q: %w", token, err)
	}
	return true, nil
}
