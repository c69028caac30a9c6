package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a complete run record in one transaction.
//
// Idempotent on the run token: writing a run whose token already exists
// is silently ignored, children included. Other constraint violations
// (NOT NULL, duplicate positions within the same new run) still return
// errors.
func (s *Store) WriteRun(ctx context.Context, run RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (token, scenario, digest, passed, failed, timed_out, total)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Scenario,
		run.Digest,
		run.Passed,
		run.Failed,
		run.TimedOut,
		run.Total,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if inserted == 0 {
		// Run already recorded; keep the original rows untouched.
		return nil
	}

	for _, test := range run.Tests {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_tests (run_token, position, name, state, timed_out)
			VALUES (?, ?, ?, ?, ?)
		`,
			run.Token,
			test.Position,
			test.Name,
			test.State,
			test.TimedOut,
		); err != nil {
			return fmt.Errorf("write run test %q: %w", test.Name, err)
		}

		for _, a := range test.Assertions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO run_assertions (run_token, test_name, seq, predicate, message, pass)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				run.Token,
				test.Name,
				a.Seq,
				a.Predicate,
				a.Message,
				a.Pass,
			); err != nil {
				return fmt.Errorf("write assertion (test %q, seq %d): %w", test.Name, a.Seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}
