// Package store provides SQLite-backed durable storage for harness
// verdict logs.
//
// One row per run in runs, keyed by the run token (UUIDv7 in
// production, fixed tokens in deterministic tests) and carrying the
// content-addressed trace digest. Per-test verdicts live in run_tests,
// ordered by registration position; individual assertion results live
// in run_assertions, ordered by the run's logical seq.
//
// # Ordering
//
// All ordering uses logical seq numbers and insertion order, never
// timestamps. Reading a run back produces the same bytes on any
// machine, which keeps recorded history comparable across hosts.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run digests are computed in internal/trace using RFC 8785 canonical
// JSON and SHA-256 with domain separation.
package store
