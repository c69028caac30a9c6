// Package scenario loads declarative conformance fixtures and executes
// them deterministically against the harness.
//
// A scenario file (YAML) defines async tests as timelines: steps that
// fire at logical times (start, set, emit, assert, done) plus event
// listeners on named entities. Files are decoded strictly, validated
// against an embedded CUE schema, and then structurally checked, so a
// typo fails loudly at load time instead of silently altering a run.
//
// The runner binds each scenario onto a fresh registry and scheduler,
// drains the timeline under a callback budget, and produces a Result:
// per-test verdicts, a canonical event trace, its digest, and records
// ready for the run log. Identical scenario files always produce
// byte-identical traces.
package scenario
