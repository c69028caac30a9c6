package store

// RunRecord is one recorded harness run: its identity, scenario,
// content-addressed trace digest, aggregate counts, and per-test
// verdicts.
type RunRecord struct {
	Token    string
	Scenario string
	Digest   string
	Passed   int
	Failed   int
	TimedOut int
	Total    int
	Tests    []TestRecord
}

// TestRecord is one test's verdict within a run.
// Position preserves registration order.
type TestRecord struct {
	Position   int
	Name       string
	State      string
	TimedOut   bool
	Assertions []AssertionRecord
}

// AssertionRecord is one recorded assertion result.
// Seq is the run's logical clock stamp: unique within a run and the
// only ordering key used when reading back.
type AssertionRecord struct {
	Seq       int64
	Predicate string
	Message   string
	Pass      bool
}
