package harness

// Predicate names for recorded assertion results.
const (
	PredicateAssertTrue  = "assert_true"
	PredicateAssertFalse = "assert_false"
	PredicateStepPanic   = "step_panic"
	PredicateTimeout     = "timeout"
)

// AssertionResult records one evaluated predicate.
// Immutable once created; owned by the test that produced it.
type AssertionResult struct {
	// Predicate names the assertion kind (e.g. "assert_false").
	Predicate string `json:"predicate"`

	// Message is the human explanation supplied at the call site.
	Message string `json:"message"`

	// Pass is the predicate outcome. A test with any Pass=false result
	// finalizes as failed.
	Pass bool `json:"pass"`

	// Seq is the logical clock stamp, giving results a deterministic
	// total order across all tests of one run.
	Seq int64 `json:"seq"`
}

// State is a test lifecycle state.
type State string

const (
	StatePending  State = "pending"
	StateRunning  State = "running"
	StatePassed   State = "passed"
	StateFailed   State = "failed"
	StateTimedOut State = "timed_out"
)

// Terminal reports whether the state is absorbing: once reached, no
// further mutation of the test is permitted.
func (s State) Terminal() bool {
	switch s {
	case StatePassed, StateFailed, StateTimedOut:
		return true
	}
	return false
}
