package harness

import (
	"github.com/roach88/verdict/internal/clock"
)

// Test is one registered conformance test and its lifecycle controller.
//
// State machine: pending → running → {passed, failed, timed_out}.
// Terminal states are absorbing: a test transitions to a terminal state
// at most once, and no assertion may be recorded afterwards.
//
// A Test is created by Registry.Register, mutated only through its own
// methods, and reported to its registry exactly once, on the terminal
// transition.
type Test struct {
	name     string
	registry *Registry
	state    State
	results  []AssertionResult

	sched    *clock.Scheduler
	deadline clock.Handle
	armed    bool
}

// Name returns the test's unique name.
func (t *Test) Name() string {
	return t.name
}

// State returns the current lifecycle state.
func (t *Test) State() State {
	return t.state
}

// Terminal reports whether the test has concluded.
func (t *Test) Terminal() bool {
	return t.state.Terminal()
}

// Start moves the test from pending to running.
// Starting an already-running test is a no-op; starting a terminal test
// is an invalid-state error.
func (t *Test) Start() error {
	switch {
	case t.state == StateRunning:
		return nil
	case t.Terminal():
		return newInvalidState(t.name, "start on terminal test")
	}
	t.state = StateRunning
	return nil
}

// Done concludes the test: passed if no failing result was ever
// recorded, failed otherwise. A second Done, or Done before Start, is an
// invalid-state error.
func (t *Test) Done() error {
	if t.Terminal() {
		return newInvalidState(t.name, "done on terminal test")
	}
	if t.state != StateRunning {
		return newInvalidState(t.name, "done before start")
	}

	final := StatePassed
	if t.hasFailure() {
		final = StateFailed
	}
	t.finalize(final)
	return nil
}

// Fail records a failing assertion result. It does not change state:
// failure is only realized at Done or timeout. Recording against a
// terminal test is an invalid-state error.
func (t *Test) Fail(r AssertionResult) error {
	r.Pass = false
	return t.record(r)
}

// Results returns a copy of all recorded assertion results, in
// recording order.
func (t *Test) Results() []AssertionResult {
	out := make([]AssertionResult, len(t.results))
	copy(out, t.results)
	return out
}

// record appends an assertion result, stamping it with the registry
// clock if the caller didn't.
func (t *Test) record(r AssertionResult) error {
	if t.Terminal() {
		return newInvalidState(t.name, "assertion recorded on terminal test")
	}
	if r.Seq == 0 {
		r.Seq = t.registry.clk.Next()
	}
	t.results = append(t.results, r)
	return nil
}

func (t *Test) hasFailure() bool {
	for _, r := range t.results {
		if !r.Pass {
			return true
		}
	}
	return false
}

// timeoutFire is the deadline callback. A test still pending or running
// when its deadline elapses is forced to timed_out; all recorded results
// travel with the verdict as the failure reason. Late firings against a
// terminal test are inert (the deadline is cancelled on finalize, but a
// callback already dispatched must still guard).
func (t *Test) timeoutFire() {
	if t.Terminal() {
		return
	}
	t.results = append(t.results, AssertionResult{
		Predicate: PredicateTimeout,
		Message:   "test did not conclude before its deadline",
		Pass:      false,
		Seq:       t.registry.clk.Next(),
	})
	t.finalize(StateTimedOut)
}

// finalize performs the single terminal transition: cancels the pending
// deadline and reports the verdict to the registry exactly once.
func (t *Test) finalize(final State) {
	t.state = final
	if t.armed {
		t.sched.Cancel(t.deadline)
		t.armed = false
	}
	t.registry.report(t)
}

// armDeadline schedules the per-test timeout on sched.
func (t *Test) armDeadline(sched *clock.Scheduler, timeout int64) {
	t.sched = sched
	t.deadline = sched.Schedule(timeout, t.timeoutFire)
	t.armed = true
}
