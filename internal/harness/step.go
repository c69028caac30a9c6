package harness

import "fmt"

// Step is a scoped unit of test execution. It binds the assertion
// engine to one test for the duration of RunStep; outside that scope the
// step is released and asserting through it is a no-context error.
type Step struct {
	test *Test
	open bool
}

// RunStep executes work inside a step context attributed to t.
//
// Guarantees:
//   - Guaranteed release: control always returns to the caller, whether
//     work succeeded, asserted false, or panicked. A panic inside work is
//     captured as a failing assertion result attributed to t, never
//     propagated past the harness boundary.
//   - Terminal guard: if t is already terminal the step is inert - work
//     does not run and nothing is recorded. Event callbacks registered on
//     external entities may still fire after logical test completion, and
//     this guard is what keeps them harmless.
func (t *Test) RunStep(work func(*Step)) {
	if t.Terminal() {
		return
	}

	s := &Step{test: t, open: true}
	defer func() {
		s.open = false
		if r := recover(); r != nil {
			// A fault inside work downgrades to a failing result so the
			// enclosing dispatch loop is never disrupted. Recording can
			// only fail if work itself finalized the test, in which case
			// the fault arrived after the verdict and is dropped.
			_ = t.record(AssertionResult{
				Predicate: PredicateStepPanic,
				Message:   fmt.Sprintf("step panicked: %v", r),
			})
		}
	}()

	work(s)
}

// True evaluates cond, records the result against the step's test, and
// returns nil. Invoked outside the step's scope it records nothing and
// returns a no-context error.
func (s *Step) True(cond bool, message string) error {
	return s.assert(PredicateAssertTrue, cond, message)
}

// False is the negated form of True.
func (s *Step) False(cond bool, message string) error {
	return s.assert(PredicateAssertFalse, !cond, message)
}

// Failf records an unconditional failing result with a formatted message.
func (s *Step) Failf(predicate, format string, args ...interface{}) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.test.record(AssertionResult{
		Predicate: predicate,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Test returns the test this step is attributed to.
func (s *Step) Test() *Test {
	return s.test
}

func (s *Step) assert(predicate string, pass bool, message string) error {
	if err := s.guard(); err != nil {
		return err
	}
	// Recording never ends the test: failure is realized at Done or
	// timeout, not here.
	return s.test.record(AssertionResult{
		Predicate: predicate,
		Message:   message,
		Pass:      pass,
	})
}

func (s *Step) guard() error {
	if s == nil || !s.open {
		return newNoContext("assertion invoked outside a step context")
	}
	return nil
}
