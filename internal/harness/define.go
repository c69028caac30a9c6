package harness

import (
	"github.com/roach88/verdict/internal/clock"
)

// DefaultTimeout is the per-test deadline, in logical units, used when a
// scenario doesn't specify one.
const DefaultTimeout int64 = 5000

// DefineAsyncTest registers a test, arms its deadline on sched, and
// invokes body synchronously so it can install event listeners and
// schedule callbacks. The body (or work it schedules) must eventually
// call Start and, after all assertions, Done; a test that never
// concludes is forced to timed_out when the deadline elapses. This is
// what lets a test asserting that "nothing happens" still terminate
// deterministically instead of hanging.
func DefineAsyncTest(r *Registry, sched *clock.Scheduler, name string, timeout int64, body func(*Test)) (*Test, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	t, err := r.Register(name)
	if err != nil {
		return nil, err
	}

	t.armDeadline(sched, timeout)
	if body != nil {
		body(t)
	}
	return t, nil
}
