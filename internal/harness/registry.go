package harness

import (
	"context"
	"sync"

	"github.com/roach88/verdict/internal/clock"
	"github.com/roach88/verdict/internal/report"
)

// Registry is the suite-wide store of registered tests and their
// verdicts.
//
// Lifecycle: NewRegistry → Register (one per test) → Seal → dispatch →
// Summary. The suite is complete when every registered test has reached
// a terminal state; Done/Wait let a consumer block on that.
//
// The dispatch model is single-threaded cooperative, so no concurrent
// writers arise in practice, but the one-time-report invariant is still
// enforced defensively under a mutex.
type Registry struct {
	clk *clock.Clock

	mu        sync.Mutex
	tests     []*Test
	byName    map[string]*Test
	reported  map[string]bool
	remaining int
	sealed    bool
	done      chan struct{}
	closed    bool
}

// NewRegistry creates an empty registry with a fresh logical clock.
func NewRegistry() *Registry {
	return &Registry{
		clk:      clock.NewClock(),
		byName:   make(map[string]*Test),
		reported: make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Clock returns the registry's seq source. All events of one run stamp
// from this clock so the run has a single deterministic order.
func (r *Registry) Clock() *clock.Clock {
	return r.clk
}

// Register creates a pending test owned by this registry.
// Names are unique within a registry; a collision is a duplicate-name
// error. Registering after Seal is an invalid-state error.
func (r *Registry) Register(name string) (*Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil, newInvalidState(name, "register on sealed registry")
	}
	if _, exists := r.byName[name]; exists {
		return nil, newDuplicateName(name)
	}

	t := &Test{
		name:     name,
		registry: r,
		state:    StatePending,
	}
	r.tests = append(r.tests, t)
	r.byName[name] = t
	r.remaining++
	return t, nil
}

// Seal marks registration complete. Completion signalling only arms
// after Seal, so a consumer can't observe a momentarily-empty registry
// as "complete" while tests are still being defined.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	r.maybeComplete()
}

// Completed reports whether every registered test reached a terminal
// state (and registration is sealed).
func (r *Registry) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed && r.remaining == 0
}

// Done returns a channel closed when the suite completes.
func (r *Registry) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the suite completes or ctx is cancelled.
func (r *Registry) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return nil
	}
}

// Len returns the number of registered tests.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tests)
}

// Summary produces one verdict per registered test, in registration
// order. Tests still pending or running appear with their non-terminal
// state; a completed suite never contains those.
func (r *Registry) Summary() report.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	verdicts := make([]report.Verdict, 0, len(r.tests))
	for _, t := range r.tests {
		v := report.Verdict{
			Name:     t.name,
			State:    string(t.state),
			TimedOut: t.state == StateTimedOut,
		}
		for _, res := range t.results {
			if !res.Pass {
				v.Messages = append(v.Messages, res.Message)
			}
		}
		verdicts = append(verdicts, v)
	}
	return report.NewSummary(verdicts)
}

// report records a test's terminal transition. Idempotent-guarded: a
// second report for the same test is ignored.
func (r *Registry) report(t *Test) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reported[t.name] {
		return
	}
	r.reported[t.name] = true
	r.remaining--
	r.maybeComplete()
}

// maybeComplete closes the done channel once, when sealed and drained.
// Caller holds r.mu.
func (r *Registry) maybeComplete() {
	if r.sealed && r.remaining == 0 && !r.closed {
		r.closed = true
		close(r.done)
	}
}
