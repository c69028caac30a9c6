package scenario

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/verdict/internal/clock"
	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/report"
	"github.com/roach88/verdict/internal/store"
	"github.com/roach88/verdict/internal/trace"
)

// DrainBudget caps the number of callbacks one scenario run may fire.
// A scenario that exceeds it has a runaway reschedule loop.
const DrainBudget = 100000

// Result is the outcome of one scenario run: the per-test verdicts, the
// canonical event trace, its digest, and store-ready records.
type Result struct {
	Scenario string
	Summary  report.Summary
	Trace    []trace.Event
	Digest   string
	Records  []store.TestRecord

	// Errors are scenario-level faults (an op attempted an illegal
	// transition), distinct from assertion failures.
	Errors []string
}

// Pass reports whether the run is clean: no scenario faults and every
// test passed.
func (r *Result) Pass() bool {
	return len(r.Errors) == 0 && r.Summary.AllPassed()
}

// Run executes a scenario deterministically and returns its result.
func Run(sc *Scenario) (*Result, error) {
	return RunWithLogger(sc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with debug logging of the drain.
func RunWithLogger(sc *Scenario, logger *slog.Logger) (*Result, error) {
	r := &runner{
		reg:      harness.NewRegistry(),
		sched:    clock.NewScheduler(),
		flags:    make(map[string]bool),
		entities: make(map[string]*harness.Entity),
	}

	timeout := sc.Timeout
	if timeout == 0 {
		timeout = harness.DefaultTimeout
	}

	var tests []*harness.Test
	for i := range sc.Tests {
		tc := &sc.Tests[i]
		t, err := harness.DefineAsyncTest(r.reg, r.sched, tc.Name, timeout, func(t *harness.Test) {
			r.bind(t, tc)
		})
		if err != nil {
			return nil, fmt.Errorf("defining test %q: %w", tc.Name, err)
		}
		tests = append(tests, t)
	}
	r.reg.Seal()

	fired, err := r.sched.Drain(DrainBudget)
	if err != nil {
		return nil, fmt.Errorf("running scenario %q: %w", sc.Name, err)
	}
	logger.Debug("scenario drained",
		"scenario", sc.Name,
		"callbacks", fired,
		"now", r.sched.Now())

	// Every test carries a deadline, so a fully drained queue means
	// every test reached a terminal state.
	if !r.reg.Completed() {
		return nil, fmt.Errorf("scenario %q: tests still pending after drain", sc.Name)
	}

	summary := r.reg.Summary()
	for _, v := range summary.Verdicts {
		r.record(trace.Event{Test: v.Name, Kind: trace.KindVerdict, Detail: v.State})
	}

	snapshot := trace.Snapshot{Scenario: sc.Name, Events: r.events}
	digest, err := trace.RunDigest(snapshot)
	if err != nil {
		return nil, fmt.Errorf("digesting scenario %q: %w", sc.Name, err)
	}

	return &Result{
		Scenario: sc.Name,
		Summary:  summary,
		Trace:    r.events,
		Digest:   digest,
		Records:  buildRecords(tests),
		Errors:   r.errs,
	}, nil
}

// runner holds the mutable state of one scenario execution. All access
// happens on the drain loop, so no locking.
type runner struct {
	reg      *harness.Registry
	sched    *clock.Scheduler
	flags    map[string]bool
	entities map[string]*harness.Entity
	events   []trace.Event
	errs     []string
}

// bind installs a test case's listeners and schedules its timeline.
// Runs inside DefineAsyncTest, before the drain starts, so every step's
// delay is an absolute logical time.
func (r *runner) bind(t *harness.Test, tc *TestCase) {
	for i := range tc.Listeners {
		l := &tc.Listeners[i]
		ent := r.entity(l.Target)
		ent.On(l.Event, func() {
			t.RunStep(func(s *harness.Step) {
				r.record(trace.Event{
					Test:   t.Name(),
					Kind:   trace.KindListener,
					Detail: l.Target + ":" + l.Event,
				})
				for _, set := range l.Sets {
					r.setFlag(t, set)
				}
				for j := range l.Assert {
					r.assert(t, s, &l.Assert[j])
				}
			})
		})
	}
	for i := range tc.Steps {
		step := &tc.Steps[i]
		r.sched.Schedule(step.At, func() {
			r.fire(t, step)
		})
	}
}

// fire executes one timeline step. Steps landing after the test's
// terminal transition are dropped without effect.
func (r *runner) fire(t *harness.Test, step *Step) {
	switch {
	case step.Start:
		if t.Terminal() {
			return
		}
		if err := t.Start(); err != nil {
			r.fault(t, err)
			return
		}
		r.record(trace.Event{Test: t.Name(), Kind: trace.KindStart})

	case step.Done:
		if t.Terminal() {
			return
		}
		if err := t.Done(); err != nil {
			r.fault(t, err)
			return
		}
		r.record(trace.Event{Test: t.Name(), Kind: trace.KindDone})

	case step.Set != nil:
		t.RunStep(func(s *harness.Step) {
			r.setFlag(t, *step.Set)
		})

	case step.Emit != nil:
		// The event fires regardless of this test's state: entities
		// model the external world, and listeners guard themselves.
		if !t.Terminal() {
			r.record(trace.Event{
				Test:   t.Name(),
				Kind:   trace.KindEmit,
				Detail: step.Emit.Target + ":" + step.Emit.Event,
			})
		}
		r.entity(step.Emit.Target).Emit(step.Emit.Event)

	case step.Assert != nil:
		t.RunStep(func(s *harness.Step) {
			r.assert(t, s, step.Assert)
		})
	}
}

func (r *runner) setFlag(t *harness.Test, set SetOp) {
	r.flags[set.Flag] = set.Value
	r.record(trace.Event{
		Test:   t.Name(),
		Kind:   trace.KindSet,
		Detail: fmt.Sprintf("%s=%t", set.Flag, set.Value),
	})
}

func (r *runner) assert(t *harness.Test, s *harness.Step, a *AssertOp) {
	val := r.flags[a.Flag]
	var (
		predicate string
		pass      bool
		err       error
	)
	switch a.Predicate {
	case PredicateFlagTrue:
		predicate = harness.PredicateAssertTrue
		pass = val
		err = s.True(val, a.Message)
	case PredicateFlagFalse:
		predicate = harness.PredicateAssertFalse
		pass = !val
		err = s.False(val, a.Message)
	}
	if err != nil {
		r.fault(t, err)
		return
	}
	r.record(trace.Event{
		Test:      t.Name(),
		Kind:      trace.KindAssert,
		Detail:    a.Message,
		Predicate: predicate,
		Pass:      pass,
	})
}

// entity returns the named entity, creating it on first reference.
func (r *runner) entity(name string) *harness.Entity {
	if e, ok := r.entities[name]; ok {
		return e
	}
	e := harness.NewEntity(name)
	r.entities[name] = e
	return e
}

// record stamps and appends one trace event. Seq comes from the same
// logical clock that stamps assertion results, so the trace and the
// recorded results share one total order.
func (r *runner) record(e trace.Event) {
	e.Seq = r.reg.Clock().Next()
	e.At = r.sched.Now()
	r.events = append(r.events, e)
}

func (r *runner) fault(t *harness.Test, err error) {
	r.errs = append(r.errs, fmt.Sprintf("%s: %v", t.Name(), err))
}

func buildRecords(tests []*harness.Test) []store.TestRecord {
	records := make([]store.TestRecord, len(tests))
	for i, t := range tests {
		results := t.Results()
		assertions := make([]store.AssertionRecord, len(results))
		for j, res := range results {
			assertions[j] = store.AssertionRecord{
				Seq:       res.Seq,
				Predicate: res.Predicate,
				Message:   res.Message,
				Pass:      res.Pass,
			}
		}
		records[i] = store.TestRecord{
			Position:   i,
			Name:       t.Name(),
			State:      string(t.State()),
			TimedOut:   t.State() == harness.StateTimedOut,
			Assertions: assertions,
		}
	}
	return records
}
