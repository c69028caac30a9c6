// Package harness is the async conformance test core: per-test state
// machines, scoped step contexts, the assertion engine, and the suite
// registry.
//
// # Lifecycle
//
// Tests move pending → running → {passed, failed, timed_out}. Terminal
// states are absorbing. A test's verdict is realized only at Done or at
// its deadline - assertion failures are recorded as they happen but do
// not conclude anything by themselves, matching event-driven fixtures
// where a failing listener may fire long before the test finishes.
//
// # Step contexts
//
// All test logic runs inside RunStep. A step attributes assertion
// outcomes (and recovered panics) to exactly one test, and is inert when
// that test is already terminal, so event listeners that fire after
// logical completion are harmless by construction.
//
// # Deterministic dispatch
//
// Nothing in this package touches wall time. Deadlines and deferred work
// go through clock.Scheduler; every recorded result is stamped from the
// registry's logical clock, so one run has a single reproducible order.
//
// Typical wiring:
//
//	reg := harness.NewRegistry()
//	sched := clock.NewScheduler()
//
//	harness.DefineAsyncTest(reg, sched, "transition-cancel", 5000, func(t *harness.Test) {
//		box := harness.NewEntity("box")
//		ended := false
//		box.On("transitionend", func() {
//			t.RunStep(func(s *harness.Step) {
//				ended = true
//				s.False(ended, "transitionend must not fire")
//			})
//		})
//		sched.Schedule(0, func() { t.Start() })
//		sched.Schedule(1000, func() {
//			t.RunStep(func(s *harness.Step) {
//				s.False(ended, "transitionend must not fire")
//			})
//		})
//		sched.Schedule(2100, func() { t.Done() })
//	})
//
//	reg.Seal()
//	sched.Drain(0)
//	summary := reg.Summary()
package harness
