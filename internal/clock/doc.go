// Package clock provides the logical time facility for the harness.
//
// Two pieces:
//
//   - Clock: a monotonic sequence source. Every recorded harness event is
//     stamped with a seq from one Clock, giving a deterministic total order
//     without wall time.
//
//   - Scheduler: deferred callbacks keyed by (fire time, handle) in an
//     ordered pending set. Logical time only moves when the caller drains
//     the scheduler, so runs are replayable: the same scenario produces
//     the same dispatch order every time.
//
// Wall-clock timers are deliberately absent. A "wait N units" is expressed
// as scheduling a callback N units in the future, never as a sleep.
package clock
