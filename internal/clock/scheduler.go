package clock

import (
	"errors"
	"sort"
)

// ErrBudgetExceeded is returned by Drain when the callback budget is
// exhausted before the pending set empties. A scenario that keeps
// rescheduling itself (e.g. a runaway repeating timer) hits this instead
// of hanging the harness forever.
var ErrBudgetExceeded = errors.New("scheduler: callback budget exceeded")

// Handle identifies a scheduled callback.
//
// Handles are allocated in scheduling order, which doubles as the FIFO
// tie-break for callbacks due at the same logical time.
type Handle int64

// timer is a unit of deferred work with a logical fire time.
// It is removed from the pending set before its callback runs.
type timer struct {
	handle   Handle
	due      int64
	interval int64 // 0 for oneshot
	nesting  uint32
	fn       func()
}

// Scheduler dispatches deferred callbacks in logical time.
//
// Ordering guarantees:
//   - Callbacks with smaller fire times run strictly before later ones.
//   - Callbacks with equal fire times run in scheduling order (FIFO).
//   - A callback scheduled during dispatch with an already-passed fire
//     time runs after the currently firing callback, never inside it.
//
// The model is single-threaded cooperative: all work is dispatched from
// Advance, AdvanceTo, or Drain on the caller's goroutine. Scheduler is
// not safe for concurrent use; callbacks may freely call Schedule,
// Repeat, and Cancel reentrantly.
type Scheduler struct {
	now        int64
	nextHandle Handle
	pending    []timer // sorted ascending by (due, handle)
	active     map[Handle]struct{}
	nesting    uint32 // nesting level of the currently firing callback, 0 outside dispatch

	suspended      bool
	suspendedSince int64
}

// NewScheduler creates an empty scheduler at logical time 0.
func NewScheduler() *Scheduler {
	return &Scheduler{
		active: make(map[Handle]struct{}),
	}
}

// Now returns the current logical time.
func (s *Scheduler) Now() int64 {
	return s.now
}

// Pending returns the number of scheduled callbacks not yet fired.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// Schedule registers fn to fire delay units from now and returns its handle.
// Negative delays are treated as 0. Callbacks scheduled from deeply nested
// dispatch (more than 5 levels) have their delay clamped to a 4-unit floor.
func (s *Scheduler) Schedule(delay int64, fn func()) Handle {
	return s.schedule(delay, 0, fn)
}

// Repeat registers fn to fire every interval units, starting interval units
// from now. The callback reschedules itself after each firing until
// cancelled; cancelling from inside the callback stops it. Intervals below
// 1 are raised to 1 so logical time always makes progress.
func (s *Scheduler) Repeat(interval int64, fn func()) Handle {
	if interval < 1 {
		interval = 1
	}
	return s.schedule(interval, interval, fn)
}

func (s *Scheduler) schedule(delay, interval int64, fn func()) Handle {
	s.nextHandle++
	h := s.nextHandle

	t := timer{
		handle:   h,
		due:      s.now + clampDelay(s.nesting, delay),
		interval: interval,
		nesting:  s.nesting,
		fn:       fn,
	}

	s.insert(t)
	s.active[h] = struct{}{}
	return h
}

// Cancel removes a pending callback. Returns false if the handle is
// unknown or already fired; cancelling twice is a no-op.
func (s *Scheduler) Cancel(h Handle) bool {
	if _, ok := s.active[h]; !ok {
		return false
	}
	delete(s.active, h)

	for i := range s.pending {
		if s.pending[i].handle == h {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	return true
}

// Suspend stops dispatch. While suspended, Advance and AdvanceTo move
// logical time but fire nothing. Suspending twice is a no-op.
func (s *Scheduler) Suspend() {
	if s.suspended {
		return
	}
	s.suspended = true
	s.suspendedSince = s.now
}

// Resume restarts dispatch. Pending fire times are shifted by the span
// spent suspended, so relative delays are preserved across suspension.
func (s *Scheduler) Resume() {
	if !s.suspended {
		return
	}
	offset := s.now - s.suspendedSince
	for i := range s.pending {
		s.pending[i].due += offset
	}
	s.suspended = false
}

// Advance moves logical time forward by d units, firing everything due.
// Returns the number of callbacks fired.
func (s *Scheduler) Advance(d int64) int {
	if d < 0 {
		d = 0
	}
	return s.AdvanceTo(s.now + d)
}

// AdvanceTo moves logical time to t, firing due callbacks in
// (fire time, handle) order. Time never moves backwards; a t in the
// past only means nothing fires.
func (s *Scheduler) AdvanceTo(t int64) int {
	fired := 0
	for !s.suspended {
		if len(s.pending) == 0 || s.pending[0].due > t {
			break
		}
		s.fire(s.pop())
		fired++
	}
	if t > s.now {
		s.now = t
	}
	return fired
}

// Drain fires pending callbacks in order until none remain, advancing
// logical time to each fire time. max bounds the total number of firings;
// max <= 0 means unbounded. Returns ErrBudgetExceeded if work remains
// when the budget runs out.
func (s *Scheduler) Drain(max int) (int, error) {
	fired := 0
	for !s.suspended && len(s.pending) > 0 {
		if max > 0 && fired >= max {
			return fired, ErrBudgetExceeded
		}
		s.fire(s.pop())
		fired++
	}
	return fired, nil
}

// pop removes and returns the earliest pending timer.
func (s *Scheduler) pop() timer {
	t := s.pending[0]
	s.pending[0] = timer{} // release the callback for GC
	s.pending = s.pending[1:]
	return t
}

// fire runs one timer's callback and handles interval rescheduling.
func (s *Scheduler) fire(t timer) {
	if t.due > s.now {
		s.now = t.due
	}

	prev := s.nesting
	s.nesting = t.nesting + 1
	t.fn()
	s.nesting = prev

	if t.interval > 0 {
		// Reschedule only if the callback didn't cancel itself.
		if _, ok := s.active[t.handle]; ok {
			t.due = s.now + clampDelay(t.nesting, t.interval)
			s.insert(t)
		}
		return
	}

	delete(s.active, t.handle)
}

// insert places t into the pending set, keeping (due, handle) order.
// Handles increase monotonically, so equal fire times sort FIFO.
func (s *Scheduler) insert(t timer) {
	i := sort.Search(len(s.pending), func(i int) bool {
		p := s.pending[i]
		if p.due != t.due {
			return p.due > t.due
		}
		return p.handle > t.handle
	})
	s.pending = append(s.pending, timer{})
	copy(s.pending[i+1:], s.pending[i:])
	s.pending[i] = t
}

// clampDelay applies the nested-timer floor: callbacks scheduled more
// than 5 dispatch levels deep get a minimum delay of 4 units. Negative
// delays always clamp to 0.
func clampDelay(nesting uint32, delay int64) int64 {
	var floor int64
	if nesting > 5 {
		floor = 4
	}
	if delay < floor {
		return floor
	}
	return delay
}
