// Package scheduler implements a discrete-event scheduler driving peripheral
// timing for the ARM core. Time is a monotonic 32-bit virtual counter; events
// are (kind, deadline) pairs kept in deadline order.
package scheduler

// Kind tags a scheduler event's producer. The core itself only interprets
// KindPause specially; all other values are opaque to the scheduler and are
// dispatched by the owning system.
type Kind int

// KindPause is the sentinel event used by System.AdvanceDelta (see the
// system package) to bound how many instructions run per call.
const KindPause Kind = -1

// wrapThreshold is the point past which Schedule folds the virtual clock
// back to keep deadlines from overflowing uint32 arithmetic.
const wrapThreshold uint32 = 0xF000_0000

// inlineCapacity is the size of the fixed inline event array. In practice
// there are at most a handful of concurrent events live at once; running out
// is a programmer error (core wiring bug), not a runtime condition to
// recover from.
const inlineCapacity = 32

// Event is a single scheduled occurrence.
type Event struct {
	Kind     Kind
	Deadline uint32
}

// Scheduler is a bounded, insertion-sorted set of pending events ordered by
// deadline. At the small sizes this core deals with (a handful of
// concurrent timers/DMA/PPU phase changes) a sorted inline array beats a
// heap: insertion is a linear scan-and-shift, but there is no pointer
// chasing and no allocation. HasEvents is O(1); PopDue shifts the remaining
// entries down one slot.
type Scheduler struct {
	events       [inlineCapacity]Event
	count        int
	now          uint32
	nextDeadline uint32
	hasNext      bool
}

// New returns a Scheduler with virtual time at zero and no pending events.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() uint32 {
	return s.now
}

// recomputeNext refreshes the cached next-deadline from the live event set:
// it always equals the minimum deadline over the event set, or is marked
// absent when the set is empty.
func (s *Scheduler) recomputeNext() {
	if s.count == 0 {
		s.hasNext = false
		return
	}
	// events[0] always holds the earliest deadline: Schedule keeps the
	// array sorted on insert so this lookup never needs to scan.
	s.hasNext = true
	s.nextDeadline = s.events[0].Deadline
}

// Schedule inserts (kind, now+delta), saturating at now if delta would
// underflow. delta may be negative, modeling a "late-by" catch-up
// reschedule. Panics if the inline capacity is exhausted: this indicates a
// core wiring bug, not a recoverable runtime error.
func (s *Scheduler) Schedule(kind Kind, delta int64) {
	if s.count >= inlineCapacity {
		panic("scheduler: inline event capacity exhausted")
	}

	deadline := int64(s.now) + delta
	if deadline < 0 {
		deadline = int64(s.now)
	}

	ev := Event{Kind: kind, Deadline: uint32(deadline)}

	// Insertion sort: find the first slot whose deadline is strictly
	// greater than ev's, and insert before it. Entries with an equal
	// deadline keep their relative insertion order (stable ordering) because
	// we only displace entries that sort strictly after the new one.
	i := s.count
	for i > 0 && s.events[i-1].Deadline > ev.Deadline {
		s.events[i] = s.events[i-1]
		i--
	}
	s.events[i] = ev
	s.count++

	s.recomputeNext()
	s.wrapIfNeeded()
}

// Advance moves virtual time forward unconditionally. It does not fire any
// events; the caller drains them separately via PopDue/PopNextForced.
func (s *Scheduler) Advance(by uint32) {
	s.now += by
}

// HasEvents reports whether the earliest pending event is due.
func (s *Scheduler) HasEvents() bool {
	return s.hasNext && s.nextDeadline <= s.now
}

// PopDue removes and returns the earliest event if it is due, along with how
// late it fired (now - deadline). Returns ok=false if nothing is due.
func (s *Scheduler) PopDue() (kind Kind, lateBy uint32, ok bool) {
	if !s.HasEvents() {
		return 0, 0, false
	}
	return s.pop()
}

// PopNextForced sets now to the next deadline and pops it unconditionally,
// regardless of whether it is due yet. Used when the CPU is halted and
// should idle until the next scheduled occurrence.
func (s *Scheduler) PopNextForced() (kind Kind, lateBy uint32) {
	if s.count == 0 {
		// Nothing to idle toward; leave time unchanged.
		return 0, 0
	}
	s.now = s.events[0].Deadline
	kind, lateBy, _ = s.pop()
	return kind, lateBy
}

// pop removes events[0] (already known to exist) and recomputes the cache.
func (s *Scheduler) pop() (Kind, uint32, bool) {
	ev := s.events[0]
	copy(s.events[:s.count-1], s.events[1:s.count])
	s.count--
	s.recomputeNext()

	lateBy := s.now - ev.Deadline
	return ev.Kind, lateBy, true
}

// Cancel removes every pending event for which predicate returns true.
func (s *Scheduler) Cancel(predicate func(Kind) bool) {
	w := 0
	for r := 0; r < s.count; r++ {
		if predicate(s.events[r].Kind) {
			continue
		}
		s.events[w] = s.events[r]
		w++
	}
	s.count = w
	s.recomputeNext()
}

// CancelOne removes a single pending event matching kind, used when a
// peripheral reprograms itself (e.g. a timer CTRL rewrite) and the stale
// occurrence must not fire.
func (s *Scheduler) CancelOne(kind Kind) {
	for i := 0; i < s.count; i++ {
		if s.events[i].Kind == kind {
			copy(s.events[i:s.count-1], s.events[i+1:s.count])
			s.count--
			s.recomputeNext()
			return
		}
	}
}

// wrapIfNeeded folds now and every live deadline back by wrapThreshold once
// now crosses it, preventing uint32 wraparound while preserving the relative
// ordering of all deadlines.
func (s *Scheduler) wrapIfNeeded() {
	if s.now <= wrapThreshold {
		return
	}
	s.now -= wrapThreshold
	for i := 0; i < s.count; i++ {
		s.events[i].Deadline -= wrapThreshold
	}
	s.recomputeNext()
}
