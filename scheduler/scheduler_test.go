package scheduler

import "testing"

func TestScheduleOrdersByDeadlineThenInsertion(t *testing.T) {
	s := New()
	s.Schedule(Kind(1), 100) // A
	s.Schedule(Kind(2), 50)  // B
	s.Schedule(Kind(3), 75)  // C

	s.Advance(80)

	k, late, ok := s.PopDue()
	if !ok || k != Kind(2) || late != 30 {
		t.Fatalf("got kind=%v late=%v ok=%v, want B late=30", k, late, ok)
	}

	k, late, ok = s.PopDue()
	if !ok || k != Kind(3) || late != 5 {
		t.Fatalf("got kind=%v late=%v ok=%v, want C late=5", k, late, ok)
	}

	if _, _, ok = s.PopDue(); ok {
		t.Fatalf("expected no more due events")
	}

	s.Advance(20)
	k, late, ok = s.PopDue()
	if !ok || k != Kind(1) || late != 0 {
		t.Fatalf("got kind=%v late=%v ok=%v, want A late=0", k, late, ok)
	}
}

func TestStableOrderingOnTie(t *testing.T) {
	s := New()
	s.Schedule(Kind(1), 10)
	s.Schedule(Kind(2), 10)
	s.Advance(10)

	k, _, _ := s.PopDue()
	if k != Kind(1) {
		t.Fatalf("expected first-scheduled event to fire first on tie, got %v", k)
	}
	k, _, _ = s.PopDue()
	if k != Kind(2) {
		t.Fatalf("expected second-scheduled event to fire second on tie, got %v", k)
	}
}

func TestNegativeDeltaSaturatesAtNow(t *testing.T) {
	s := New()
	s.Advance(5)
	s.Schedule(Kind(9), -100)

	k, late, ok := s.PopDue()
	if !ok || k != Kind(9) || late != 0 {
		t.Fatalf("got kind=%v late=%v ok=%v, want immediate fire", k, late, ok)
	}
}

func TestCancelOne(t *testing.T) {
	s := New()
	s.Schedule(Kind(1), 10)
	s.Schedule(Kind(2), 10)
	s.CancelOne(Kind(1))
	s.Advance(10)

	k, _, ok := s.PopDue()
	if !ok || k != Kind(2) {
		t.Fatalf("expected only kind 2 to remain, got kind=%v ok=%v", k, ok)
	}
	if _, _, ok = s.PopDue(); ok {
		t.Fatalf("expected cancelled event to not fire")
	}
}

func TestCancelPredicate(t *testing.T) {
	s := New()
	s.Schedule(Kind(1), 10)
	s.Schedule(Kind(2), 10)
	s.Schedule(Kind(3), 10)
	s.Cancel(func(k Kind) bool { return k != Kind(2) })
	s.Advance(10)

	k, _, ok := s.PopDue()
	if !ok || k != Kind(2) {
		t.Fatalf("expected only kind 2 to survive predicate cancel, got kind=%v ok=%v", k, ok)
	}
	if _, _, ok = s.PopDue(); ok {
		t.Fatalf("expected no events left after predicate cancel")
	}
}

func TestPopNextForcedIdlesToDeadline(t *testing.T) {
	s := New()
	s.Schedule(Kind(7), 1000)

	k, late := s.PopNextForced()
	if k != Kind(7) || late != 0 {
		t.Fatalf("got kind=%v late=%v, want kind=7 late=0", k, late)
	}
	if s.Now() != 1000 {
		t.Fatalf("expected now to jump to the deadline, got %d", s.Now())
	}
}

func TestWrapProtection(t *testing.T) {
	s := New()
	s.Advance(wrapThreshold - 1)
	s.Schedule(Kind(1), 10)

	s.Advance(20)

	k, late, ok := s.PopDue()
	if !ok || k != Kind(1) || late != 10 {
		t.Fatalf("got kind=%v late=%v ok=%v, want kind=1 late=10", k, late, ok)
	}
}

func TestHasEventsReflectsCachedNext(t *testing.T) {
	s := New()
	if s.HasEvents() {
		t.Fatalf("expected no events pending on a fresh scheduler")
	}
	s.Schedule(Kind(1), 5)
	if s.HasEvents() {
		t.Fatalf("expected event not yet due")
	}
	s.Advance(5)
	if !s.HasEvents() {
		t.Fatalf("expected event to be due after advancing to its deadline")
	}
}

func TestInlineCapacityExhaustionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on inline capacity exhaustion")
		}
	}()
	s := New()
	for i := 0; i < inlineCapacity+1; i++ {
		s.Schedule(Kind(i), int64(i))
	}
}
