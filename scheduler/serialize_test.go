package scheduler

import "testing"

func TestSerializeRoundTrip(t *testing.T) {
	s := New()
	s.Schedule(Kind(1), 100)
	s.Schedule(Kind(2), 50)
	s.Schedule(Kind(3), 75)
	s.Advance(10)

	buf, err := s.SaveState()
	if err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	s2 := New()
	if err := s2.LoadState(buf); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if s2.Now() != s.Now() {
		t.Errorf("Now = %d, want %d", s2.Now(), s.Now())
	}
	if s2.count != s.count {
		t.Errorf("count = %d, want %d", s2.count, s.count)
	}
	for i := 0; i < s.count; i++ {
		if s2.events[i] != s.events[i] {
			t.Errorf("event %d = %+v, want %+v", i, s2.events[i], s.events[i])
		}
	}

	// Resumed scheduler must pop events identically to the original.
	for {
		k1, l1, ok1 := s.PopDue()
		k2, l2, ok2 := s2.PopDue()
		if ok1 != ok2 {
			t.Fatalf("PopDue ok diverged: %v vs %v", ok1, ok2)
		}
		if !ok1 {
			break
		}
		if k1 != k2 || l1 != l2 {
			t.Errorf("PopDue diverged: (%v,%d) vs (%v,%d)", k1, l1, k2, l2)
		}
	}
}

func TestSerializeRejectsBadVersion(t *testing.T) {
	s := New()
	buf, _ := s.SaveState()
	buf[3] = 99 // corrupt the low byte of the big-endian version

	s2 := New()
	if err := s2.LoadState(buf); err == nil {
		t.Fatal("LoadState accepted a corrupted version")
	}
}
