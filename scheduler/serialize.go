package scheduler

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const stateVersion uint32 = 1

// SaveState serializes the scheduler's virtual clock and live event set.
func (s *Scheduler) SaveState() ([]byte, error) {
	var buf bytes.Buffer
	w := func(v interface{}) {
		binary.Write(&buf, binary.BigEndian, v)
	}

	w(stateVersion)
	w(s.now)
	w(uint32(s.count))
	for i := 0; i < s.count; i++ {
		w(int64(s.events[i].Kind))
		w(s.events[i].Deadline)
	}

	return buf.Bytes(), nil
}

// LoadState restores a snapshot produced by SaveState.
func (s *Scheduler) LoadState(data []byte) error {
	r := bytes.NewReader(data)
	read := func(v interface{}) error {
		return binary.Read(r, binary.BigEndian, v)
	}

	var version uint32
	if err := read(&version); err != nil {
		return fmt.Errorf("scheduler: reading state version: %w", err)
	}
	if version != stateVersion {
		return fmt.Errorf("scheduler: unsupported state version %d (want %d)", version, stateVersion)
	}

	if err := read(&s.now); err != nil {
		return fmt.Errorf("scheduler: reading clock: %w", err)
	}
	var count uint32
	if err := read(&count); err != nil {
		return fmt.Errorf("scheduler: reading event count: %w", err)
	}
	if count > inlineCapacity {
		return fmt.Errorf("scheduler: event count %d exceeds inline capacity %d", count, inlineCapacity)
	}

	s.count = int(count)
	for i := 0; i < s.count; i++ {
		var kind int64
		var deadline uint32
		if err := read(&kind); err != nil {
			return fmt.Errorf("scheduler: reading event %d kind: %w", i, err)
		}
		if err := read(&deadline); err != nil {
			return fmt.Errorf("scheduler: reading event %d deadline: %w", i, err)
		}
		s.events[i] = Event{Kind: Kind(kind), Deadline: deadline}
	}
	for i := s.count; i < inlineCapacity; i++ {
		s.events[i] = Event{}
	}

	s.recomputeNext()
	return nil
}
