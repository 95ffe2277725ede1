package system

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const stateVersion uint32 = 1

// SaveState serializes CPU state and scheduler state into opaque bytes.
// Mapped backing buffers (RAM/ROM contents) are host-owned and are not
// included — the same split the arm package's own SaveState makes between
// architectural state and the block cache/waitloop detector, which rebuild
// rather than round-trip.
func (s *System) SaveState() ([]byte, error) {
	armBuf, err := s.Executor.SaveState()
	if err != nil {
		return nil, fmt.Errorf("system: saving cpu state: %w", err)
	}
	schedBuf, err := s.Sched.SaveState()
	if err != nil {
		return nil, fmt.Errorf("system: saving scheduler state: %w", err)
	}

	var buf bytes.Buffer
	w := func(v interface{}) {
		binary.Write(&buf, binary.BigEndian, v)
	}

	w(stateVersion)
	w(uint32(len(armBuf)))
	buf.Write(armBuf)
	w(uint32(len(schedBuf)))
	buf.Write(schedBuf)
	w(s.bus.generation)

	return buf.Bytes(), nil
}

// LoadState restores a snapshot produced by SaveState.
func (s *System) LoadState(data []byte) error {
	r := bytes.NewReader(data)
	read := func(v interface{}) error {
		return binary.Read(r, binary.BigEndian, v)
	}

	var version uint32
	if err := read(&version); err != nil {
		return fmt.Errorf("system: reading state version: %w", err)
	}
	if version != stateVersion {
		return fmt.Errorf("system: unsupported state version %d (want %d)", version, stateVersion)
	}

	var armLen uint32
	if err := read(&armLen); err != nil {
		return fmt.Errorf("system: reading cpu state length: %w", err)
	}
	armBuf := make([]byte, armLen)
	if _, err := r.Read(armBuf); err != nil {
		return fmt.Errorf("system: reading cpu state: %w", err)
	}
	if err := s.Executor.LoadState(armBuf); err != nil {
		return fmt.Errorf("system: loading cpu state: %w", err)
	}

	var schedLen uint32
	if err := read(&schedLen); err != nil {
		return fmt.Errorf("system: reading scheduler state length: %w", err)
	}
	schedBuf := make([]byte, schedLen)
	if _, err := r.Read(schedBuf); err != nil {
		return fmt.Errorf("system: reading scheduler state: %w", err)
	}
	if err := s.Sched.LoadState(schedBuf); err != nil {
		return fmt.Errorf("system: loading scheduler state: %w", err)
	}

	if err := read(&s.bus.generation); err != nil {
		return fmt.Errorf("system: reading bus generation: %w", err)
	}

	return nil
}
