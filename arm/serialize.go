package arm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// stateVersion guards SaveState/LoadState against layout drift: a version
// mismatch is a hard error rather than a best-effort partial load.
const stateVersion uint32 = 1

// SaveState serializes the full resumable machine state: registers, banks,
// status registers, the interrupt latch, and the executor's own pipeline
// position and cycle counter. The block cache and waitloop detector are
// deliberately excluded — both are pure accelerators with no effect on
// architectural state, so they rebuild themselves from scratch on first use
// after a load.
func (ex *Executor) SaveState() ([]byte, error) {
	var buf bytes.Buffer
	w := func(v interface{}) {
		if err := binary.Write(&buf, binary.BigEndian, v); err == nil {
			return
		}
	}

	w(stateVersion)
	w(ex.State.Regs.R)
	w(uint32(ex.State.Regs.CPSR))
	w(ex.State.Regs.fiqBank8to12)
	w(ex.State.Regs.bankedR13)
	w(ex.State.Regs.bankedR14)
	for _, sp := range ex.State.Regs.spsr {
		w(uint32(sp))
	}
	w(uint32(ex.State.Arch))
	w(ex.State.HighVectors)
	w(ex.State.IE)
	w(ex.State.IF)
	w(ex.State.IME)
	w(ex.State.Halted)
	w(ex.State.pipelineValid)
	w(ex.execPC)
	w(ex.nextFetchNonSeq)
	w(ex.Cycles)

	return buf.Bytes(), nil
}

// LoadState restores a snapshot produced by SaveState.
func (ex *Executor) LoadState(data []byte) error {
	r := bytes.NewReader(data)
	read := func(v interface{}) error {
		return binary.Read(r, binary.BigEndian, v)
	}

	var version uint32
	if err := read(&version); err != nil {
		return fmt.Errorf("arm: reading state version: %w", err)
	}
	if version != stateVersion {
		return fmt.Errorf("arm: unsupported state version %d (want %d)", version, stateVersion)
	}

	if err := read(&ex.State.Regs.R); err != nil {
		return fmt.Errorf("arm: reading registers: %w", err)
	}
	var cpsr uint32
	if err := read(&cpsr); err != nil {
		return fmt.Errorf("arm: reading CPSR: %w", err)
	}
	ex.State.Regs.CPSR = StatusRegister(cpsr)

	if err := read(&ex.State.Regs.fiqBank8to12); err != nil {
		return fmt.Errorf("arm: reading FIQ bank: %w", err)
	}
	if err := read(&ex.State.Regs.bankedR13); err != nil {
		return fmt.Errorf("arm: reading R13 bank: %w", err)
	}
	if err := read(&ex.State.Regs.bankedR14); err != nil {
		return fmt.Errorf("arm: reading R14 bank: %w", err)
	}
	for i := range ex.State.Regs.spsr {
		var v uint32
		if err := read(&v); err != nil {
			return fmt.Errorf("arm: reading SPSR bank %d: %w", i, err)
		}
		ex.State.Regs.spsr[i] = StatusRegister(v)
	}

	var arch uint32
	if err := read(&arch); err != nil {
		return fmt.Errorf("arm: reading arch: %w", err)
	}
	ex.State.Arch = Arch(arch)

	if err := read(&ex.State.HighVectors); err != nil {
		return fmt.Errorf("arm: reading high-vectors flag: %w", err)
	}
	if err := read(&ex.State.IE); err != nil {
		return fmt.Errorf("arm: reading IE: %w", err)
	}
	if err := read(&ex.State.IF); err != nil {
		return fmt.Errorf("arm: reading IF: %w", err)
	}
	if err := read(&ex.State.IME); err != nil {
		return fmt.Errorf("arm: reading IME: %w", err)
	}
	if err := read(&ex.State.Halted); err != nil {
		return fmt.Errorf("arm: reading halted flag: %w", err)
	}
	if err := read(&ex.State.pipelineValid); err != nil {
		return fmt.Errorf("arm: reading pipeline-valid flag: %w", err)
	}
	if err := read(&ex.execPC); err != nil {
		return fmt.Errorf("arm: reading execPC: %w", err)
	}
	if err := read(&ex.nextFetchNonSeq); err != nil {
		return fmt.Errorf("arm: reading fetch-kind flag: %w", err)
	}
	if err := read(&ex.Cycles); err != nil {
		return fmt.Errorf("arm: reading cycle counter: %w", err)
	}

	if ex.cache != nil {
		ex.cache = newBlockCache()
	}
	if ex.waitloop != nil {
		ex.waitloop = newWaitloopDetector()
	}
	return nil
}
