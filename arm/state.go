package arm

// Arch selects between the ARM7TDMI (ARMv4T, used by the GBA) and the
// ARM946E-S (ARMv5TE, used by the NDS) instruction set and exception model
// differences this core supports.
type Arch int

const (
	ARMv4T Arch = iota
	ARMv5TE
)

// Interrupt source bit layout is generic: callers (the owning system) assign
// meaning to each bit of IE/IF. The core only ever looks at "IE&IF != 0 &&
// IME" to decide whether an IRQ line is asserted.
type State struct {
	Regs Registers
	Arch Arch

	// HighVectors relocates the exception vector table to 0xFFFF0000
	// (ARMv5TE control-register option); ARMv4T never sets this.
	HighVectors bool

	IE  uint32
	IF  uint32
	IME bool

	// Halted is set by a low-power "halt" request (e.g. the GBA's HALTCNT)
	// and cleared the moment an enabled interrupt becomes pending.
	Halted bool

	// pipelineValid is false immediately after Reset or a successful branch
	// and until the executor has refilled the two-stage pipeline.
	pipelineValid bool
}

// NewState returns a core reset into Supervisor mode with interrupts masked,
// matching the real ARM7TDMI/ARM946E-S power-on state.
func NewState(arch Arch) *State {
	s := &State{Arch: arch}
	s.Reset()
	return s
}

// Reset re-initializes registers to the architectural power-on state and
// invalidates the pipeline, without touching IE/IF/IME (those are owned by
// the peripheral side of the system, which resets them independently).
func (s *State) Reset() {
	s.Regs = Registers{}
	s.Regs.CPSR = StatusRegister(ModeSupervisor).WithI(true).WithF(true)
	s.Regs.R[15] = 0
	s.Halted = false
	s.pipelineValid = false
}

// InstructionSize returns 4 in ARM state, 2 in Thumb state.
func (s *State) InstructionSize() uint32 {
	if s.Regs.CPSR.T() {
		return 2
	}
	return 4
}

// PipelineOffset returns the gap between the real fetch address and the
// value R15 reads as, a consequence of the two-stage pipeline always being
// one instruction ahead of execution: PC reads as fetch+8 in ARM state,
// fetch+4 in Thumb state.
func (s *State) PipelineOffset() uint32 {
	if s.Regs.CPSR.T() {
		return 4
	}
	return 8
}

// SetMode transitions CPSR to m, banking registers as needed. Used by
// exception entry/return and by MSR writes to the mode field.
func (s *State) SetMode(m Mode) {
	from := s.Regs.CPSR.Mode()
	if from == m {
		return
	}
	s.Regs.SwitchMode(from, m)
	s.Regs.CPSR = s.Regs.CPSR.WithMode(m)
}

// InterruptPending reports whether an enabled, unmasked IRQ line is
// asserted.
func (s *State) InterruptPending() bool {
	return s.IME && s.IE&s.IF != 0 && !s.Regs.CPSR.I()
}

// RequestInterrupt ORs bit into the IF latch. The executor observes it on
// its next dispatch-loop check. A halted core wakes as soon as IE&IF is
// non-zero, regardless of IME and CPSR.I.
func (s *State) RequestInterrupt(bit uint32) {
	s.IF |= bit
	if s.IE&s.IF != 0 {
		s.Halted = false
	}
}

// ClearInterrupt clears bits from the IF latch (a guest IF-acknowledge
// write).
func (s *State) ClearInterrupt(bits uint32) {
	s.IF &^= bits
}
