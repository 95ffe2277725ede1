package arm

// ExceptionKind identifies one of the seven ARM exception types and carries
// its vector offset, entry mode, and which of I/F get set on entry.
type ExceptionKind int

const (
	ExceptionReset ExceptionKind = iota
	ExceptionUndefined
	ExceptionSWI
	ExceptionPrefetchAbort
	ExceptionDataAbort
	ExceptionIRQ
	ExceptionFIQ
)

type exceptionInfo struct {
	vector   uint32
	mode     Mode
	setF     bool
	priority int
}

// vectorTable is indexed by ExceptionKind. The priority field records the
// architectural ordering (Reset highest, lower numbers win); Raise does not
// consult it, and every Raise is taken immediately with no arbitration
// between simultaneous exceptions.
var vectorTable = [...]exceptionInfo{
	ExceptionReset:         {vector: 0x00, mode: ModeSupervisor, setF: true, priority: 0},
	ExceptionDataAbort:     {vector: 0x10, mode: ModeAbort, priority: 1},
	ExceptionFIQ:           {vector: 0x1C, mode: ModeFIQ, setF: true, priority: 2},
	ExceptionIRQ:           {vector: 0x18, mode: ModeIRQ, priority: 3},
	ExceptionPrefetchAbort: {vector: 0x0C, mode: ModeAbort, priority: 4},
	ExceptionUndefined:     {vector: 0x04, mode: ModeUndefined, priority: 5},
	ExceptionSWI:           {vector: 0x08, mode: ModeSupervisor, priority: 5},
}

const highVectorBase uint32 = 0xFFFF0000

// vectorBase returns the absolute address of the vector table, honoring
// ARMv5TE's relocatable high-vector option.
func (s *State) vectorBase() uint32 {
	if s.HighVectors {
		return highVectorBase
	}
	return 0
}

// Raise performs exception entry: bank into the exception's mode, stash the
// old CPSR in the fresh SPSR, load LR_<mode> with returnAddress (the value
// the handler should return to — its exact offset from the faulting
// instruction is the caller's responsibility; see the executor, which knows
// whether it was mid-ARM or mid-Thumb execution), force ARM state, and jump
// to the vector. This never touches guest memory: ARM's exception model is
// registers-only.
func (s *State) Raise(kind ExceptionKind, returnAddress uint32) {
	info := vectorTable[kind]

	oldCPSR := s.Regs.CPSR
	s.SetMode(info.mode)

	if sp := s.Regs.CurrentSPSR(); sp != nil {
		*sp = oldCPSR
	}

	s.Regs.R[14] = returnAddress
	s.Regs.CPSR = s.Regs.CPSR.WithI(true).WithT(false)
	if info.setF {
		s.Regs.CPSR = s.Regs.CPSR.WithF(true)
	}

	s.Regs.R[15] = s.vectorBase() + info.vector
	s.pipelineValid = false
}

// ReturnFromException restores CPSR from the current mode's SPSR and sets
// PC to addr, the standard "MOVS PC, LR"-style exception return idiom.
func (s *State) ReturnFromException(addr uint32) {
	sp := s.Regs.CurrentSPSR()
	if sp != nil {
		restored := *sp
		s.SetMode(restored.Mode())
		s.Regs.CPSR = restored
	}
	s.Regs.R[15] = addr
	s.pipelineValid = false
}
