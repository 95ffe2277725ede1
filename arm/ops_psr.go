package arm

func init() {
	registerARM(execMRS, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		return (hi8 == 0x10 || hi8 == 0x14) && lo4 == 0x0
	})
	registerARM(execMSRRegister, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		return (hi8 == 0x12 || hi8 == 0x16) && lo4 == 0x0
	})
	registerARM(execMSRImmediate, func(idx uint32) bool {
		hi8 := idx >> 4
		return hi8 == 0x32 || hi8 == 0x36
	})
}

// execMRS copies CPSR or the current mode's SPSR into Rd.
func execMRS(ex *Executor, instr uint32) {
	s := ex.State
	rd := bits(instr, 15, 12)
	if bitSet(instr, 22) {
		if sp := s.Regs.CurrentSPSR(); sp != nil {
			s.Regs.R[rd] = uint32(*sp)
		}
	} else {
		s.Regs.R[rd] = uint32(s.Regs.CPSR)
	}
}

// msrApply writes operand into CPSR or the current SPSR, masked by which
// byte-fields the instruction selected and by privilege: User mode must
// never be able to touch control bits.
func msrApply(ex *Executor, toSPSR bool, operand uint32, writeControl, writeFlags bool) {
	s := ex.State
	privileged := s.Regs.CPSR.Mode().privileged()
	mask := MSRMask(s.Arch, privileged, writeControl, writeFlags)

	if toSPSR {
		sp := s.Regs.CurrentSPSR()
		if sp == nil {
			return
		}
		*sp = StatusRegister(uint32(*sp)&^mask | operand&mask)
		return
	}

	newMode := s.Regs.CPSR.Mode()
	if writeControl && privileged {
		newMode = Mode(operand & modeMask)
	}
	merged := StatusRegister(uint32(s.Regs.CPSR)&^mask | operand&mask)
	if newMode != s.Regs.CPSR.Mode() {
		s.SetMode(newMode)
		merged = merged.WithMode(newMode)
	}
	s.Regs.CPSR = merged
}

func execMSRRegister(ex *Executor, instr uint32) {
	operand := ex.State.Regs.R[bits(instr, 3, 0)]
	toSPSR := bitSet(instr, 22)
	writeControl := bitSet(instr, 16)
	writeFlags := bitSet(instr, 19)
	msrApply(ex, toSPSR, operand, writeControl, writeFlags)
}

func execMSRImmediate(ex *Executor, instr uint32) {
	imm := bits(instr, 7, 0)
	rotate := bits(instr, 11, 8) * 2
	operand, _ := barrelShift(shiftROR, imm, rotate, false, false)
	toSPSR := bitSet(instr, 22)
	writeControl := bitSet(instr, 16)
	writeFlags := bitSet(instr, 19)
	msrApply(ex, toSPSR, operand, writeControl, writeFlags)
}
