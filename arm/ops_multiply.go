package arm

func init() {
	registerARM(execMUL, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		return hi8 <= 0x03 && lo4 == 0x9
	})
	registerARM(execMULL, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		return hi8 >= 0x08 && hi8 <= 0x0F && lo4 == 0x9
	})
	registerARM(execSWP, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		return (hi8 == 0x10 || hi8 == 0x14) && lo4 == 0x9
	})
}

// execMUL handles MUL/MLA: Rd[19:16] := Rm[3:0] * Rs[11:8] (+ Rn[15:12] if
// accumulate). Rd and Rm must not be R15 or coincide (UNPREDICTABLE on real
// hardware); this core does not special-case that misuse.
func execMUL(ex *Executor, instr uint32) {
	s := ex.State
	accumulate := bitSet(instr, 21)
	setFlags := bitSet(instr, 20)
	rd := bits(instr, 19, 16)
	rn := bits(instr, 15, 12)
	rs := bits(instr, 11, 8)
	rm := bits(instr, 3, 0)

	rsVal := s.Regs.R[rs]
	result := s.Regs.R[rm] * rsVal
	if accumulate {
		result += s.Regs.R[rn]
	}
	s.Regs.R[rd] = result

	ex.internalCycles += mulIdleCycles(rsVal)
	if accumulate {
		ex.internalCycles++
	}

	if setFlags {
		s.Regs.CPSR = s.Regs.CPSR.WithN(result&0x80000000 != 0).WithZ(result == 0)
	}
}

// execMULL handles UMULL/UMLAL/SMULL/SMLAL: {RdHi:RdLo} := Rm * Rs (+
// {RdHi:RdLo} if accumulate), 64-bit result split across two registers.
func execMULL(ex *Executor, instr uint32) {
	s := ex.State
	signed := bitSet(instr, 22)
	accumulate := bitSet(instr, 21)
	setFlags := bitSet(instr, 20)
	rdHi := bits(instr, 19, 16)
	rdLo := bits(instr, 15, 12)
	rs := bits(instr, 11, 8)
	rm := bits(instr, 3, 0)

	rsVal := s.Regs.R[rs]
	var product uint64
	if signed {
		product = uint64(int64(int32(s.Regs.R[rm])) * int64(int32(rsVal)))
	} else {
		product = uint64(s.Regs.R[rm]) * uint64(rsVal)
	}

	if accumulate {
		product += uint64(s.Regs.R[rdHi])<<32 | uint64(s.Regs.R[rdLo])
	}

	s.Regs.R[rdLo] = uint32(product)
	s.Regs.R[rdHi] = uint32(product >> 32)

	ex.internalCycles += mulIdleCycles(rsVal) + 1
	if accumulate {
		ex.internalCycles++
	}

	if setFlags {
		s.Regs.CPSR = s.Regs.CPSR.WithN(product&0x8000000000000000 != 0).WithZ(product == 0)
	}
}

// execSWP handles SWP/SWPB: an atomic (from the guest's point of view —
// this core never preempts mid-instruction) read-modify-write swap of a
// memory word/byte with a register.
func execSWP(ex *Executor, instr uint32) {
	s := ex.State
	byteSwap := bitSet(instr, 22)
	rn := bits(instr, 19, 16)
	rd := bits(instr, 15, 12)
	rm := bits(instr, 3, 0)
	addr := s.Regs.R[rn]

	if byteSwap {
		old, cycles := ex.Bus.Read8(addr, ex.dataKind())
		ex.addCycles(cycles)
		wc := ex.Bus.Write8(addr, uint8(s.Regs.R[rm]), ex.dataKind())
		ex.addCycles(wc)
		s.Regs.R[rd] = uint32(old)
	} else {
		old, cycles := ex.Bus.Read32(addr, ex.dataKind())
		ex.addCycles(cycles)
		wc := ex.Bus.Write32(addr, s.Regs.R[rm], ex.dataKind())
		ex.addCycles(wc)
		s.Regs.R[rd] = rotateReadWord(old, addr)
	}
	ex.internalCycles++
}
