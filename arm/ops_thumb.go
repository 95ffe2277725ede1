package arm

func init() {
	registerThumb(execThumbShift, rangeMatch(0x00, 0x17))
	registerThumb(execThumbAddSub, rangeMatch(0x18, 0x1F))
	registerThumb(execThumbImmediate, rangeMatch(0x20, 0x3F))
	registerThumb(execThumbALU, rangeMatch(0x40, 0x43))
	registerThumb(execThumbHiReg, rangeMatch(0x44, 0x47))
	registerThumb(execThumbPCRelLoad, rangeMatch(0x48, 0x4F))
	registerThumb(execThumbLoadStoreReg, func(idx uint32) bool {
		return idx >= 0x50 && idx <= 0x5F && idx&0x02 == 0
	})
	registerThumb(execThumbLoadStoreSignExt, func(idx uint32) bool {
		return idx >= 0x50 && idx <= 0x5F && idx&0x02 != 0
	})
	registerThumb(execThumbLoadStoreImm, rangeMatch(0x60, 0x7F))
	registerThumb(execThumbLoadStoreHalf, rangeMatch(0x80, 0x8F))
	registerThumb(execThumbSPRelative, rangeMatch(0x90, 0x9F))
	registerThumb(execThumbLoadAddress, rangeMatch(0xA0, 0xAF))
	registerThumb(execThumbAddSP, rangeMatch(0xB0, 0xB0))
	registerThumb(execThumbPushPop, func(idx uint32) bool {
		return idx == 0xB4 || idx == 0xB5 || idx == 0xBC || idx == 0xBD
	})
	registerThumb(execThumbMultiple, rangeMatch(0xC0, 0xCF))
	registerThumb(execThumbCondBranch, rangeMatch(0xD0, 0xDD))
	registerThumb(execThumbSWI, rangeMatch(0xDF, 0xDF))
	registerThumb(execThumbBranch, rangeMatch(0xE0, 0xE7))
	registerThumb(execThumbBranchLink, rangeMatch(0xF0, 0xFF))
}

func rangeMatch(lo, hi uint32) func(uint32) bool {
	return func(idx uint32) bool { return idx >= lo && idx <= hi }
}

func tbit(v uint16, n uint) bool { return (v>>n)&1 != 0 }
func tbits(v uint16, hi, lo uint) uint32 {
	width := hi - lo + 1
	mask := uint16(1)<<width - 1
	return uint32((v >> lo) & mask)
}

// execThumbShift: format 1, LSL/LSR/ASR Rd, Rs, #offset5.
func execThumbShift(ex *Executor, instr uint16) {
	s := ex.State
	op := tbits(instr, 12, 11)
	offset := tbits(instr, 10, 6)
	rs := s.Regs.R[tbits(instr, 5, 3)]
	rd := tbits(instr, 2, 0)

	var result uint32
	var carry bool
	switch op {
	case 0:
		result, carry = barrelShift(shiftLSL, rs, offset, false, s.Regs.CPSR.C())
	case 1:
		result, carry = barrelShift(shiftLSR, rs, offset, offset == 0, s.Regs.CPSR.C())
	case 2:
		result, carry = barrelShift(shiftASR, rs, offset, offset == 0, s.Regs.CPSR.C())
	}
	s.Regs.R[rd] = result
	s.Regs.CPSR = s.Regs.CPSR.WithN(result&0x80000000 != 0).WithZ(result == 0).WithC(carry)
}

// execThumbAddSub: format 2, ADD/SUB Rd, Rs, Rn|#imm3.
func execThumbAddSub(ex *Executor, instr uint16) {
	s := ex.State
	immediate := tbit(instr, 10)
	sub := tbit(instr, 9)
	rs := s.Regs.R[tbits(instr, 5, 3)]
	rd := tbits(instr, 2, 0)

	var operand uint32
	if immediate {
		operand = tbits(instr, 8, 6)
	} else {
		operand = s.Regs.R[tbits(instr, 8, 6)]
	}

	var result uint32
	var carry, overflow bool
	if sub {
		result, carry, overflow = addWithCarry(rs, ^operand, true)
	} else {
		result, carry, overflow = addWithCarry(rs, operand, false)
	}
	s.Regs.R[rd] = result
	s.Regs.CPSR = s.Regs.CPSR.WithNZCV(result&0x80000000 != 0, result == 0, carry, overflow)
}

// execThumbImmediate: format 3, MOV/CMP/ADD/SUB Rd, #imm8.
func execThumbImmediate(ex *Executor, instr uint16) {
	s := ex.State
	op := tbits(instr, 12, 11)
	rd := tbits(instr, 10, 8)
	imm := tbits(instr, 7, 0)
	rdVal := s.Regs.R[rd]

	switch op {
	case 0: // MOV
		s.Regs.R[rd] = imm
		s.Regs.CPSR = s.Regs.CPSR.WithN(false).WithZ(imm == 0)
	case 1: // CMP
		result, carry, overflow := addWithCarry(rdVal, ^imm, true)
		s.Regs.CPSR = s.Regs.CPSR.WithNZCV(result&0x80000000 != 0, result == 0, carry, overflow)
	case 2: // ADD
		result, carry, overflow := addWithCarry(rdVal, imm, false)
		s.Regs.R[rd] = result
		s.Regs.CPSR = s.Regs.CPSR.WithNZCV(result&0x80000000 != 0, result == 0, carry, overflow)
	case 3: // SUB
		result, carry, overflow := addWithCarry(rdVal, ^imm, true)
		s.Regs.R[rd] = result
		s.Regs.CPSR = s.Regs.CPSR.WithNZCV(result&0x80000000 != 0, result == 0, carry, overflow)
	}
}

// execThumbALU: format 4, the sixteen two-operand ALU ops.
func execThumbALU(ex *Executor, instr uint16) {
	s := ex.State
	op := tbits(instr, 9, 6)
	rs := s.Regs.R[tbits(instr, 5, 3)]
	rd := tbits(instr, 2, 0)
	rdVal := s.Regs.R[rd]
	c := s.Regs.CPSR.C()

	var result uint32
	var carry, overflow bool
	haveArith, haveShiftCarry, writeResult := false, false, true

	switch op {
	case 0x0: // AND
		result = rdVal & rs
	case 0x1: // EOR
		result = rdVal ^ rs
	case 0x2: // LSL
		result, carry = barrelShift(shiftLSL, rdVal, rs&0xFF, false, c)
		haveShiftCarry = true
		ex.internalCycles++
	case 0x3: // LSR
		amt := rs & 0xFF
		result, carry = barrelShift(shiftLSR, rdVal, amt, amt == 0, c)
		haveShiftCarry = true
		ex.internalCycles++
	case 0x4: // ASR
		amt := rs & 0xFF
		result, carry = barrelShift(shiftASR, rdVal, amt, amt == 0, c)
		haveShiftCarry = true
		ex.internalCycles++
	case 0x5: // ADC
		result, carry, overflow = addWithCarry(rdVal, rs, c)
		haveArith = true
	case 0x6: // SBC
		result, carry, overflow = addWithCarry(rdVal, ^rs, c)
		haveArith = true
	case 0x7: // ROR
		amt := rs & 0xFF
		result, carry = barrelShift(shiftROR, rdVal, amt, false, c)
		haveShiftCarry = true
		ex.internalCycles++
	case 0x8: // TST
		result = rdVal & rs
		writeResult = false
	case 0x9: // NEG
		result, carry, overflow = addWithCarry(0, ^rs, true)
		haveArith = true
	case 0xA: // CMP
		result, carry, overflow = addWithCarry(rdVal, ^rs, true)
		haveArith = true
		writeResult = false
	case 0xB: // CMN
		result, carry, overflow = addWithCarry(rdVal, rs, false)
		haveArith = true
		writeResult = false
	case 0xC: // ORR
		result = rdVal | rs
	case 0xD: // MUL
		result = rdVal * rs
		ex.internalCycles += mulIdleCycles(rs)
	case 0xE: // BIC
		result = rdVal &^ rs
	case 0xF: // MVN
		result = ^rs
	}

	if writeResult {
		s.Regs.R[rd] = result
	}

	n, z := result&0x80000000 != 0, result == 0
	switch {
	case haveArith:
		s.Regs.CPSR = s.Regs.CPSR.WithNZCV(n, z, carry, overflow)
	case haveShiftCarry:
		s.Regs.CPSR = s.Regs.CPSR.WithN(n).WithZ(z).WithC(carry)
	default:
		s.Regs.CPSR = s.Regs.CPSR.WithN(n).WithZ(z)
	}
}

// execThumbHiReg: format 5, ADD/CMP/MOV/BX across the R0-R15 range using the
// H1/H2 high-register-bank extension bits.
func execThumbHiReg(ex *Executor, instr uint16) {
	s := ex.State
	op := tbits(instr, 9, 8)
	h1 := tbit(instr, 7)
	h2 := tbit(instr, 6)
	rs := tbits(instr, 5, 3)
	rd := tbits(instr, 2, 0)
	if h2 {
		rs += 8
	}
	if h1 {
		rd += 8
	}

	rsVal := s.Regs.R[rs]
	if rs == 15 {
		rsVal = s.Regs.R[15] &^ 1
	}

	switch op {
	case 0: // ADD
		s.Regs.R[rd] = s.Regs.R[rd] + rsVal
		if rd == 15 {
			ex.flushPipeline()
		}
	case 1: // CMP
		result, carry, overflow := addWithCarry(s.Regs.R[rd], ^rsVal, true)
		s.Regs.CPSR = s.Regs.CPSR.WithNZCV(result&0x80000000 != 0, result == 0, carry, overflow)
	case 2: // MOV
		s.Regs.R[rd] = rsVal
		if rd == 15 {
			ex.flushPipeline()
		}
	case 3: // BX (and BLX in ARMv5TE when h1 set, not modeled separately)
		ex.flushPipelineTo(rsVal)
	}
}

// execThumbPCRelLoad: format 6, LDR Rd, [PC, #imm8*4].
func execThumbPCRelLoad(ex *Executor, instr uint16) {
	s := ex.State
	rd := tbits(instr, 10, 8)
	imm := tbits(instr, 7, 0) * 4
	addr := (s.Regs.R[15] &^ 2) + imm
	v, cycles := ex.Bus.Read32(addr, ex.dataKind())
	ex.addCycles(cycles)
	s.Regs.R[rd] = v
	ex.internalCycles++
}

// execThumbLoadStoreReg: format 7, LDR/STR{,B} Rd, [Rb, Ro].
func execThumbLoadStoreReg(ex *Executor, instr uint16) {
	s := ex.State
	load := tbit(instr, 11)
	byteXfer := tbit(instr, 10)
	ro := s.Regs.R[tbits(instr, 8, 6)]
	rb := s.Regs.R[tbits(instr, 5, 3)]
	rd := tbits(instr, 2, 0)
	addr := rb + ro

	if load {
		if byteXfer {
			v, cycles := ex.Bus.Read8(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[rd] = uint32(v)
		} else {
			v, cycles := ex.Bus.Read32(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[rd] = rotateReadWord(v, addr)
		}
		ex.internalCycles++
	} else if byteXfer {
		cycles := ex.Bus.Write8(addr, uint8(s.Regs.R[rd]), ex.dataKind())
		ex.addCycles(cycles)
	} else {
		cycles := ex.Bus.Write32(addr, s.Regs.R[rd], ex.dataKind())
		ex.addCycles(cycles)
	}
}

// execThumbLoadStoreSignExt: format 8, STRH/LDRH/LDSB/LDSH Rd, [Rb, Ro].
func execThumbLoadStoreSignExt(ex *Executor, instr uint16) {
	s := ex.State
	h := tbit(instr, 11)
	signed := tbit(instr, 10)
	ro := s.Regs.R[tbits(instr, 8, 6)]
	rb := s.Regs.R[tbits(instr, 5, 3)]
	rd := tbits(instr, 2, 0)
	addr := rb + ro

	switch {
	case !signed && !h: // STRH
		cycles := ex.Bus.Write16(addr, uint16(s.Regs.R[rd]), ex.dataKind())
		ex.addCycles(cycles)
	case !signed && h: // LDRH
		v, cycles := ex.Bus.Read16(addr, ex.dataKind())
		ex.addCycles(cycles)
		s.Regs.R[rd] = rotateReadHalf(v, addr)
		ex.internalCycles++
	case signed && !h: // LDSB
		v, cycles := ex.Bus.Read8(addr, ex.dataKind())
		ex.addCycles(cycles)
		s.Regs.R[rd] = uint32(signExtend(uint32(v), 8))
		ex.internalCycles++
	case signed && h: // LDSH
		v, cycles := ex.Bus.Read16(addr, ex.dataKind())
		ex.addCycles(cycles)
		if addr&1 != 0 {
			s.Regs.R[rd] = uint32(signExtend(uint32(uint8(v)), 8))
		} else {
			s.Regs.R[rd] = uint32(signExtend(uint32(v), 16))
		}
		ex.internalCycles++
	}
}

// execThumbLoadStoreImm: format 9, LDR/STR{,B} Rd, [Rb, #imm5].
func execThumbLoadStoreImm(ex *Executor, instr uint16) {
	s := ex.State
	byteXfer := tbit(instr, 12)
	load := tbit(instr, 11)
	offset := tbits(instr, 10, 6)
	rb := s.Regs.R[tbits(instr, 5, 3)]
	rd := tbits(instr, 2, 0)

	var addr uint32
	if byteXfer {
		addr = rb + offset
	} else {
		addr = rb + offset*4
	}

	if load {
		if byteXfer {
			v, cycles := ex.Bus.Read8(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[rd] = uint32(v)
		} else {
			v, cycles := ex.Bus.Read32(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[rd] = rotateReadWord(v, addr)
		}
		ex.internalCycles++
	} else if byteXfer {
		cycles := ex.Bus.Write8(addr, uint8(s.Regs.R[rd]), ex.dataKind())
		ex.addCycles(cycles)
	} else {
		cycles := ex.Bus.Write32(addr, s.Regs.R[rd], ex.dataKind())
		ex.addCycles(cycles)
	}
}

// execThumbLoadStoreHalf: format 10, LDRH/STRH Rd, [Rb, #imm5*2].
func execThumbLoadStoreHalf(ex *Executor, instr uint16) {
	s := ex.State
	load := tbit(instr, 11)
	offset := tbits(instr, 10, 6) * 2
	rb := s.Regs.R[tbits(instr, 5, 3)]
	rd := tbits(instr, 2, 0)
	addr := rb + offset

	if load {
		v, cycles := ex.Bus.Read16(addr, ex.dataKind())
		ex.addCycles(cycles)
		s.Regs.R[rd] = rotateReadHalf(v, addr)
		ex.internalCycles++
	} else {
		cycles := ex.Bus.Write16(addr, uint16(s.Regs.R[rd]), ex.dataKind())
		ex.addCycles(cycles)
	}
}

// execThumbSPRelative: format 11, LDR/STR Rd, [SP, #imm8*4].
func execThumbSPRelative(ex *Executor, instr uint16) {
	s := ex.State
	load := tbit(instr, 11)
	rd := tbits(instr, 10, 8)
	addr := s.Regs.R[13] + tbits(instr, 7, 0)*4

	if load {
		v, cycles := ex.Bus.Read32(addr, ex.dataKind())
		ex.addCycles(cycles)
		s.Regs.R[rd] = rotateReadWord(v, addr)
		ex.internalCycles++
	} else {
		cycles := ex.Bus.Write32(addr, s.Regs.R[rd], ex.dataKind())
		ex.addCycles(cycles)
	}
}

// execThumbLoadAddress: format 12, ADD Rd, PC|SP, #imm8*4.
func execThumbLoadAddress(ex *Executor, instr uint16) {
	s := ex.State
	useSP := tbit(instr, 11)
	rd := tbits(instr, 10, 8)
	imm := tbits(instr, 7, 0) * 4
	if useSP {
		s.Regs.R[rd] = s.Regs.R[13] + imm
	} else {
		s.Regs.R[rd] = (s.Regs.R[15] &^ 2) + imm
	}
}

// execThumbAddSP: format 13, ADD/SUB SP, #imm7*4.
func execThumbAddSP(ex *Executor, instr uint16) {
	s := ex.State
	negative := tbit(instr, 7)
	imm := tbits(instr, 6, 0) * 4
	if negative {
		s.Regs.R[13] -= imm
	} else {
		s.Regs.R[13] += imm
	}
}

// execThumbPushPop: format 14, PUSH/POP {Rlist{,LR/PC}}.
func execThumbPushPop(ex *Executor, instr uint16) {
	s := ex.State
	load := tbit(instr, 11)
	extra := tbit(instr, 8) // LR on push, PC on pop
	rlist := uint32(instr & 0xFF)

	count := 0
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) != 0 {
			count++
		}
	}
	if extra {
		count++
	}

	if load {
		addr := s.Regs.R[13]
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) == 0 {
				continue
			}
			v, cycles := ex.Bus.Read32(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[i] = v
			addr += 4
		}
		if extra {
			v, cycles := ex.Bus.Read32(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[15] = v &^ 1
			addr += 4
			ex.flushPipeline()
		}
		s.Regs.R[13] = addr
	} else {
		addr := s.Regs.R[13] - uint32(count)*4
		s.Regs.R[13] = addr
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) == 0 {
				continue
			}
			cycles := ex.Bus.Write32(addr, s.Regs.R[i], ex.dataKind())
			ex.addCycles(cycles)
			addr += 4
		}
		if extra {
			cycles := ex.Bus.Write32(addr, s.Regs.R[14], ex.dataKind())
			ex.addCycles(cycles)
		}
	}
}

// execThumbMultiple: format 15, LDMIA/STMIA Rb!, {Rlist}.
func execThumbMultiple(ex *Executor, instr uint16) {
	s := ex.State
	load := tbit(instr, 11)
	rb := tbits(instr, 10, 8)
	rlist := uint32(instr & 0xFF)
	base := s.Regs.R[rb]

	count := 0
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) != 0 {
			count++
		}
	}

	addr := base
	for i := 0; i < 8; i++ {
		if rlist&(1<<i) == 0 {
			continue
		}
		if load {
			v, cycles := ex.Bus.Read32(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[i] = v
		} else {
			cycles := ex.Bus.Write32(addr, s.Regs.R[i], ex.dataKind())
			ex.addCycles(cycles)
		}
		addr += 4
	}
	if !load || rlist&(1<<rb) == 0 {
		s.Regs.R[rb] = base + uint32(count)*4
	}
}

// execThumbCondBranch: format 16, B<cond> label.
func execThumbCondBranch(ex *Executor, instr uint16) {
	cond := tbits(instr, 11, 8)
	if !EvalCondition(cond, ex.State.Regs.CPSR) {
		return
	}
	offset := signExtend(tbits(instr, 7, 0), 8) * 2
	target := uint32(int64(ex.State.Regs.R[15]) + int64(offset))
	ex.State.Regs.R[15] = target
	ex.flushPipeline()
}

func execThumbSWI(ex *Executor, instr uint16) {
	ex.raiseSWI()
}

// execThumbBranch: format 18, unconditional B label.
func execThumbBranch(ex *Executor, instr uint16) {
	offset := signExtend(tbits(instr, 10, 0), 11) * 2
	target := uint32(int64(ex.State.Regs.R[15]) + int64(offset))
	ex.State.Regs.R[15] = target
	ex.flushPipeline()
}

// execThumbBranchLink: format 19, the two-halfword BL sequence.
func execThumbBranchLink(ex *Executor, instr uint16) {
	s := ex.State
	low := tbit(instr, 11)
	off := tbits(instr, 10, 0)

	if !low {
		signed := int64(signExtend(off, 11)) << 12
		s.Regs.R[14] = uint32(int64(s.Regs.R[15]) + signed)
		return
	}

	target := s.Regs.R[14] + off<<1
	nextInstr := ex.execPC | 1
	s.Regs.R[14] = nextInstr
	s.Regs.R[15] = target
	ex.flushPipeline()
}
