package arm

// Shift types as encoded in bits[6:5] of a data-processing operand2.
const (
	shiftLSL = 0
	shiftLSR = 1
	shiftASR = 2
	shiftROR = 3
)

// barrelShift applies one of the four shift types to val, producing the
// shifter's output and its carry-out, following the ARM-documented special
// cases for a zero immediate shift amount (LSR/ASR #0 mean #32; ROR #0 means
// RRX through the current carry) and for a register-specified shift amount
// of zero or >=32.
func barrelShift(shiftType uint32, val uint32, amount uint32, immediateZero bool, carryIn bool) (result uint32, carryOut bool) {
	switch shiftType {
	case shiftLSL:
		switch {
		case amount == 0:
			return val, carryIn
		case amount < 32:
			return val << amount, bitSet(val, uint(32-amount))
		case amount == 32:
			return 0, val&1 != 0
		default:
			return 0, false
		}
	case shiftLSR:
		if immediateZero {
			amount = 32
		}
		switch {
		case amount == 0:
			return val, carryIn
		case amount < 32:
			return val >> amount, bitSet(val, uint(amount-1))
		case amount == 32:
			return 0, val&0x80000000 != 0
		default:
			return 0, false
		}
	case shiftASR:
		if immediateZero {
			amount = 32
		}
		switch {
		case amount == 0:
			return val, carryIn
		case amount < 32:
			return uint32(int32(val) >> amount), bitSet(val, uint(amount-1))
		default:
			if val&0x80000000 != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
	case shiftROR:
		if immediateZero {
			// RRX: 33-bit rotate right through the carry flag.
			out := val>>1 | b32(carryIn)<<31
			return out, val&1 != 0
		}
		if amount == 0 {
			return val, carryIn
		}
		amount &= 31
		if amount == 0 {
			return val, val&0x80000000 != 0
		}
		out := val>>amount | val<<(32-amount)
		return out, bitSet(val, uint(amount-1))
	}
	panic("arm: unreachable shift type")
}

func b32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// addWithCarry computes a+b+carryIn and returns the NZCV-relevant carry and
// signed-overflow outputs, the primitive behind ADD/ADC/CMN and (via operand
// negation) SUB/SBC/RSB/RSC/CMP.
func addWithCarry(a, b uint32, carryIn bool) (result uint32, carryOut, overflow bool) {
	wide := uint64(a) + uint64(b) + uint64(b32(carryIn))
	result = uint32(wide)
	carryOut = wide > 0xFFFFFFFF
	signA, signB, signR := a&0x80000000 != 0, b&0x80000000 != 0, result&0x80000000 != 0
	overflow = signA == signB && signR != signA
	return
}

// dataProcOpcode is the 4-bit field selecting one of the sixteen ALU
// operations.
type dataProcOpcode uint32

const (
	opAND dataProcOpcode = iota
	opEOR
	opSUB
	opRSB
	opADD
	opADC
	opSBC
	opRSC
	opTST
	opTEQ
	opCMP
	opCMN
	opORR
	opMOV
	opBIC
	opMVN
)

var logicalOpcode = [16]bool{
	opAND: true, opEOR: true, opTST: true, opTEQ: true,
	opORR: true, opMOV: true, opBIC: true, opMVN: true,
}

// testOnly opcodes (TST/TEQ/CMP/CMN) compute flags and discard the result.
var testOnlyOpcode = [16]bool{opTST: true, opTEQ: true, opCMP: true, opCMN: true}

func init() {
	registerARM(execDataProcessing, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		if hi8 > 0x3F {
			return false
		}
		// TST/TEQ/CMP/CMN without S encode MRS/MSR/BX, not data processing.
		if hi8&0x19 == 0x10 {
			return false
		}
		// Register form with bits 7 and 4 both set is multiply/halfword space.
		return !(hi8 < 0x20 && lo4&0x9 == 0x9)
	})
}

// execDataProcessing decodes and executes a data-processing instruction.
// Bit layout: cond[31:28] 00 I[25] opcode[24:21] S[20] Rn[19:16] Rd[15:12]
// operand2[11:0].
func execDataProcessing(ex *Executor, instr uint32) {
	s := ex.State
	immediate := bitSet(instr, 25)
	opcode := dataProcOpcode(bits(instr, 24, 21))
	setFlags := bitSet(instr, 20)
	rn := bits(instr, 19, 16)
	rd := bits(instr, 15, 12)

	carryIn := s.Regs.CPSR.C()
	var op2 uint32
	var shiftCarry bool

	if immediate {
		imm := bits(instr, 7, 0)
		rotate := bits(instr, 11, 8) * 2
		if rotate == 0 {
			op2, shiftCarry = imm, carryIn
		} else {
			op2, shiftCarry = barrelShift(shiftROR, imm, rotate, false, carryIn)
		}
	} else {
		rm := s.Regs.R[bits(instr, 3, 0)]
		shiftType := bits(instr, 6, 5)
		if bitSet(instr, 4) {
			// Register-specified shift amount: only the low byte of Rs
			// counts, and using R15 as Rm reads PC+12 (one extra word
			// of pipeline offset versus the immediate-shift case).
			if bits(instr, 3, 0) == 15 {
				rm += 4
			}
			rs := s.Regs.R[bits(instr, 11, 8)] & 0xFF
			ex.internalCycles++ // register-specified shift costs one extra internal cycle
			op2, shiftCarry = barrelShift(shiftType, rm, rs, false, carryIn)
		} else {
			amount := bits(instr, 11, 7)
			op2, shiftCarry = barrelShift(shiftType, rm, amount, amount == 0, carryIn)
		}
	}

	rnVal := s.Regs.R[rn]

	var result uint32
	var carryOut, overflow bool
	haveArith := false

	switch opcode {
	case opAND:
		result = rnVal & op2
	case opEOR:
		result = rnVal ^ op2
	case opSUB:
		result, carryOut, overflow = addWithCarry(rnVal, ^op2, true)
		haveArith = true
	case opRSB:
		result, carryOut, overflow = addWithCarry(op2, ^rnVal, true)
		haveArith = true
	case opADD:
		result, carryOut, overflow = addWithCarry(rnVal, op2, false)
		haveArith = true
	case opADC:
		result, carryOut, overflow = addWithCarry(rnVal, op2, carryIn)
		haveArith = true
	case opSBC:
		result, carryOut, overflow = addWithCarry(rnVal, ^op2, carryIn)
		haveArith = true
	case opRSC:
		result, carryOut, overflow = addWithCarry(op2, ^rnVal, carryIn)
		haveArith = true
	case opTST:
		result = rnVal & op2
	case opTEQ:
		result = rnVal ^ op2
	case opCMP:
		result, carryOut, overflow = addWithCarry(rnVal, ^op2, true)
		haveArith = true
	case opCMN:
		result, carryOut, overflow = addWithCarry(rnVal, op2, false)
		haveArith = true
	case opORR:
		result = rnVal | op2
	case opMOV:
		result = op2
	case opBIC:
		result = rnVal &^ op2
	case opMVN:
		result = ^op2
	}

	if setFlags {
		if rd == 15 && !testOnlyOpcode[opcode] {
			// "S bit with Rd=R15" restores CPSR from SPSR instead of
			// updating flags directly.
			if sp := s.Regs.CurrentSPSR(); sp != nil {
				restored := *sp
				s.SetMode(restored.Mode())
				s.Regs.CPSR = restored
			}
		} else {
			n := result&0x80000000 != 0
			z := result == 0
			if haveArith {
				s.Regs.CPSR = s.Regs.CPSR.WithNZCV(n, z, carryOut, overflow)
			} else {
				s.Regs.CPSR = s.Regs.CPSR.WithN(n).WithZ(z).WithC(shiftCarry)
			}
		}
	}

	if testOnlyOpcode[opcode] {
		return
	}

	s.Regs.R[rd] = result
	if rd == 15 {
		ex.flushPipeline()
	}
}
