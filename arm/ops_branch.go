package arm

func init() {
	registerARM(execBranch, func(idx uint32) bool {
		hi8 := idx >> 4
		return hi8 >= 0xA0 && hi8 <= 0xBF
	})
	registerARM(execBranchExchange, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		return hi8 == 0x12 && lo4 == 0x1
	})
	registerARM(execSWIInstruction, func(idx uint32) bool {
		hi8 := idx >> 4
		return hi8 >= 0xF0 && hi8 <= 0xFF
	})
}

// execBranch handles B and BL: PC-relative branch by a sign-extended
// 24-bit word offset (encoded as a byte count<<2... actually encoded
// directly as a word count, left-shifted by 2 here to get bytes).
func execBranch(ex *Executor, instr uint32) {
	link := bitSet(instr, 24)
	offset := signExtend(bits(instr, 23, 0), 24) * 4

	if link {
		ex.State.Regs.R[14] = ex.execPC
	}

	target := uint32(int64(ex.State.Regs.R[15]) + int64(offset))
	ex.State.Regs.R[15] = target
	ex.flushPipeline()
}

// execBranchExchange handles BX: branch to Rm, switching to Thumb state if
// Rm's bit 0 is set. The state switch is a side effect of BX, not a
// separately-encoded mode.
func execBranchExchange(ex *Executor, instr uint32) {
	target := ex.State.Regs.R[bits(instr, 3, 0)]
	ex.flushPipelineTo(target)
}

func execSWIInstruction(ex *Executor, instr uint32) {
	ex.raiseSWI()
}
