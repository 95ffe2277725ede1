package arm

import "armcore/memory"

func init() {
	registerARM(execSingleDataTransfer, func(idx uint32) bool {
		hi8 := idx >> 4
		return hi8 >= 0x40 && hi8 <= 0x7F
	})
	registerARM(execHalfwordTransfer, func(idx uint32) bool {
		hi8, lo4 := idx>>4, idx&0xF
		return hi8 <= 0x1F && (lo4 == 0xB || lo4 == 0xD || lo4 == 0xF)
	})
	registerARM(execBlockDataTransfer, func(idx uint32) bool {
		hi8 := idx >> 4
		return hi8 >= 0x80 && hi8 <= 0x9F
	})
}

// dataKind classifies an LDR/STR/LDM/STM access as non-sequential. Block
// transfers upgrade later beats in the same instruction to Sequential
// explicitly (see execBlockDataTransfer), matching real wait-state pricing:
// only the first word of a burst pays the non-sequential cost.
func (ex *Executor) dataKind() memory.AccessKind {
	return memory.NonSequential
}

// rotateReadWord applies the classic ARM misaligned-word-read quirk: a
// load whose address is not word-aligned returns the addressed word
// rotated right by (addr&3)*8 bits rather than faulting.
func rotateReadWord(val, addr uint32) uint32 {
	rot := (addr & 3) * 8
	if rot == 0 {
		return val
	}
	out, _ := barrelShift(shiftROR, val, rot, false, false)
	return out
}

// rotateReadHalf applies the analogous quirk for LDRH at an odd address,
// observed on GBA hardware: the fetched halfword is rotated right by 8
// instead of faulting.
func rotateReadHalf(val uint16, addr uint32) uint32 {
	if addr&1 == 0 {
		return uint32(val)
	}
	return uint32(val)>>8 | uint32(val)<<8&0xFF00
}

func singleTransferOffset(ex *Executor, instr uint32) uint32 {
	if !bitSet(instr, 25) {
		return bits(instr, 11, 0)
	}
	rm := ex.State.Regs.R[bits(instr, 3, 0)]
	shiftType := bits(instr, 6, 5)
	amount := bits(instr, 11, 7)
	off, _ := barrelShift(shiftType, rm, amount, amount == 0, ex.State.Regs.CPSR.C())
	return off
}

// execSingleDataTransfer handles LDR/STR, word or byte, immediate or
// register offset, pre/post-indexed with optional writeback.
func execSingleDataTransfer(ex *Executor, instr uint32) {
	s := ex.State
	pre := bitSet(instr, 24)
	up := bitSet(instr, 23)
	byteXfer := bitSet(instr, 22)
	writeback := bitSet(instr, 21)
	load := bitSet(instr, 20)
	rn := bits(instr, 19, 16)
	rd := bits(instr, 15, 12)

	offset := singleTransferOffset(ex, instr)
	base := s.Regs.R[rn]

	var addr uint32
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	} else {
		addr = base
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
		ex.internalCycles++ // register write-back / PC-load internal cycle
	} else {
		storeVal := s.Regs.R[rd]
		if rd == 15 {
			storeVal = s.Regs.R[15] // PC already reads pipelined (+8); the
			// further +4 some implementations add for STR PC is not
			// modeled here (documented simplification).
		}
		if byteXfer {
			cycles := ex.Bus.Write8(addr, uint8(storeVal), ex.dataKind())
			ex.addCycles(cycles)
		} else {
			cycles := ex.Bus.Write32(addr, storeVal, ex.dataKind())
			ex.addCycles(cycles)
		}
	}

	finalAddr := addr
	if !pre {
		if up {
			finalAddr = base + offset
		} else {
			finalAddr = base - offset
		}
	}
	if (!pre || writeback) && !(load && rd == rn) {
		s.Regs.R[rn] = finalAddr
	}

	if load && rd == 15 {
		ex.flushPipeline()
	}
}

// execHalfwordTransfer handles LDRH/STRH/LDRSB/LDRSH.
func execHalfwordTransfer(ex *Executor, instr uint32) {
	s := ex.State
	pre := bitSet(instr, 24)
	up := bitSet(instr, 23)
	immediate := bitSet(instr, 22)
	writeback := bitSet(instr, 21)
	load := bitSet(instr, 20)
	rn := bits(instr, 19, 16)
	rd := bits(instr, 15, 12)
	signed := bitSet(instr, 6)
	half := bitSet(instr, 5)

	var offset uint32
	if immediate {
		offset = bits(instr, 11, 8)<<4 | bits(instr, 3, 0)
	} else {
		offset = s.Regs.R[bits(instr, 3, 0)]
	}

	base := s.Regs.R[rn]
	var addr uint32
	if pre {
		if up {
			addr = base + offset
		} else {
			addr = base - offset
		}
	} else {
		addr = base
	}

	if load {
		switch {
		case !signed && half:
			v, cycles := ex.Bus.Read16(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[rd] = rotateReadHalf(v, addr)
		case signed && !half:
			v, cycles := ex.Bus.Read8(addr, ex.dataKind())
			ex.addCycles(cycles)
			s.Regs.R[rd] = uint32(signExtend(uint32(v), 8))
		case signed && half:
			v, cycles := ex.Bus.Read16(addr, ex.dataKind())
			ex.addCycles(cycles)
			if addr&1 != 0 {
				// Real hardware sign-extends the byte at addr when the
				// halfword access is misaligned, rather than rotating.
				s.Regs.R[rd] = uint32(signExtend(uint32(uint8(v)), 8))
			} else {
				s.Regs.R[rd] = uint32(signExtend(uint32(v), 16))
			}
		}
		ex.internalCycles++
	} else if !signed && half {
		cycles := ex.Bus.Write16(addr, uint16(s.Regs.R[rd]), ex.dataKind())
		ex.addCycles(cycles)
	}

	finalAddr := addr
	if !pre {
		if up {
			finalAddr = base + offset
		} else {
			finalAddr = base - offset
		}
	}
	if (!pre || writeback) && !(load && rd == rn) {
		s.Regs.R[rn] = finalAddr
	}
}

// execBlockDataTransfer handles LDM/STM across all four addressing modes
// (IA/IB/DA/DB), including the v4-documented empty-register-list edge case:
// an empty list transfers R15 alone and the base still moves by 0x40.
func execBlockDataTransfer(ex *Executor, instr uint32) {
	s := ex.State
	pre := bitSet(instr, 24)
	up := bitSet(instr, 23)
	psrForce := bitSet(instr, 22)
	writeback := bitSet(instr, 21)
	load := bitSet(instr, 20)
	rn := bits(instr, 19, 16)
	rlist := instr & 0xFFFF

	base := s.Regs.R[rn]
	count := 0
	for i := 0; i < 16; i++ {
		if rlist&(1<<i) != 0 {
			count++
		}
	}

	emptyList := count == 0
	span := uint32(count) * 4
	if emptyList {
		span = 0x40
	}

	var startAddr uint32
	if up {
		if pre {
			startAddr = base + 4
		} else {
			startAddr = base
		}
	} else {
		if pre {
			startAddr = base - span
		} else {
			startAddr = base - span + 4
		}
	}

	var newBase uint32
	if up {
		newBase = base + span
	} else {
		newBase = base - span
	}

	// User-bank register transfer (S bit set, no R15 in the list): access
	// the User-mode bank even from a privileged mode, without switching
	// CPSR.mode.
	forceUserBank := psrForce && !(rlist&(1<<15) != 0)

	addr := startAddr
	first := true
	kind := ex.dataKind()
	restoreCPSR := false

	for i := 0; i < 16; i++ {
		if !emptyList && rlist&(1<<i) == 0 {
			continue
		}
		reg := i
		if emptyList {
			reg = 15
		}

		accessKind := kind
		if !first {
			accessKind = memory.Sequential
		}
		first = false

		if load {
			v, cycles := ex.Bus.Read32(addr, accessKind)
			ex.addCycles(cycles)
			ex.writeBankedOrLive(reg, v, forceUserBank)
			if reg == 15 {
				if psrForce {
					restoreCPSR = true
				}
			}
		} else {
			v := ex.readBankedOrLive(reg, forceUserBank)
			cycles := ex.Bus.Write32(addr, v, accessKind)
			ex.addCycles(cycles)
		}

		if emptyList {
			break
		}
		addr += 4
	}

	if writeback && !(load && rlist&(1<<rn) != 0) {
		s.Regs.R[rn] = newBase
	} else if writeback && emptyList {
		s.Regs.R[rn] = newBase
	}

	if restoreCPSR {
		if sp := s.Regs.CurrentSPSR(); sp != nil {
			restored := *sp
			s.SetMode(restored.Mode())
			s.Regs.CPSR = restored
		}
	}
	if load && (rlist&(1<<15) != 0 || emptyList) {
		ex.flushPipeline()
	}
}

// writeBankedOrLive and readBankedOrLive implement the S-bit "force user
// bank" addressing mode LDM/STM use to let a privileged-mode handler save
// and restore User registers directly.
func (ex *Executor) writeBankedOrLive(reg int, v uint32, forceUser bool) {
	if !forceUser || ex.State.Regs.CPSR.Mode() == ModeUser {
		ex.State.Regs.R[reg] = v
		return
	}
	cur := ex.State.Regs.CPSR.Mode()
	ex.State.Regs.SwitchMode(cur, ModeUser)
	ex.State.Regs.R[reg] = v
	ex.State.Regs.SwitchMode(ModeUser, cur)
}

func (ex *Executor) readBankedOrLive(reg int, forceUser bool) uint32 {
	if !forceUser || ex.State.Regs.CPSR.Mode() == ModeUser {
		return ex.State.Regs.R[reg]
	}
	cur := ex.State.Regs.CPSR.Mode()
	ex.State.Regs.SwitchMode(cur, ModeUser)
	v := ex.State.Regs.R[reg]
	ex.State.Regs.SwitchMode(ModeUser, cur)
	return v
}
