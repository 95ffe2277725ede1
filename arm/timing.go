package arm

import "armcore/memory"

// Bus is the interface the executor drives for every guest memory access. A
// single call both performs the access and reports how many cycles it cost,
// since on this core the two are never used independently (every access
// needs a cost for the scheduler to advance by).
type Bus interface {
	Read8(addr uint32, kind memory.AccessKind) (v uint8, cycles uint32)
	Read16(addr uint32, kind memory.AccessKind) (v uint16, cycles uint32)
	Read32(addr uint32, kind memory.AccessKind) (v uint32, cycles uint32)
	Write8(addr uint32, v uint8, kind memory.AccessKind) (cycles uint32)
	Write16(addr uint32, v uint16, kind memory.AccessKind) (cycles uint32)
	Write32(addr uint32, v uint32, kind memory.AccessKind) (cycles uint32)

	// CodeGeneration returns a value that changes whenever the word at addr
	// might no longer read back the same way it did last time (a write
	// landed on its page, or the page was remapped). The block cache uses
	// this so that enabling it never changes what the core executes, only
	// how fast it decodes it.
	CodeGeneration(addr uint32) uint32
}

// mulIdleCycles implements the early-termination rule real ARM7TDMI/
// ARM946E-S multipliers use: the internal multiply array stops scanning the
// moment the remaining bytes of the Rs operand are entirely 0 or entirely 1.
func mulIdleCycles(rs uint32) uint32 {
	if rs&0xFFFFFF00 == 0 || rs&0xFFFFFF00 == 0xFFFFFF00 {
		return 1
	}
	if rs&0xFFFF0000 == 0 || rs&0xFFFF0000 == 0xFFFF0000 {
		return 2
	}
	if rs&0xFF000000 == 0 || rs&0xFF000000 == 0xFF000000 {
		return 3
	}
	return 4
}
