package system

import "armcore/memory"

// busAdapter implements arm.Bus over a memory.Pager: it adds open-bus
// read-back behavior and write-discard behavior for unmapped addresses, and
// a single bus-wide generation counter the CPU's block cache uses to detect
// that memory it has cached may have changed. The counter is coarser than
// per-page but never wrong: any write anywhere bumps it, so a cache entry is
// never served past a write that could have touched it.
type busAdapter struct {
	pager      *memory.Pager
	generation uint32
	openBus    uint32
	cost       func(addr uint32, kind memory.AccessKind) uint32
}

func newBusAdapter(pager *memory.Pager, cost func(addr uint32, kind memory.AccessKind) uint32) *busAdapter {
	if cost == nil {
		cost = flatCycleCost
	}
	return &busAdapter{pager: pager, cost: cost}
}

func flatCycleCost(addr uint32, kind memory.AccessKind) uint32 { return 1 }

func (b *busAdapter) Read8(addr uint32, kind memory.AccessKind) (uint8, uint32) {
	if v, ok := b.pager.ReadU8(addr); ok {
		b.openBus = uint32(v)
		return v, b.cost(addr, kind)
	}
	return uint8(b.openBus), b.cost(addr, kind)
}

func (b *busAdapter) Read16(addr uint32, kind memory.AccessKind) (uint16, uint32) {
	if v, ok := b.pager.ReadU16(addr); ok {
		b.openBus = uint32(v)
		return v, b.cost(addr, kind)
	}
	return uint16(b.openBus), b.cost(addr, kind)
}

func (b *busAdapter) Read32(addr uint32, kind memory.AccessKind) (uint32, uint32) {
	if v, ok := b.pager.ReadU32(addr); ok {
		b.openBus = v
		return v, b.cost(addr, kind)
	}
	return b.openBus, b.cost(addr, kind)
}

func (b *busAdapter) Write8(addr uint32, v uint8, kind memory.AccessKind) uint32 {
	if b.pager.WriteU8(addr, v) {
		b.openBus = uint32(v)
		b.generation++
	}
	return b.cost(addr, kind)
}

func (b *busAdapter) Write16(addr uint32, v uint16, kind memory.AccessKind) uint32 {
	if b.pager.WriteU16(addr, v) {
		b.openBus = uint32(v)
		b.generation++
	}
	return b.cost(addr, kind)
}

func (b *busAdapter) Write32(addr uint32, v uint32, kind memory.AccessKind) uint32 {
	if b.pager.WriteU32(addr, v) {
		b.openBus = v
		b.generation++
	}
	return b.cost(addr, kind)
}

func (b *busAdapter) CodeGeneration(addr uint32) uint32 {
	return b.generation
}
