package memory

import "testing"

func TestMapAndReadWrite(t *testing.T) {
	p := New()
	ram := make([]byte, PageSize*2)
	p.Map(0x0300_0000, PageSize*2, ram, RW)

	if !p.WriteU32(0x0300_0000, 0xDEADBEEF) {
		t.Fatalf("expected write to mapped RW page to succeed")
	}
	v, ok := p.ReadU32(0x0300_0000)
	if !ok || v != 0xDEADBEEF {
		t.Fatalf("got v=%#x ok=%v, want 0xDEADBEEF", v, ok)
	}
	if ram[0] != 0xEF || ram[1] != 0xBE || ram[2] != 0xAD || ram[3] != 0xDE {
		t.Fatalf("expected little-endian byte layout in backing slice, got % x", ram[:4])
	}
}

func TestReadOfUnmappedReturnsNotOK(t *testing.T) {
	p := New()
	if _, ok := p.ReadU8(0x0800_0000); ok {
		t.Fatalf("expected unmapped read to report not-ok")
	}
}

func TestReadOnlyPageRejectsWrites(t *testing.T) {
	p := New()
	rom := make([]byte, PageSize)
	rom[0] = 0xAB
	p.Map(0x0800_0000, PageSize, rom, RO)

	if p.WriteU8(0x0800_0000, 0xFF) {
		t.Fatalf("expected write to RO page to fail")
	}
	if rom[0] != 0xAB {
		t.Fatalf("expected backing memory to be untouched by a rejected write")
	}
	v, ok := p.ReadU8(0x0800_0000)
	if !ok || v != 0xAB {
		t.Fatalf("got v=%#x ok=%v, want 0xAB", v, ok)
	}
}

func TestMirroringForPowerOfTwoBacking(t *testing.T) {
	p := New()
	// 16 KiB backing mirrored across a 32 KiB mapped range.
	rom := make([]byte, PageSize)
	rom[0] = 0x11
	rom[1] = 0x22
	rom[2] = 0x33
	rom[3] = 0x44
	p.Map(0x0800_0000, PageSize*2, rom, RO)

	v, ok := p.ReadU32(0x0800_0000)
	if !ok || v != 0x44332211 {
		t.Fatalf("got v=%#x ok=%v", v, ok)
	}
	v, ok = p.ReadU32(0x0800_0000 + PageSize)
	if !ok || v != 0x44332211 {
		t.Fatalf("expected mirrored page to echo the same content, got v=%#x ok=%v", v, ok)
	}
}

func TestMirroringForSubPageSizeBacking(t *testing.T) {
	p := New()
	// 4 KiB backing (smaller than the 16 KiB page) mirrored across a whole
	// page, and again across a second page.
	sram := make([]byte, 4096)
	sram[0] = 0x11
	sram[1] = 0x22
	sram[2] = 0x33
	sram[3] = 0x44
	p.Map(0x0A00_0000, PageSize*2, sram, RW)

	for _, addr := range []uint32{
		0x0A00_0000,          // start of backing
		0x0A00_0000 + 4096,   // first in-page repeat
		0x0A00_0000 + 4096*3, // last in-page repeat
		0x0A00_0000 + PageSize,          // mirrored into the second page
		0x0A00_0000 + PageSize + 4096*2, // second page, later repeat
	} {
		v, ok := p.ReadU32(addr)
		if !ok || v != 0x44332211 {
			t.Fatalf("addr=%#x: got v=%#x ok=%v, want 0x44332211", addr, v, ok)
		}
	}

	// A write through one mirror is visible through every other mirror,
	// since they all share the same backing buffer.
	if !p.WriteU8(0x0A00_0000+4096, 0xAA) {
		t.Fatalf("expected write to mirrored sub-page backing to succeed")
	}
	if sram[0] != 0xAA {
		t.Fatalf("expected write through a repeat to land on byte 0 of backing, got %#x", sram[0])
	}
	v, ok := p.ReadU8(0x0A00_0000 + PageSize + 4096*3)
	if !ok || v != 0xAA {
		t.Fatalf("expected the write to be visible through every mirror, got v=%#x ok=%v", v, ok)
	}
}

func TestUnmapPreservesDirtyFlagForCacheInvalidation(t *testing.T) {
	p := New()
	ram := make([]byte, PageSize)
	p.Map(0x0200_0000, PageSize, ram, RW)
	p.Unmap(0x0200_0000, PageSize)

	if p.Mapped(0x0200_0000) {
		t.Fatalf("expected page to be unmapped")
	}
	if p.PageFlags(0x0200_0000)&DIRTY == 0 {
		t.Fatalf("expected DIRTY flag to survive Unmap for cache invalidation")
	}
}

func TestWriteSetsDirtyFlag(t *testing.T) {
	p := New()
	ram := make([]byte, PageSize)
	p.Map(0x0300_0000, PageSize, ram, RW)

	if p.PageFlags(0x0300_0000)&DIRTY != 0 {
		t.Fatalf("expected page to start clean")
	}
	p.WriteU8(0x0300_0000, 1)
	if p.PageFlags(0x0300_0000)&DIRTY == 0 {
		t.Fatalf("expected write to set DIRTY")
	}
}

func TestNoAllocationShapeOnAccess(t *testing.T) {
	// Not a literal allocation-count test (that needs testing.AllocsPerRun
	// and a benchmark harness); this exercises the hot path enough that a
	// `go test -run TestNoAllocationShapeOnAccess -bench` wrapper could be
	// layered on top without changing Pager's API.
	p := New()
	ram := make([]byte, PageSize)
	p.Map(0x0200_0000, PageSize, ram, RW)
	for i := uint32(0); i < 1000; i++ {
		p.WriteU8(0x0200_0000+(i%PageSize), uint8(i))
		p.ReadU8(0x0200_0000 + (i % PageSize))
	}
}
