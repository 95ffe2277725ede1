package system

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"armcore/memory"
	"armcore/scheduler"
)

func newTestSystem() *System {
	return New(Config{ClockHz: 16_000_000})
}

// loadARM maps a fresh page at origin containing instrs encoded
// little-endian back to back, starting at offset 0.
func loadARM(sys *System, origin uint32, instrs ...uint32) {
	buf := make([]byte, memory.PageSize)
	for i, instr := range instrs {
		off := i * 4
		buf[off] = uint8(instr)
		buf[off+1] = uint8(instr >> 8)
		buf[off+2] = uint8(instr >> 16)
		buf[off+3] = uint8(instr >> 24)
	}
	sys.MapMemory(origin, memory.PageSize, buf, memory.RW)
}

func loadThumb(sys *System, origin uint32, instrs ...uint16) {
	buf := make([]byte, memory.PageSize)
	for i, instr := range instrs {
		off := i * 2
		buf[off] = uint8(instr)
		buf[off+1] = uint8(instr >> 8)
	}
	sys.MapMemory(origin, memory.PageSize, buf, memory.RW)
}

// TestMovImmediate: initial state, execute MOV R0, #5. After one step, R0=5
// and PC reads as 8 (two pipeline fetches ahead of the dispatched
// instruction).
func TestMovImmediate(t *testing.T) {
	sys := newTestSystem()
	loadARM(sys, 0, 0xE3A00005) // MOV R0, #5

	sys.Advance()

	assert.Equal(t, uint32(5), sys.State.Regs.R[0])
	assert.Equal(t, uint32(8), sys.State.Regs.R[15])
}

// TestAddWithCarryOut: from R1=0xFFFFFFFF, ADDS R0, R1, #1 yields R0=0,
// N=0, Z=1, C=1, V=0.
func TestAddWithCarryOut(t *testing.T) {
	sys := newTestSystem()
	sys.State.Regs.R[1] = 0xFFFFFFFF
	loadARM(sys, 0, 0xE2910001) // ADDS R0, R1, #1

	sys.Advance()

	assert.Equal(t, uint32(0), sys.State.Regs.R[0])
	assert.False(t, sys.State.Regs.CPSR.N())
	assert.True(t, sys.State.Regs.CPSR.Z())
	assert.True(t, sys.State.Regs.CPSR.C())
	assert.False(t, sys.State.Regs.CPSR.V())
}

// TestMapROMReadOnly: a ROM mapping ignores writes and still reads back its
// original content little-endian.
func TestMapROMReadOnly(t *testing.T) {
	sys := newTestSystem()
	rom := make([]byte, 32*1024)
	rom[0], rom[1], rom[2], rom[3] = 0x11, 0x22, 0x33, 0x44
	sys.MapMemory(0x08000000, 32*1024, rom, memory.RO)

	sys.WriteU8(0x08000010, 0xFF)
	assert.NotEqual(t, uint8(0xFF), rom[0x10])

	assert.Equal(t, uint32(0x44332211), sys.ReadU32(0x08000000))
}

// TestThumbStoreWordRoundTrip: from Thumb state with R7 as base, STR R0,[R7]
// writes R0's bytes little-endian to backing memory.
func TestThumbStoreWordRoundTrip(t *testing.T) {
	sys := newTestSystem()
	ram := make([]byte, memory.PageSize)
	sys.MapMemory(0x03000000, memory.PageSize, ram, memory.RW)

	loadThumb(sys, 0, 0x6038) // STR R0, [R7, #0]
	sys.State.Regs.CPSR = sys.State.Regs.CPSR.WithT(true)
	sys.State.Regs.R[7] = 0x03000000
	sys.State.Regs.R[0] = 0xDEADBEEF

	sys.Advance()

	assert.Equal(t, uint8(0xEF), sys.ReadU8(0x03000000))
	assert.Equal(t, uint8(0xBE), sys.ReadU8(0x03000001))
	assert.Equal(t, uint8(0xAD), sys.ReadU8(0x03000002))
	assert.Equal(t, uint8(0xDE), sys.ReadU8(0x03000003))
}

func TestRequestInterruptWakesHaltedCore(t *testing.T) {
	sys := newTestSystem()
	sys.State.IME = true
	sys.State.IE = 0x1
	sys.State.Halted = true

	sys.RequestInterrupt(0)

	assert.False(t, sys.State.Halted)
}

func TestAdvanceDeltaBoundsCycles(t *testing.T) {
	sys := New(Config{ClockHz: 1000})
	loadARM(sys, 0, 0xE1A00000) // MOV R0, R0; the rest of the page is zero words (ANDEQ, skipped while Z is clear)

	sys.AdvanceDelta(1) // full ClockHz worth of cycle budget

	assert.LessOrEqual(t, sys.Sched.Now(), uint32(sys.cfg.ClockHz)+8)
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	sys := newTestSystem()
	loadARM(sys, 0, 0xE3A0002A) // MOV R0, #42
	sys.Advance()
	sys.Sched.Schedule(scheduler.Kind(7), 500)

	buf, err := sys.SaveState()
	assert.NoError(t, err)

	sys2 := newTestSystem()
	assert.NoError(t, sys2.LoadState(buf))

	assert.Equal(t, sys.State.Regs.R, sys2.State.Regs.R)
	assert.Equal(t, sys.State.Regs.CPSR, sys2.State.Regs.CPSR)
	assert.Equal(t, sys.Sched.Now(), sys2.Sched.Now())
}
