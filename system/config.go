package system

import (
	"armcore/arm"
	"armcore/memory"
)

// Config configures a System's clock, optional accelerators, and cycle
// costing. There is no config surface at the core level in the narrow
// sense (no files, no network, no persisted settings) — this is a plain
// struct of constructor knobs, set by the owning host and passed once to
// New, the same shape as the reference ARM interpreter's
// prefs/architecture/clock fields.
type Config struct {
	// Arch selects ARMv4T (GBA, ARM7TDMI) or ARMv5TE (NDS ARM9, ARM946E-S).
	Arch arm.Arch

	// ClockHz is the core's nominal clock rate, used by AdvanceDelta to
	// convert a wall-clock duration into a cycle budget.
	ClockHz float64

	// SpeedMultiplier scales ClockHz, e.g. for a host-requested fast-forward.
	// Zero is treated as 1.
	SpeedMultiplier float64

	// HighVectors relocates the exception vector table to 0xFFFF0000
	// (ARMv5TE only; ignored for ARMv4T).
	HighVectors bool

	// EnableBlockCache and EnableWaitloop turn on the two optional executor
	// accelerators. Both are pure speed optimizations with no effect on
	// observable CPU state.
	EnableBlockCache bool
	EnableWaitloop   bool

	// CycleCost prices one bus access. Nil means every access costs a flat
	// 1 cycle; a host wiring real wait-state tables (ROM/WRAM/VRAM regions)
	// supplies its own function here.
	CycleCost func(addr uint32, kind memory.AccessKind) uint32

	// Volume scales samples copied out by ProduceSamples.
	Volume float32
}
