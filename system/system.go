// Package system wires the CPU core, paged memory facade, and scheduler
// into the single aggregate object the rest of a host emulator drives.
//
// The CPU must call back into memory and the scheduler on every instruction;
// rather than model that as cyclic ownership, System owns CPU state,
// executor, pager, and scheduler as sibling fields and passes itself (via
// the bus adapter) down into the executor's dispatch path.
package system

import (
	"armcore/arm"
	"armcore/memory"
	"armcore/scheduler"
)

// System is one ARM core plus its memory facade and scheduler: the unit a
// host emulator creates one of per CPU (two, for an NDS DualSystem).
type System struct {
	State    *arm.State
	Executor *arm.Executor
	Pager    *memory.Pager
	Sched    *scheduler.Scheduler

	bus     *busAdapter
	cfg     Config
	ticking bool
}

// New constructs a System from cfg: a fresh register file reset to the
// architectural power-on state, an empty page table, a scheduler at time
// zero, and an executor wired across all three.
func New(cfg Config) *System {
	if cfg.SpeedMultiplier == 0 {
		cfg.SpeedMultiplier = 1
	}

	st := arm.NewState(cfg.Arch)
	st.HighVectors = cfg.HighVectors && cfg.Arch == arm.ARMv5TE

	pager := memory.New()
	sched := scheduler.New()
	bus := newBusAdapter(pager, cfg.CycleCost)
	ex := arm.NewExecutor(st, bus, sched)

	if cfg.EnableBlockCache {
		ex.EnableBlockCache()
	}
	if cfg.EnableWaitloop {
		ex.EnableWaitloop()
	}

	return &System{State: st, Executor: ex, Pager: pager, Sched: sched, bus: bus, cfg: cfg}
}

// Advance single-steps one instruction.
func (s *System) Advance() {
	s.Executor.Step()
}

// AdvanceDelta computes a target cycle count from seconds, ClockHz, and
// SpeedMultiplier, schedules a pause-emulation sentinel at that offset, and
// runs the dispatch loop until the virtual clock reaches the offset (or
// until Pause is called). The loop stops on that clock check, not on the
// sentinel: the sentinel, and any event that became due during the last
// instruction, stay pending and are drained by the next Step, which
// executes no instruction when it pops the sentinel.
func (s *System) AdvanceDelta(seconds float32) {
	targetCycles := uint32(s.cfg.ClockHz * float64(seconds) * s.cfg.SpeedMultiplier)
	deadline := s.Sched.Now() + targetCycles
	s.Sched.Schedule(scheduler.KindPause, int64(targetCycles))

	s.ticking = true
	for s.ticking && s.Sched.Now() < deadline {
		s.Executor.Step()
	}
}

// Pause stops the current AdvanceDelta or ProduceSamples loop before its
// budget is exhausted. Used by a host frontend that needs to interrupt a
// frame early (e.g. the user requested emulation stop mid-frame).
func (s *System) Pause() {
	s.ticking = false
}

// RequestInterrupt sets bit `index` of the IF latch and, if the core is
// halted on a now-pending enabled interrupt, wakes it immediately.
func (s *System) RequestInterrupt(index uint32) {
	s.State.RequestInterrupt(1 << index)
}

// MapMemory installs a backing buffer for [origin, origin+length) and
// invalidates the block cache's generation so any stale cached fetches in
// that range are no longer served.
func (s *System) MapMemory(origin, length uint32, backing []byte, flags memory.Flags) {
	s.Pager.Map(origin, length, backing, flags)
	s.bus.generation++
}

// UnmapMemory removes the mapping for [origin, origin+length).
func (s *System) UnmapMemory(origin, length uint32) {
	s.Pager.Unmap(origin, length)
	s.bus.generation++
}

// ReadU8, ReadU16, ReadU32 are the debugger/inspection slow path: they go
// straight through the bus adapter, never through the CPU's block cache,
// and are tagged memory.DMA since they do not originate from the CPU's own
// fetch/execute stream.
func (s *System) ReadU8(addr uint32) uint8 {
	v, _ := s.bus.Read8(addr, memory.DMA)
	return v
}

func (s *System) ReadU16(addr uint32) uint16 {
	v, _ := s.bus.Read16(addr, memory.DMA)
	return v
}

func (s *System) ReadU32(addr uint32) uint32 {
	v, _ := s.bus.Read32(addr, memory.DMA)
	return v
}

func (s *System) WriteU8(addr uint32, v uint8) {
	s.bus.Write8(addr, v, memory.DMA)
}

func (s *System) WriteU16(addr uint32, v uint16) {
	s.bus.Write16(addr, v, memory.DMA)
}

func (s *System) WriteU32(addr uint32, v uint32) {
	s.bus.Write32(addr, v, memory.DMA)
}
