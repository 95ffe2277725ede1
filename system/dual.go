package system

// DualSystem coordinates the NDS's two cores: an ARM946E-S (ARM9) running
// at full rate and an ARM7TDMI (ARM7) running at half that rate, each with
// its own memory facade (shared RAM pages and the IPC FIFO are wired by
// mapping the same backing buffer into both Systems' Pagers, not by sharing
// a Pager).
//
// The two do not share one scheduler.Scheduler instance: each Executor
// unconditionally advances whatever scheduler it holds by its own cycle
// cost, so sharing one pointer between both cores would double-advance
// virtual time. Instead ARM9's scheduler is the master clock, and ARM7's
// own Executor.Cycles counter is its private time counter, compared against
// the ARM9 side on the ARM9:ARM7 clock ratio after every ARM9 instruction.
type DualSystem struct {
	ARM9 *System
	ARM7 *System

	arm7Target uint64
}

// NewDual constructs the ARM9 and ARM7 Systems from their respective
// configs. Callers typically set cfg9.ClockHz to twice cfg7.ClockHz.
func NewDual(cfg9, cfg7 Config) *DualSystem {
	return &DualSystem{
		ARM9: New(cfg9),
		ARM7: New(cfg7),
	}
}

// StepPair advances the ARM9 core by one instruction, then runs the ARM7
// core until its private cycle counter has caught up to the ARM9 side at
// half rate.
func (d *DualSystem) StepPair() {
	d.ARM9.Executor.Step()

	d.arm7Target = d.ARM9.Executor.Cycles / 2
	for d.ARM7.Executor.Cycles < d.arm7Target {
		d.ARM7.Executor.Step()
	}
}

// AdvanceDelta runs StepPair until the ARM9 scheduler's virtual clock has
// advanced by the cycle budget computed from seconds, ARM9's ClockHz, and
// ARM9's SpeedMultiplier.
func (d *DualSystem) AdvanceDelta(seconds float32) {
	targetCycles := uint32(d.ARM9.cfg.ClockHz * float64(seconds) * d.ARM9.cfg.SpeedMultiplier)
	deadline := d.ARM9.Sched.Now() + targetCycles

	d.ARM9.ticking = true
	for d.ARM9.ticking && d.ARM9.Sched.Now() < deadline {
		d.StepPair()
	}
}
