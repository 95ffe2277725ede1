// Package arm implements the ARM7TDMI (ARMv4T) / ARM946E-S (ARMv5TE)
// interpreter core: register file, decode tables, ALU, exception and
// interrupt handling, and the top-level fetch/decode/execute loop.
package arm

import (
	"armcore/memory"
	"armcore/scheduler"
)

// EventHandler is invoked for every scheduler event the executor drains on
// its way into a Step, except scheduler.KindPause which the executor
// consumes itself to bound how much work a single Step call does.
type EventHandler func(kind scheduler.Kind, lateBy uint32)

// DebugHook runs before anything else in Step; returning true pauses the
// core for this call without advancing any state.
type DebugHook func(ex *Executor) bool

// Executor drives one ARM core: its register/status state, its view of
// memory, and the scheduler it shares with the rest of the owning system.
type Executor struct {
	State *State
	Bus   Bus
	Sched *scheduler.Scheduler

	OnEvent   EventHandler
	DebugHook DebugHook

	cache    *blockCache
	waitloop *waitloopDetector

	// execPC is the real address of the next instruction to fetch. While an
	// instruction's handler runs, execPC already points past it and
	// Regs.R[15] holds that instruction's own address plus the pipeline
	// offset, the value the architecture says PC reads as.
	execPC               uint32
	nextFetchNonSeq       bool
	internalCycles        uint32
	Cycles                uint64
}

// NewExecutor wires a core's state, bus, and scheduler together. The block
// cache and waitloop detector are both optional accelerations and start
// disabled; see EnableBlockCache/EnableWaitloop.
func NewExecutor(state *State, bus Bus, sched *scheduler.Scheduler) *Executor {
	ex := &Executor{State: state, Bus: bus, Sched: sched}
	ex.execPC = state.Regs.R[15]
	ex.nextFetchNonSeq = true
	return ex
}

func (ex *Executor) addCycles(n uint32) {
	if n == 0 {
		return
	}
	ex.Cycles += uint64(n)
	ex.Sched.Advance(n)
}

// flushPipeline is called by any handler that writes R15 directly (branches,
// data-processing into PC, loads into PC, BX). It reads the raw value the
// handler already stored in Regs.R[15], aligns it for the current
// instruction set, and marks the pipeline for refill on the next Step.
func (ex *Executor) flushPipeline() {
	target := ex.State.Regs.R[15]
	if ex.State.Regs.CPSR.T() {
		target &^= 1
	} else {
		target &^= 3
	}
	ex.execPC = target
	ex.State.pipelineValid = false
	ex.nextFetchNonSeq = true
}

// flushPipelineTo is the BX-style variant: bit 0 of target selects Thumb
// state directly, rather than using the current CPSR.T.
func (ex *Executor) flushPipelineTo(target uint32) {
	if target&1 != 0 {
		ex.State.Regs.CPSR = ex.State.Regs.CPSR.WithT(true)
		target &^= 1
	} else {
		ex.State.Regs.CPSR = ex.State.Regs.CPSR.WithT(false)
		target &^= 3
	}
	ex.execPC = target
	ex.State.pipelineValid = false
	ex.nextFetchNonSeq = true
}

func (ex *Executor) raiseUndefined() {
	ex.State.Raise(ExceptionUndefined, ex.execPC)
	ex.flushPipeline()
}

// raiseSWI enters the Supervisor exception, used by both ARM SWI and Thumb
// format-17 SWI.
func (ex *Executor) raiseSWI() {
	ex.State.Raise(ExceptionSWI, ex.execPC)
	ex.flushPipeline()
}

// refillPipeline marks the pipeline valid and republishes the visible PC.
// Actual extra cycle cost from a flush falls out naturally: the fetch right
// after a flush is billed as non-sequential (nextFetchNonSeq), which
// wait-state tables price higher than a sequential fetch.
func (ex *Executor) refillPipeline() {
	ex.State.Regs.R[15] = ex.execPC + ex.State.PipelineOffset()
	ex.State.pipelineValid = true
}

// Step runs the top-level loop: debugger hook, scheduler drain, pipeline
// refill, interrupt check, fetch/decode/dispatch.
func (ex *Executor) Step() {
	if ex.DebugHook != nil && ex.DebugHook(ex) {
		return
	}

	for ex.Sched.HasEvents() {
		kind, lateBy, _ := ex.Sched.PopDue()
		if kind == scheduler.KindPause {
			return
		}
		if ex.OnEvent != nil {
			ex.OnEvent(kind, lateBy)
		}
	}

	if ex.State.Halted {
		if !ex.Sched.HasEvents() {
			k, late := ex.Sched.PopNextForced()
			if k != scheduler.KindPause && ex.OnEvent != nil {
				ex.OnEvent(k, late)
			}
		}
		return
	}

	if !ex.State.pipelineValid {
		ex.refillPipeline()
	}

	if ex.State.serviceInterrupt(ex.execPC) {
		ex.flushPipeline()
		ex.addCycles(3)
		return
	}

	if ex.State.Regs.CPSR.T() {
		ex.stepThumb()
	} else {
		ex.stepARM()
	}
}

func (ex *Executor) fetchKind() memory.AccessKind {
	if ex.nextFetchNonSeq {
		ex.nextFetchNonSeq = false
		return memory.Code | memory.NonSequential
	}
	return memory.Code | memory.Sequential
}

func (ex *Executor) stepARM() {
	addr := ex.execPC
	kind := ex.fetchKind()

	if ex.cache != nil {
		gen := ex.Bus.CodeGeneration(addr)
		if instr, handler, cycles, ok := ex.cache.lookupARM(addr, gen); ok {
			ex.execPC += 4
			ex.State.Regs.R[15] = addr + 8
			ex.addCycles(cycles)
			if !EvalCondition(bits(instr, 31, 28), ex.State.Regs.CPSR) {
				return
			}
			handler(ex, instr)
			ex.addCycles(ex.drainInternal())
			if ex.waitloop != nil {
				ex.waitloop.observe(ex, addr)
			}
			return
		}
	}

	instr, cycles := ex.Bus.Read32(addr, kind)
	ex.execPC += 4
	ex.State.Regs.R[15] = addr + 8
	ex.addCycles(cycles)

	handler := armTable[armIndex(instr)]
	if ex.cache != nil {
		ex.cache.storeARM(addr, instr, handler, cycles, ex.Bus.CodeGeneration(addr))
	}

	if !EvalCondition(bits(instr, 31, 28), ex.State.Regs.CPSR) {
		return
	}
	handler(ex, instr)
	ex.addCycles(ex.drainInternal())

	if ex.waitloop != nil {
		ex.waitloop.observe(ex, addr)
	}
}

func (ex *Executor) stepThumb() {
	addr := ex.execPC
	kind := ex.fetchKind()

	instr16, cycles := ex.Bus.Read16(addr, kind)
	ex.execPC += 2
	ex.State.Regs.R[15] = addr + 4
	ex.addCycles(cycles)

	handler := thumbTable[thumbIndex(instr16)]
	handler(ex, instr16)
	ex.addCycles(ex.drainInternal())

	if ex.waitloop != nil {
		ex.waitloop.observe(ex, addr)
	}
}

func (ex *Executor) drainInternal() uint32 {
	n := ex.internalCycles
	ex.internalCycles = 0
	return n
}

// EnableBlockCache turns on the decoded-instruction cache. Enabling it must
// never change execution's observable trajectory, only its speed.
func (ex *Executor) EnableBlockCache() {
	ex.cache = newBlockCache()
}

// EnableWaitloop turns on the register-hash-guarded waitloop detector.
func (ex *Executor) EnableWaitloop() {
	ex.waitloop = newWaitloopDetector()
}
