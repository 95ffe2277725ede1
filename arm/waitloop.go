package arm

import "armcore/scheduler"

// waitloopDetector recognizes an idle spin made of a single instruction that
// branches to its own address (e.g. "B .") and, once recognized, collapses
// remaining iterations into a single scheduler advance instead of
// interpreting each one. Loops of two or more instructions, such as
// "loop: LDR r0,[IF]; CMP r0,#0; BEQ loop", are not detected. Detection is
// guarded by a hash of R0-R15 and the CPSR, so an iteration that changes
// any of them is not short-circuited.
//
// Detection only fires on a loop that returns to the exact same PC with the
// exact same visible register file twice in a row; any difference (a
// volatile MMIO read changed a register, a counter incremented) disqualifies
// it for that visit.
type waitloopDetector struct {
	lastPC   uint32
	lastHash uint64
	lastSet  bool
	repeats  int
}

const waitloopConfirmRepeats = 2

func newWaitloopDetector() *waitloopDetector {
	return &waitloopDetector{}
}

func hashRegisters(ex *Executor) uint64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	mix := func(v uint32) {
		h ^= uint64(v)
		h *= 1099511628211
	}
	for _, r := range ex.State.Regs.R {
		mix(r)
	}
	mix(uint32(ex.State.Regs.CPSR))
	return h
}

// observe is called once per instruction with addr, the address the
// just-executed instruction was fetched from. It tracks whether execution
// has returned to the same address with an otherwise-unchanged register
// file, and if so, asks the scheduler to fast-forward to its next due event
// instead of single-stepping an idle spin.
func (w *waitloopDetector) observe(ex *Executor, addr uint32) {
	if ex.execPC != addr {
		// Not a tight single-instruction loop back to itself; nothing to
		// collapse. (Multi-instruction loop bodies are deliberately out of
		// scope: the register hash alone cannot safely distinguish a
		// useful multi-instruction spin from one that is polling hardware
		// that changes every iteration.)
		w.lastSet = false
		w.repeats = 0
		return
	}

	h := hashRegisters(ex)
	if w.lastSet && w.lastPC == addr && w.lastHash == h {
		w.repeats++
	} else {
		w.repeats = 1
	}
	w.lastPC, w.lastHash, w.lastSet = addr, h, true

	if w.repeats < waitloopConfirmRepeats {
		return
	}

	if !ex.Sched.HasEvents() {
		kind, lateBy := ex.Sched.PopNextForced()
		if kind != scheduler.KindPause && ex.OnEvent != nil {
			ex.OnEvent(kind, lateBy)
		}
		w.repeats = 0
	}
}
