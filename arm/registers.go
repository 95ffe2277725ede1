package arm

// Mode is the 5-bit CPSR mode field. Values match the ARM architecture's
// own encoding so a raw CPSR bit pattern can be interpreted directly without
// a translation table.
type Mode uint32

const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "USR"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSupervisor:
		return "SVC"
	case ModeAbort:
		return "ABT"
	case ModeUndefined:
		return "UND"
	case ModeSystem:
		return "SYS"
	default:
		return "???"
	}
}

// privileged reports whether mode has a private SPSR and private R13/R14.
func (m Mode) privileged() bool {
	return m != ModeUser && m != ModeSystem
}

// bankIndex maps a mode to a slot in the R13/R14/SPSR bank arrays. User and
// System share index 0: System mode runs with User's bank.
func bankIndex(m Mode) int {
	switch m {
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSupervisor:
		return 3
	case ModeAbort:
		return 4
	case ModeUndefined:
		return 5
	default: // User, System
		return 0
	}
}

const numBanks = 6 // User/System, FIQ, IRQ, SVC, ABT, UND

// Registers holds the banked register file of a single ARM core.
//
// Banking without inheritance: the seven modes are a flat enum discriminant,
// and the banked registers live in flat per-mode arrays. A mode switch is a
// fixed copy-back/copy-in routine that swaps the active R8-R14 between the
// flat arrays and the sixteen live registers, with five extra banked
// registers (R8-R12) for FIQ only.
type Registers struct {
	// R is the live, currently-visible register file: R0-R15.
	R [16]uint32

	// CPSR is the current program status register.
	CPSR StatusRegister

	// fiqBank8to12 holds R8-R12 for FIQ (index 1) vs every other mode
	// (index 0): R8..R12 have a User value and an FIQ-shadow value.
	fiqBank8to12 [2][5]uint32

	// bankedR13, bankedR14 hold SP and LR per bankIndex. User and System
	// share slot 0.
	bankedR13 [numBanks]uint32
	bankedR14 [numBanks]uint32

	// spsr holds the saved program status register per privileged mode.
	// User and System have no SPSR; slot 0 (their bankIndex) is unused.
	spsr [numBanks]StatusRegister
}

// fiqSlot returns 1 while in FIQ mode, 0 otherwise — the index into
// fiqBank8to12.
func fiqSlot(m Mode) int {
	if m == ModeFIQ {
		return 1
	}
	return 0
}

// saveBank copies the live R8-R14 out to the banks for the mode currently
// active (m), before the live registers are overwritten for a different
// mode.
func (r *Registers) saveBank(m Mode) {
	fs := fiqSlot(m)
	copy(r.fiqBank8to12[fs][:], r.R[8:13])

	bi := bankIndex(m)
	r.bankedR13[bi] = r.R[13]
	r.bankedR14[bi] = r.R[14]
}

// loadBank copies the banked R8-R14 for mode m into the live register file.
func (r *Registers) loadBank(m Mode) {
	fs := fiqSlot(m)
	copy(r.R[8:13], r.fiqBank8to12[fs][:])

	bi := bankIndex(m)
	r.R[13] = r.bankedR13[bi]
	r.R[14] = r.bankedR14[bi]
}

// SwitchMode performs the atomic bank swap required whenever CPSR.mode
// changes: the outgoing mode's live R8..R14 are saved to its bank and the
// incoming mode's bank is restored atomically, before any further register
// access.
func (r *Registers) SwitchMode(from, to Mode) {
	if from == to {
		return
	}
	r.saveBank(from)
	r.loadBank(to)
}

// CurrentSPSR returns a pointer to the SPSR banked for the CPSR's current
// mode, or nil if the mode has none (User/System).
func (r *Registers) CurrentSPSR() *StatusRegister {
	m := r.CPSR.Mode()
	if !m.privileged() {
		return nil
	}
	return &r.spsr[bankIndex(m)]
}

// SPSRFor returns a pointer to the SPSR banked for mode m, or nil if m has
// none.
func (r *Registers) SPSRFor(m Mode) *StatusRegister {
	if !m.privileged() {
		return nil
	}
	return &r.spsr[bankIndex(m)]
}
