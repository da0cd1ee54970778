package hart

import "log"

// TrapKind distinguishes a synchronous exception from an asynchronous
// interrupt; both share the cause/value encoding of mcause/mtval.
type TrapKind uint8

const (
	NoTrap TrapKind = iota
	ExceptionTrap
	InterruptTrap
)

// Exception causes (low bits of mcause/scause when the interrupt bit
// is clear).
const (
	CauseInstrAddrMisaligned = 0
	CauseInstrAccessFault    = 1
	CauseIllegalInstruction  = 2
	CauseBreakpoint          = 3
	CauseLoadAddrMisaligned  = 4
	CauseLoadAccessFault     = 5
	CauseStoreAddrMisaligned = 6
	CauseStoreAccessFault    = 7
	CauseEcallFromU          = 8
	CauseEcallFromS          = 9
	CauseEcallFromM          = 11
	CauseInstrPageFault      = 12
	CauseLoadPageFault       = 13
	CauseStorePageFault      = 15
)

// Interrupt causes (low bits of mcause/scause when the interrupt bit
// is set; mcauseInterruptBit is ORed in at delivery time).
const (
	CauseSSoftwareInterrupt = 1
	CauseMSoftwareInterrupt = 3
	CauseSTimerInterrupt    = 5
	CauseMTimerInterrupt    = 7
	CauseSExternalInterrupt = 9
	CauseMExternalInterrupt = 11
)

const mcauseInterruptBit = uint64(1) << 63

// Trap carries a pending synchronous exception or delivered interrupt.
type Trap struct {
	Kind  TrapKind
	Cause uint64
	Value uint64
}

// Classification is how the hart driver should react to a trap once
// it reaches the top of the loop.
type Classification uint8

const (
	ClassNone Classification = iota
	ClassFatal
	ClassRequested
	ClassInvisible
)

// classify maps a cause to the driver's reaction: access faults and
// illegal instructions halt the emulator, ecall/breakpoint run their
// handler and continue, page faults do the same without logging.
func classify(cause uint64) Classification {
	switch cause {
	case CauseIllegalInstruction, CauseInstrAccessFault, CauseLoadAccessFault,
		CauseStoreAccessFault, CauseInstrAddrMisaligned, CauseLoadAddrMisaligned,
		CauseStoreAddrMisaligned:
		return ClassFatal
	case CauseBreakpoint, CauseEcallFromU, CauseEcallFromS, CauseEcallFromM:
		return ClassRequested
	case CauseInstrPageFault, CauseLoadPageFault, CauseStorePageFault:
		return ClassInvisible
	default:
		// Interrupts are always serviced and never fatal.
		return ClassRequested
	}
}

// pollInterrupt scans pending interrupts in priority order (machine
// external/software/timer, then the supervisor three) and returns the
// mcause-style cause (interrupt bit not yet set) of the first one that
// passes the enable gate.
func (h *Hart) pollInterrupt() (cause uint64, ok bool) {
	mip := h.csr.raw[csrMIP]
	mie := h.csr.raw[csrMIE]
	pending := mip & mie

	order := [...]uint64{
		CauseMExternalInterrupt,
		CauseMSoftwareInterrupt,
		CauseMTimerInterrupt,
		CauseSExternalInterrupt,
		CauseSSoftwareInterrupt,
		CauseSTimerInterrupt,
	}
	for _, c := range order {
		if pending&(1<<c) == 0 {
			continue
		}
		if h.irqEnabled(c) {
			return c, true
		}
	}
	return 0, false
}

// irqEnabled gates an interrupt by its delegated target mode: refuse
// if the target is below the current mode, require the matching global
// enable when equal, always accept when above.
func (h *Hart) irqEnabled(cause uint64) bool {
	target := h.delegatedInterruptTarget(cause)
	switch {
	case target < h.Mode:
		return false
	case target == h.Mode:
		if target == Machine {
			return h.csr.raw[csrMSTATUS]&mstatusMIE != 0
		}
		return h.csr.raw[csrMSTATUS]&mstatusSIE != 0
	default:
		return true
	}
}

func (h *Hart) delegatedInterruptTarget(cause uint64) Mode {
	if h.csr.raw[csrMIDELEG]&(1<<cause) == 0 {
		return Machine
	}
	return Supervisor
}

// delegatedTarget selects the lowest privilege mode that will handle a
// synchronous exception, via medeleg then sedeleg.
func (h *Hart) delegatedTarget(cause uint64) Mode {
	if h.csr.raw[csrMEDELEG]&(1<<cause) == 0 {
		return Machine
	}
	if h.csr.raw[csrSEDELEG]&(1<<cause) == 0 {
		return Supervisor
	}
	return User
}

// deliverTrap delivers the trap currently pending in h.exc/h.irq,
// using the current PC as the faulting PC (used for interrupts, which
// are polled before fetch).
func (h *Hart) deliverTrap(t Trap) {
	h.deliverTrapAt(t, h.PC)
}

// deliverTrapAt selects the target privilege mode via delegation,
// stacks status, and redirects pc.
func (h *Hart) deliverTrapAt(t Trap, faultingPC uint64) {
	h.icache.invalidateAll()

	cause := t.Cause
	var target Mode
	if t.Kind == InterruptTrap {
		target = h.delegatedInterruptTarget(cause)
	} else {
		target = h.delegatedTarget(cause)
	}

	mcause := cause
	if t.Kind == InterruptTrap {
		mcause |= mcauseInterruptBit
	}

	alignedPC := faultingPC &^ 1

	switch target {
	case Machine:
		h.csr.raw[csrMEPC] = alignedPC
		h.csr.raw[csrMCAUSE] = mcause
		h.csr.raw[csrMTVAL] = t.Value

		mstatus := h.csr.raw[csrMSTATUS]
		mie := mstatus & mstatusMIE
		mstatus &^= mstatusMPIE
		if mie != 0 {
			mstatus |= mstatusMPIE
		}
		mstatus &^= mstatusMIE
		mstatus &^= mstatusMPP
		mstatus |= uint64(h.Mode) << mstatusMPPShift
		h.csr.raw[csrMSTATUS] = mstatus

		h.Mode = Machine
		h.PC = h.trapTarget(h.csr.raw[csrMTVEC], cause, t.Kind)

	case Supervisor:
		h.csr.raw[csrSEPC] = alignedPC
		h.csr.raw[csrSCAUSE] = mcause
		h.csr.raw[csrSTVAL] = t.Value

		mstatus := h.csr.raw[csrMSTATUS]
		sie := mstatus & mstatusSIE
		mstatus &^= mstatusSPIE
		if sie != 0 {
			mstatus |= mstatusSPIE
		}
		mstatus &^= mstatusSIE
		mstatus &^= mstatusSPP
		if h.Mode == Supervisor {
			mstatus |= mstatusSPP
		}
		h.csr.raw[csrMSTATUS] = mstatus

		h.Mode = Supervisor
		h.PC = h.trapTarget(h.csr.raw[csrSTVEC], cause, t.Kind)

	default:
		// Traps delegated to User mode are unsupported.
		log.Printf("[hart] fatal: trap delegated to User mode, cause=%d", cause)
		h.Halted = true
		h.HaltCode = 1
	}
}

// trapTarget applies the vectored-mode rule for interrupts: base+4*cause
// when tvec.mode==1, else base for both exceptions and interrupts.
func (h *Hart) trapTarget(tvec uint64, cause uint64, kind TrapKind) uint64 {
	base := tvec &^ 0b11
	mode := tvec & 0b11
	if kind == InterruptTrap && mode == 1 {
		return base + 4*cause
	}
	return base
}
