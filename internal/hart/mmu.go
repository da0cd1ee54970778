package hart

// AccessKind distinguishes why an address is being translated, since
// Sv39 permission checks and fault causes depend on it.
type AccessKind uint8

const (
	AccessInstr AccessKind = iota
	AccessLoad
	AccessStore
)

const (
	pageSize  = 4096
	pteSize   = 8
	pteBitsV  = 1 << 0
	pteBitsR  = 1 << 1
	pteBitsW  = 1 << 2
	pteBitsX  = 1 << 3
	pteBitsU  = 1 << 4
	pteBitsA  = 1 << 6
	pteBitsD  = 1 << 7

	mstatusMPRV = uint64(1) << 17
)

// vpn extracts the i-th (0,1,2) 9-bit virtual page number field.
func vpn(addr uint64, i int) uint64 {
	return (addr >> (12 + 9*i)) & 0x1FF
}

// pagePPN extracts the i-th (0,1,2) PPN field from a PTE.
func pagePPN(pte uint64, i int) uint64 {
	switch i {
	case 0:
		return (pte >> 10) & 0x1FF
	case 1:
		return (pte >> 19) & 0x1FF
	default:
		return (pte >> 28) & 0x3FFFFFF
	}
}

// translate performs the three-level Sv39 walk. On success it returns
// the physical address; on failure it sets h.exc to the appropriate
// page-fault cause with Value == addr and returns ok=false.
func (h *Hart) translate(addr uint64, access AccessKind) (uint64, bool) {
	if h.csr.raw[csrSATP]>>60 != satpModeSv39 {
		return addr, true
	}

	effectiveMode := h.Mode
	if h.Mode == Machine {
		if access == AccessInstr {
			return addr, true
		}
		mstatus := h.csr.raw[csrMSTATUS]
		if mstatus&mstatusMPRV == 0 {
			return addr, true
		}
		mpp := Mode((mstatus & mstatusMPP) >> mstatusMPPShift)
		if mpp == Machine {
			return addr, true
		}
		effectiveMode = mpp
	}

	a := (h.csr.raw[csrSATP] & ((1 << 44) - 1)) << 12
	var pte uint64
	var i int
	for i = 2; ; {
		pteAddr := a + vpn(addr, i)*pteSize
		v, ok := h.bus.Load(pteAddr, 64)
		if !ok {
			h.pageFault(access, addr)
			return 0, false
		}
		pte = v

		if pte&pteBitsV == 0 || (pte&pteBitsR == 0 && pte&pteBitsW != 0) {
			h.pageFault(access, addr)
			return 0, false
		}
		if pte&(pteBitsR|pteBitsX) != 0 {
			break // leaf
		}
		i--
		if i < 0 {
			h.pageFault(access, addr)
			return 0, false
		}
		a = (pagePPN(pte, 2)<<18 | pagePPN(pte, 1)<<9 | pagePPN(pte, 0)) << 12
	}

	mstatus := h.csr.raw[csrMSTATUS]
	sum := mstatus&mstatusSUM != 0
	mxr := mstatus&mstatusMXR != 0
	u := pte&pteBitsU != 0

	if u && effectiveMode != User && !(access != AccessInstr && sum) {
		h.pageFault(access, addr)
		return 0, false
	}
	if !u && effectiveMode == User {
		h.pageFault(access, addr)
		return 0, false
	}

	switch access {
	case AccessInstr:
		if pte&pteBitsX == 0 {
			h.pageFault(access, addr)
			return 0, false
		}
	case AccessLoad:
		readable := pte&pteBitsR != 0 || (mxr && pte&pteBitsX != 0)
		if !readable {
			h.pageFault(access, addr)
			return 0, false
		}
	case AccessStore:
		if pte&pteBitsW == 0 {
			h.pageFault(access, addr)
			return 0, false
		}
	}

	// Misaligned superpage: a leaf above level 0 must have zero low PPNs.
	for k := 0; k < i; k++ {
		if pagePPN(pte, k) != 0 {
			h.pageFault(access, addr)
			return 0, false
		}
	}

	// A/D bit writeback is not performed.

	phys := pagePPN(pte, 2) << 30
	if i >= 2 {
		phys |= addr & ((1 << 30) - 1)
	} else {
		phys |= pagePPN(pte, 1) << 21
		if i >= 1 {
			phys |= addr & ((1 << 21) - 1)
		} else {
			phys |= pagePPN(pte, 0) << 12
			phys |= addr & ((1 << 12) - 1)
		}
	}
	return phys, true
}

func (h *Hart) pageFault(access AccessKind, addr uint64) {
	var cause uint64
	switch access {
	case AccessInstr:
		cause = CauseInstrPageFault
	case AccessLoad:
		cause = CauseLoadPageFault
	default:
		cause = CauseStorePageFault
	}
	h.exc = Trap{Kind: ExceptionTrap, Cause: cause, Value: addr}
}

// fetch translates and reads the instruction word at vaddr, handling
// the 16-vs-32-bit-wide fetch needed for the C extension: a compressed
// instruction (low two bits of the first half-word != 0b11) never
// reads past its own half-word, so a page that ends right after a
// compressed instruction cannot fault on the (nonexistent) second half.
// The translated physical address is returned so the caller can key
// the decoded-instruction cache off it.
func (h *Hart) fetch(vaddr uint64) (raw uint32, size uint8, phys uint64, ok bool) {
	phys, ok = h.translate(vaddr, AccessInstr)
	if !ok {
		return 0, 0, 0, false
	}
	lo, ok := h.bus.Load(phys, 16)
	if !ok {
		h.exc = Trap{Kind: ExceptionTrap, Cause: CauseInstrAccessFault, Value: vaddr}
		return 0, 0, 0, false
	}
	if lo&0b11 != 0b11 {
		return uint32(lo), 2, phys, true
	}
	physHi, ok := h.translate(vaddr+2, AccessInstr)
	if !ok {
		return 0, 0, 0, false
	}
	hi, ok := h.bus.Load(physHi, 16)
	if !ok {
		h.exc = Trap{Kind: ExceptionTrap, Cause: CauseInstrAccessFault, Value: vaddr + 2}
		return 0, 0, 0, false
	}
	return uint32(lo) | uint32(hi)<<16, 4, phys, true
}

// loadMem translates vaddr and loads size bits (8/16/32/64), setting
// h.exc on any failure.
func (h *Hart) loadMem(vaddr uint64, size uint8) (uint64, bool) {
	phys, ok := h.translate(vaddr, AccessLoad)
	if !ok {
		return 0, false
	}
	v, ok := h.bus.Load(phys, size)
	if !ok {
		h.exc = Trap{Kind: ExceptionTrap, Cause: CauseLoadAccessFault, Value: vaddr}
		return 0, false
	}
	return v, true
}

// storeMem translates vaddr and stores val, setting h.exc on failure,
// and implements the --riscv-test tohost completion convention.
func (h *Hart) storeMem(vaddr uint64, size uint8, val uint64) bool {
	phys, ok := h.translate(vaddr, AccessStore)
	if !ok {
		return false
	}
	if h.riscvTest && phys == TohostAddr {
		h.Halted = true
		h.HaltCode = int(int32(val))
		return true
	}
	if ok := h.bus.Store(phys, size, val); !ok {
		h.exc = Trap{Kind: ExceptionTrap, Cause: CauseStoreAccessFault, Value: vaddr}
		return false
	}
	// A single reservation slot: any ordinary store invalidates it.
	h.reservation = noReservation
	return true
}
