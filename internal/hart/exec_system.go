package hart

func init() {
	registerSystem()
}

func registerSystem() {
	execTable[ExecFENCE] = execFENCE
	execTable[ExecFENCEI] = execFENCEI
	execTable[ExecECALL] = execECALL
	execTable[ExecEBREAK] = execEBREAK
	execTable[ExecMRET] = execMRET
	execTable[ExecSRET] = execSRET
	execTable[ExecSFENCEVMA] = execSFENCEVMA

	execTable[ExecCSRRW] = execCSRRW
	execTable[ExecCSRRS] = execCSRRS
	execTable[ExecCSRRC] = execCSRRC
	execTable[ExecCSRRWI] = execCSRRWI
	execTable[ExecCSRRSI] = execCSRRSI
	execTable[ExecCSRRCI] = execCSRRCI
}

// execFENCE: no-op with a single hart.
func execFENCE(h *Hart, in *Instr) {}

// execFENCEI invalidates the decoded-instruction cache.
func execFENCEI(h *Hart, in *Instr) {
	h.icache.invalidateAll()
}

func execECALL(h *Hart, in *Instr) {
	pcOfInstr := h.PC - uint64(in.Size)
	var cause uint64
	switch h.Mode {
	case User:
		cause = CauseEcallFromU
	case Supervisor:
		cause = CauseEcallFromS
	default:
		cause = CauseEcallFromM
	}
	h.exc = Trap{Kind: ExceptionTrap, Cause: cause, Value: pcOfInstr}
}

func execEBREAK(h *Hart, in *Instr) {
	pcOfInstr := h.PC - uint64(in.Size)
	h.exc = Trap{Kind: ExceptionTrap, Cause: CauseBreakpoint, Value: pcOfInstr}
}

// execSRET: pc <- sepc, mode <- SPP, SIE <- SPIE, SPIE <- 1, SPP <- 0.
func execSRET(h *Hart, in *Instr) {
	h.icache.invalidateAll()
	mstatus := h.csr.raw[csrMSTATUS]
	spp := Mode(0)
	if mstatus&mstatusSPP != 0 {
		spp = Supervisor
	}
	sie := mstatus & mstatusSPIE
	mstatus &^= mstatusSIE
	if sie != 0 {
		mstatus |= mstatusSIE
	}
	mstatus |= mstatusSPIE
	mstatus &^= mstatusSPP
	h.csr.raw[csrMSTATUS] = mstatus
	h.Mode = spp
	h.PC = h.csr.raw[csrSEPC]
}

// execMRET: pc <- mepc, mode <- MPP, MIE <- MPIE, MPIE <- 1, MPP <- U.
func execMRET(h *Hart, in *Instr) {
	h.icache.invalidateAll()
	mstatus := h.csr.raw[csrMSTATUS]
	mpp := Mode((mstatus & mstatusMPP) >> mstatusMPPShift)
	mie := mstatus & mstatusMPIE
	mstatus &^= mstatusMIE
	if mie != 0 {
		mstatus |= mstatusMIE
	}
	mstatus |= mstatusMPIE
	mstatus &^= mstatusMPP
	mstatus |= uint64(User) << mstatusMPPShift
	h.csr.raw[csrMSTATUS] = mstatus
	h.Mode = mpp
	h.PC = h.csr.raw[csrMEPC]
}

// execSFENCEVMA invalidates the decoded-instruction cache. ASID and the
// rs1 virtual address are accepted but the flush is always global.
func execSFENCEVMA(h *Hart, in *Instr) {
	h.icache.invalidateAll()
}

// csrOp performs the atomic read-then-modify contract shared by all six
// CSR instructions: rd receives the old value; writes to an unwritable
// CSR leave it unchanged (enforced by CSRFile.write).
func csrOp(h *Hart, in *Instr, newVal func(old uint64) (uint64, bool)) {
	num := uint16(in.Imm)
	if !h.csr.accessible(num, h.Mode) {
		h.exc = Trap{Kind: ExceptionTrap, Cause: CauseIllegalInstruction, Value: uint64(in.Raw)}
		return
	}
	old := h.csr.read(num, h.Mode)
	if nv, write := newVal(old); write {
		// Writes to read-only CSRs are silently masked by CSRFile.write.
		h.csr.write(num, nv, h.Mode)
	}
	h.X[in.Rd] = old
}

func execCSRRW(h *Hart, in *Instr) {
	csrOp(h, in, func(old uint64) (uint64, bool) { return h.X[in.Rs1], true })
}

func execCSRRS(h *Hart, in *Instr) {
	csrOp(h, in, func(old uint64) (uint64, bool) { return old | h.X[in.Rs1], in.Rs1 != 0 })
}

func execCSRRC(h *Hart, in *Instr) {
	csrOp(h, in, func(old uint64) (uint64, bool) { return old &^ h.X[in.Rs1], in.Rs1 != 0 })
}

func execCSRRWI(h *Hart, in *Instr) {
	csrOp(h, in, func(old uint64) (uint64, bool) { return uint64(in.Rs1), true })
}

func execCSRRSI(h *Hart, in *Instr) {
	csrOp(h, in, func(old uint64) (uint64, bool) { return old | uint64(in.Rs1), in.Rs1 != 0 })
}

func execCSRRCI(h *Hart, in *Instr) {
	csrOp(h, in, func(old uint64) (uint64, bool) { return old &^ uint64(in.Rs1), in.Rs1 != 0 })
}
