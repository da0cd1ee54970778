package hart

func init() {
	registerLoadStore()
}

func registerLoadStore() {
	execTable[ExecLB] = execLB
	execTable[ExecLH] = execLH
	execTable[ExecLW] = execLW
	execTable[ExecLBU] = execLBU
	execTable[ExecLHU] = execLHU
	execTable[ExecLWU] = execLWU
	execTable[ExecLD] = execLD
	execTable[ExecSB] = execSB
	execTable[ExecSH] = execSH
	execTable[ExecSW] = execSW
	execTable[ExecSD] = execSD

	// F/D load-store placeholders: move raw bits into/out of freg
	// rather than xreg. freg holds opaque payloads only; no FP ALU.
	execTable[ExecFLW] = execFLW
	execTable[ExecFSW] = execFSW
	execTable[ExecFLD] = execFLD
	execTable[ExecFSD] = execFSD
}

// loadAddr computes rs1 + sext(imm), the load/store address rule.
func loadAddr(h *Hart, in *Instr) uint64 {
	return h.X[in.Rs1] + uint64(in.Imm)
}

func execLB(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 8)
	if !ok {
		return
	}
	h.X[in.Rd] = uint64(int64(int8(v)))
}

func execLH(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 16)
	if !ok {
		return
	}
	h.X[in.Rd] = uint64(int64(int16(v)))
}

func execLW(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 32)
	if !ok {
		return
	}
	h.X[in.Rd] = uint64(int64(int32(v)))
}

func execLBU(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 8)
	if !ok {
		return
	}
	h.X[in.Rd] = v & 0xFF
}

func execLHU(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 16)
	if !ok {
		return
	}
	h.X[in.Rd] = v & 0xFFFF
}

func execLWU(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 32)
	if !ok {
		return
	}
	h.X[in.Rd] = v & 0xFFFFFFFF
}

func execLD(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 64)
	if !ok {
		return
	}
	h.X[in.Rd] = v
}

func execSB(h *Hart, in *Instr) { h.storeMem(loadAddr(h, in), 8, h.X[in.Rs2]) }
func execSH(h *Hart, in *Instr) { h.storeMem(loadAddr(h, in), 16, h.X[in.Rs2]) }
func execSW(h *Hart, in *Instr) { h.storeMem(loadAddr(h, in), 32, h.X[in.Rs2]) }
func execSD(h *Hart, in *Instr) { h.storeMem(loadAddr(h, in), 64, h.X[in.Rs2]) }

// execFLW/execFLD load into freg as an opaque bit pattern. FLW NaN-boxes
// the 32-bit payload (upper half all ones), the convention a guest
// expects even though no FP ALU interprets the value here.
func execFLW(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 32)
	if !ok {
		return
	}
	h.F[in.Rd] = v&0xFFFFFFFF | 0xFFFFFFFF_00000000
}

func execFLD(h *Hart, in *Instr) {
	v, ok := h.loadMem(loadAddr(h, in), 64)
	if !ok {
		return
	}
	h.F[in.Rd] = v
}

func execFSW(h *Hart, in *Instr) { h.storeMem(loadAddr(h, in), 32, h.F[in.Rs2]) }
func execFSD(h *Hart, in *Instr) { h.storeMem(loadAddr(h, in), 64, h.F[in.Rs2]) }
