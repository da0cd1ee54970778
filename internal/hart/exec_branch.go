package hart

func init() {
	registerBranches()
}

func registerBranches() {
	execTable[ExecBEQ] = execBEQ
	execTable[ExecBNE] = execBNE
	execTable[ExecBLT] = execBLT
	execTable[ExecBGE] = execBGE
	execTable[ExecBLTU] = execBLTU
	execTable[ExecBGEU] = execBGEU
	execTable[ExecJAL] = execJAL
	execTable[ExecJALR] = execJALR
}

// branch: because fetch already advanced PC by the instruction's own
// size, the taken target is pc + imm - size.
func branch(h *Hart, in *Instr, taken bool) {
	if !taken {
		return
	}
	h.PC = h.PC + uint64(in.Imm) - uint64(in.Size)
}

func execBEQ(h *Hart, in *Instr) { branch(h, in, h.X[in.Rs1] == h.X[in.Rs2]) }
func execBNE(h *Hart, in *Instr) { branch(h, in, h.X[in.Rs1] != h.X[in.Rs2]) }
func execBLT(h *Hart, in *Instr) { branch(h, in, int64(h.X[in.Rs1]) < int64(h.X[in.Rs2])) }
func execBGE(h *Hart, in *Instr) { branch(h, in, int64(h.X[in.Rs1]) >= int64(h.X[in.Rs2])) }
func execBLTU(h *Hart, in *Instr) { branch(h, in, h.X[in.Rs1] < h.X[in.Rs2]) }
func execBGEU(h *Hart, in *Instr) { branch(h, in, h.X[in.Rs1] >= h.X[in.Rs2]) }

// execJAL: link register receives pc_of_next_instr; target is
// pc_of_instr + imm, expressed via the same post-advance correction
// branches use.
func execJAL(h *Hart, in *Instr) {
	link := h.PC
	h.PC = h.PC + uint64(in.Imm) - uint64(in.Size)
	h.X[in.Rd] = link
}

func execJALR(h *Hart, in *Instr) {
	link := h.PC
	target := (h.X[in.Rs1] + uint64(in.Imm)) &^ 1
	h.PC = target
	h.X[in.Rd] = link
}
