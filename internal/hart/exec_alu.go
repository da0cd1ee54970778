package hart

import "math/bits"

func init() {
	registerALU()
	registerMulDiv()
}

func registerALU() {
	execTable[ExecLUI] = execLUI
	execTable[ExecAUIPC] = execAUIPC

	execTable[ExecADDI] = execADDI
	execTable[ExecSLTI] = execSLTI
	execTable[ExecSLTIU] = execSLTIU
	execTable[ExecXORI] = execXORI
	execTable[ExecORI] = execORI
	execTable[ExecANDI] = execANDI
	execTable[ExecSLLI] = execSLLI
	execTable[ExecSRLI] = execSRLI
	execTable[ExecSRAI] = execSRAI

	execTable[ExecADD] = execADD
	execTable[ExecSUB] = execSUB
	execTable[ExecSLL] = execSLL
	execTable[ExecSLT] = execSLT
	execTable[ExecSLTU] = execSLTU
	execTable[ExecXOR] = execXOR
	execTable[ExecSRL] = execSRL
	execTable[ExecSRA] = execSRA
	execTable[ExecOR] = execOR
	execTable[ExecAND] = execAND

	execTable[ExecADDIW] = execADDIW
	execTable[ExecSLLIW] = execSLLIW
	execTable[ExecSRLIW] = execSRLIW
	execTable[ExecSRAIW] = execSRAIW
	execTable[ExecADDW] = execADDW
	execTable[ExecSUBW] = execSUBW
	execTable[ExecSLLW] = execSLLW
	execTable[ExecSRLW] = execSRLW
	execTable[ExecSRAW] = execSRAW
}

// --- U-type ---

func execLUI(h *Hart, in *Instr) {
	h.X[in.Rd] = uint64(in.Imm)
}

func execAUIPC(h *Hart, in *Instr) {
	// pc_of_instr = current PC minus the instruction's own size, since
	// fetch already advanced PC before execute.
	pcOfInstr := h.PC - uint64(in.Size)
	h.X[in.Rd] = pcOfInstr + uint64(in.Imm)
}

// --- I-type arithmetic (modular two's-complement) ---

func execADDI(h *Hart, in *Instr) {
	h.X[in.Rd] = h.X[in.Rs1] + uint64(in.Imm)
}

func execSLTI(h *Hart, in *Instr) {
	if int64(h.X[in.Rs1]) < in.Imm {
		h.X[in.Rd] = 1
	} else {
		h.X[in.Rd] = 0
	}
}

func execSLTIU(h *Hart, in *Instr) {
	if h.X[in.Rs1] < uint64(in.Imm) {
		h.X[in.Rd] = 1
	} else {
		h.X[in.Rd] = 0
	}
}

func execXORI(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] ^ uint64(in.Imm) }
func execORI(h *Hart, in *Instr)  { h.X[in.Rd] = h.X[in.Rs1] | uint64(in.Imm) }
func execANDI(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] & uint64(in.Imm) }

func execSLLI(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] << (uint64(in.Imm) & 0x3f) }
func execSRLI(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] >> (uint64(in.Imm) & 0x3f) }
func execSRAI(h *Hart, in *Instr) {
	h.X[in.Rd] = uint64(int64(h.X[in.Rs1]) >> (uint64(in.Imm) & 0x3f))
}

// --- R-type ---

func execADD(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] + h.X[in.Rs2] }
func execSUB(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] - h.X[in.Rs2] }
func execSLL(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] << (h.X[in.Rs2] & 0x3f) }
func execSLT(h *Hart, in *Instr) {
	if int64(h.X[in.Rs1]) < int64(h.X[in.Rs2]) {
		h.X[in.Rd] = 1
	} else {
		h.X[in.Rd] = 0
	}
}
func execSLTU(h *Hart, in *Instr) {
	if h.X[in.Rs1] < h.X[in.Rs2] {
		h.X[in.Rd] = 1
	} else {
		h.X[in.Rd] = 0
	}
}
func execXOR(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] ^ h.X[in.Rs2] }
func execSRL(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] >> (h.X[in.Rs2] & 0x3f) }
func execSRA(h *Hart, in *Instr) {
	h.X[in.Rd] = uint64(int64(h.X[in.Rs1]) >> (h.X[in.Rs2] & 0x3f))
}
func execOR(h *Hart, in *Instr)  { h.X[in.Rd] = h.X[in.Rs1] | h.X[in.Rs2] }
func execAND(h *Hart, in *Instr) { h.X[in.Rd] = h.X[in.Rs1] & h.X[in.Rs2] }

// --- *W variants: operate on the low 32 bits, then sign-extend ---

func execADDIW(h *Hart, in *Instr) {
	r := int32(h.X[in.Rs1]) + int32(in.Imm)
	h.X[in.Rd] = uint64(int64(r))
}
func execSLLIW(h *Hart, in *Instr) {
	r := int32(uint32(h.X[in.Rs1]) << (uint32(in.Imm) & 0x1f))
	h.X[in.Rd] = uint64(int64(r))
}
func execSRLIW(h *Hart, in *Instr) {
	r := int32(uint32(h.X[in.Rs1]) >> (uint32(in.Imm) & 0x1f))
	h.X[in.Rd] = uint64(int64(r))
}
func execSRAIW(h *Hart, in *Instr) {
	r := int32(h.X[in.Rs1]) >> (uint32(in.Imm) & 0x1f)
	h.X[in.Rd] = uint64(int64(r))
}
func execADDW(h *Hart, in *Instr) {
	r := int32(h.X[in.Rs1]) + int32(h.X[in.Rs2])
	h.X[in.Rd] = uint64(int64(r))
}
func execSUBW(h *Hart, in *Instr) {
	r := int32(h.X[in.Rs1]) - int32(h.X[in.Rs2])
	h.X[in.Rd] = uint64(int64(r))
}
func execSLLW(h *Hart, in *Instr) {
	r := int32(uint32(h.X[in.Rs1]) << (uint32(h.X[in.Rs2]) & 0x1f))
	h.X[in.Rd] = uint64(int64(r))
}
func execSRLW(h *Hart, in *Instr) {
	r := int32(uint32(h.X[in.Rs1]) >> (uint32(h.X[in.Rs2]) & 0x1f))
	h.X[in.Rd] = uint64(int64(r))
}
func execSRAW(h *Hart, in *Instr) {
	r := int32(h.X[in.Rs1]) >> (uint32(h.X[in.Rs2]) & 0x1f)
	h.X[in.Rd] = uint64(int64(r))
}

// --- M extension ---

func registerMulDiv() {
	execTable[ExecMUL] = execMUL
	execTable[ExecMULH] = execMULH
	execTable[ExecMULHSU] = execMULHSU
	execTable[ExecMULHU] = execMULHU
	execTable[ExecDIV] = execDIV
	execTable[ExecDIVU] = execDIVU
	execTable[ExecREM] = execREM
	execTable[ExecREMU] = execREMU
	execTable[ExecMULW] = execMULW
	execTable[ExecDIVW] = execDIVW
	execTable[ExecDIVUW] = execDIVUW
	execTable[ExecREMW] = execREMW
	execTable[ExecREMUW] = execREMUW
}

func execMUL(h *Hart, in *Instr) {
	h.X[in.Rd] = h.X[in.Rs1] * h.X[in.Rs2]
}

// execMULH returns the high 64 bits of the signed*signed 128-bit product.
func execMULH(h *Hart, in *Instr) {
	hi, _ := bits.Mul64(uint64(h.X[in.Rs1]), uint64(h.X[in.Rs2]))
	hi -= correctionSigned(int64(h.X[in.Rs1]), uint64(h.X[in.Rs2]))
	hi -= correctionSigned(int64(h.X[in.Rs2]), uint64(h.X[in.Rs1]))
	h.X[in.Rd] = hi
}

// correctionSigned returns the borrow needed to turn an unsigned
// multiply's high word into the corresponding signed product's high
// word when a is treated as signed: if a is negative, the unsigned
// product over-counts by b<<64.
func correctionSigned(a int64, b uint64) uint64 {
	if a < 0 {
		return b
	}
	return 0
}

func execMULHSU(h *Hart, in *Instr) {
	hi, _ := bits.Mul64(uint64(h.X[in.Rs1]), h.X[in.Rs2])
	hi -= correctionSigned(int64(h.X[in.Rs1]), h.X[in.Rs2])
	h.X[in.Rd] = hi
}

func execMULHU(h *Hart, in *Instr) {
	hi, _ := bits.Mul64(h.X[in.Rs1], h.X[in.Rs2])
	h.X[in.Rd] = hi
}

func execDIV(h *Hart, in *Instr) {
	dividend := int64(h.X[in.Rs1])
	divisor := int64(h.X[in.Rs2])
	switch {
	case divisor == 0:
		h.X[in.Rd] = ^uint64(0)
	case dividend == minInt64 && divisor == -1:
		h.X[in.Rd] = uint64(dividend)
	default:
		h.X[in.Rd] = uint64(dividend / divisor)
	}
}

func execDIVU(h *Hart, in *Instr) {
	divisor := h.X[in.Rs2]
	if divisor == 0 {
		h.X[in.Rd] = ^uint64(0)
		return
	}
	h.X[in.Rd] = h.X[in.Rs1] / divisor
}

func execREM(h *Hart, in *Instr) {
	dividend := int64(h.X[in.Rs1])
	divisor := int64(h.X[in.Rs2])
	switch {
	case divisor == 0:
		h.X[in.Rd] = uint64(dividend)
	case dividend == minInt64 && divisor == -1:
		h.X[in.Rd] = 0
	default:
		h.X[in.Rd] = uint64(dividend % divisor)
	}
}

func execREMU(h *Hart, in *Instr) {
	divisor := h.X[in.Rs2]
	if divisor == 0 {
		h.X[in.Rd] = h.X[in.Rs1]
		return
	}
	h.X[in.Rd] = h.X[in.Rs1] % divisor
}

const minInt64 = int64(-1) << 63
const minInt32 = int32(-1) << 31

func execMULW(h *Hart, in *Instr) {
	r := int32(h.X[in.Rs1]) * int32(h.X[in.Rs2])
	h.X[in.Rd] = uint64(int64(r))
}

func execDIVW(h *Hart, in *Instr) {
	dividend := int32(h.X[in.Rs1])
	divisor := int32(h.X[in.Rs2])
	var r int32
	switch {
	case divisor == 0:
		r = -1
	case dividend == minInt32 && divisor == -1:
		r = dividend
	default:
		r = dividend / divisor
	}
	h.X[in.Rd] = uint64(int64(r))
}

func execDIVUW(h *Hart, in *Instr) {
	dividend := uint32(h.X[in.Rs1])
	divisor := uint32(h.X[in.Rs2])
	var r uint32
	if divisor == 0 {
		r = ^uint32(0)
	} else {
		r = dividend / divisor
	}
	h.X[in.Rd] = uint64(int64(int32(r)))
}

func execREMW(h *Hart, in *Instr) {
	dividend := int32(h.X[in.Rs1])
	divisor := int32(h.X[in.Rs2])
	var r int32
	switch {
	case divisor == 0:
		r = dividend
	case dividend == minInt32 && divisor == -1:
		r = 0
	default:
		r = dividend % divisor
	}
	h.X[in.Rd] = uint64(int64(r))
}

func execREMUW(h *Hart, in *Instr) {
	dividend := uint32(h.X[in.Rs1])
	divisor := uint32(h.X[in.Rs2])
	var r uint32
	if divisor == 0 {
		r = dividend
	} else {
		r = dividend % divisor
	}
	h.X[in.Rd] = uint64(int64(int32(r)))
}
