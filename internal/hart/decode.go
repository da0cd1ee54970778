package hart

// Decode dispatches a fetched instruction word to its decoded form:
// the 32-bit base+M+A forms go through decode32; the C-extension
// quadrants go through decodeCompressed. A decode failure
// (unknown index or empty table entry) is reported via ok=false; the
// caller raises IllegalInstruction with the raw word as the value.
func Decode(raw uint32, size uint8) (Instr, bool) {
	if size == 2 {
		return decodeCompressed(uint16(raw))
	}
	return decode32(raw)
}

func signExtend(val uint32, bits int) int64 {
	shift := 32 - bits
	return int64(int32(val<<shift)) >> shift
}

// opcode7 field values (bits [6:0]).
const (
	opLUI      = 0x37
	opAUIPC    = 0x17
	opJAL      = 0x6F
	opJALR     = 0x67
	opBranch   = 0x63
	opLoad     = 0x03
	opLoadFP   = 0x07
	opStore    = 0x23
	opStoreFP  = 0x27
	opOpImm    = 0x13
	opOpImm32  = 0x1B
	opOp       = 0x33
	opOp32     = 0x3B
	opMiscMem  = 0x0F
	opSystem   = 0x73
	opAMO      = 0x2F
)

func decode32(raw uint32) (Instr, bool) {
	opcode := raw & 0x7f
	rd := uint8((raw >> 7) & 0x1f)
	funct3 := uint8((raw >> 12) & 0x7)
	rs1 := uint8((raw >> 15) & 0x1f)
	rs2 := uint8((raw >> 20) & 0x1f)
	funct7 := uint8((raw >> 25) & 0x7f)

	base := Instr{Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3, Funct7: funct7}

	switch opcode {
	case opLUI:
		base.Op = ExecLUI
		base.Imm = int64(int32(raw & 0xFFFFF000))
		return base, true

	case opAUIPC:
		base.Op = ExecAUIPC
		base.Imm = int64(int32(raw & 0xFFFFF000))
		return base, true

	case opJAL:
		base.Op = ExecJAL
		imm := ((raw >> 31) & 1 << 20) | ((raw >> 21 & 0x3FF) << 1) |
			((raw >> 20 & 1) << 11) | ((raw >> 12 & 0xFF) << 12)
		base.Imm = signExtend(imm, 21)
		return base, true

	case opJALR:
		if funct3 != 0 {
			return Instr{}, false
		}
		base.Op = ExecJALR
		base.Imm = signExtend(raw>>20, 12)
		return base, true

	case opBranch:
		imm := ((raw >> 31) & 1 << 12) | ((raw >> 7 & 1) << 11) |
			((raw >> 25 & 0x3F) << 5) | ((raw >> 8 & 0xF) << 1)
		base.Imm = signExtend(imm, 13)
		switch funct3 {
		case 0b000:
			base.Op = ExecBEQ
		case 0b001:
			base.Op = ExecBNE
		case 0b100:
			base.Op = ExecBLT
		case 0b101:
			base.Op = ExecBGE
		case 0b110:
			base.Op = ExecBLTU
		case 0b111:
			base.Op = ExecBGEU
		default:
			return Instr{}, false
		}
		return base, true

	case opLoad:
		base.Imm = signExtend(raw>>20, 12)
		switch funct3 {
		case 0b000:
			base.Op = ExecLB
		case 0b001:
			base.Op = ExecLH
		case 0b010:
			base.Op = ExecLW
		case 0b100:
			base.Op = ExecLBU
		case 0b101:
			base.Op = ExecLHU
		case 0b110:
			base.Op = ExecLWU
		case 0b011:
			base.Op = ExecLD
		default:
			return Instr{}, false
		}
		return base, true

	case opLoadFP:
		base.Imm = signExtend(raw>>20, 12)
		switch funct3 {
		case 0b010:
			base.Op = ExecFLW
		case 0b011:
			base.Op = ExecFLD
		default:
			return Instr{}, false
		}
		return base, true

	case opStore:
		imm := ((raw >> 25) << 5) | ((raw >> 7) & 0x1F)
		base.Imm = signExtend(imm, 12)
		switch funct3 {
		case 0b000:
			base.Op = ExecSB
		case 0b001:
			base.Op = ExecSH
		case 0b010:
			base.Op = ExecSW
		case 0b011:
			base.Op = ExecSD
		default:
			return Instr{}, false
		}
		return base, true

	case opStoreFP:
		imm := ((raw >> 25) << 5) | ((raw >> 7) & 0x1F)
		base.Imm = signExtend(imm, 12)
		switch funct3 {
		case 0b010:
			base.Op = ExecFSW
		case 0b011:
			base.Op = ExecFSD
		default:
			return Instr{}, false
		}
		return base, true

	case opOpImm:
		base.Imm = signExtend(raw>>20, 12)
		switch funct3 {
		case 0b000:
			base.Op = ExecADDI
		case 0b010:
			base.Op = ExecSLTI
		case 0b011:
			base.Op = ExecSLTIU
		case 0b100:
			base.Op = ExecXORI
		case 0b110:
			base.Op = ExecORI
		case 0b111:
			base.Op = ExecANDI
		case 0b001:
			base.Op = ExecSLLI
			base.Imm = int64((raw >> 20) & 0x3F) // RV64 shamt is 6 bits, [25:20]
		case 0b101:
			base.Imm = int64((raw >> 20) & 0x3F)
			if funct7&0b0100000 != 0 {
				base.Op = ExecSRAI
			} else {
				base.Op = ExecSRLI
			}
		default:
			return Instr{}, false
		}
		return base, true

	case opOpImm32:
		switch funct3 {
		case 0b000:
			base.Op = ExecADDIW
			base.Imm = signExtend(raw>>20, 12)
		case 0b001:
			base.Op = ExecSLLIW
			base.Imm = int64(rs2 & 0x1F)
		case 0b101:
			base.Imm = int64(rs2 & 0x1F)
			if funct7&0b0100000 != 0 {
				base.Op = ExecSRAIW
			} else {
				base.Op = ExecSRLIW
			}
		default:
			return Instr{}, false
		}
		return base, true

	case opOp:
		return decodeOp(base, funct3, funct7)

	case opOp32:
		return decodeOp32(base, funct3, funct7)

	case opMiscMem:
		if funct3 == 0b001 {
			base.Op = ExecFENCEI
		} else {
			base.Op = ExecFENCE
		}
		return base, true

	case opAMO:
		return decodeAMO(base, raw, funct3, funct7)

	case opSystem:
		return decodeSystem(base, raw, funct3, rs1, rs2)

	default:
		return Instr{}, false
	}
}

func decodeOp(base Instr, funct3, funct7 uint8) (Instr, bool) {
	if funct7 == 0b0000001 {
		switch funct3 {
		case 0b000:
			base.Op = ExecMUL
		case 0b001:
			base.Op = ExecMULH
		case 0b010:
			base.Op = ExecMULHSU
		case 0b011:
			base.Op = ExecMULHU
		case 0b100:
			base.Op = ExecDIV
		case 0b101:
			base.Op = ExecDIVU
		case 0b110:
			base.Op = ExecREM
		case 0b111:
			base.Op = ExecREMU
		default:
			return Instr{}, false
		}
		return base, true
	}
	switch funct3 {
	case 0b000:
		if funct7&0b0100000 != 0 {
			base.Op = ExecSUB
		} else {
			base.Op = ExecADD
		}
	case 0b001:
		base.Op = ExecSLL
	case 0b010:
		base.Op = ExecSLT
	case 0b011:
		base.Op = ExecSLTU
	case 0b100:
		base.Op = ExecXOR
	case 0b101:
		if funct7&0b0100000 != 0 {
			base.Op = ExecSRA
		} else {
			base.Op = ExecSRL
		}
	case 0b110:
		base.Op = ExecOR
	case 0b111:
		base.Op = ExecAND
	default:
		return Instr{}, false
	}
	return base, true
}

func decodeOp32(base Instr, funct3, funct7 uint8) (Instr, bool) {
	if funct7 == 0b0000001 {
		switch funct3 {
		case 0b000:
			base.Op = ExecMULW
		case 0b100:
			base.Op = ExecDIVW
		case 0b101:
			base.Op = ExecDIVUW
		case 0b110:
			base.Op = ExecREMW
		case 0b111:
			base.Op = ExecREMUW
		default:
			return Instr{}, false
		}
		return base, true
	}
	switch funct3 {
	case 0b000:
		if funct7&0b0100000 != 0 {
			base.Op = ExecSUBW
		} else {
			base.Op = ExecADDW
		}
	case 0b001:
		base.Op = ExecSLLW
	case 0b101:
		if funct7&0b0100000 != 0 {
			base.Op = ExecSRAW
		} else {
			base.Op = ExecSRLW
		}
	default:
		return Instr{}, false
	}
	return base, true
}

func decodeAMO(base Instr, raw uint32, funct3, funct7 uint8) (Instr, bool) {
	funct5 := funct7 >> 2
	base.Aq = funct7&0b10 != 0
	base.Rl = funct7&0b01 != 0
	isD := funct3 == 0b011
	if funct3 != 0b010 && funct3 != 0b011 {
		return Instr{}, false
	}
	switch funct5 {
	case 0b00010: // LR
		if isD {
			base.Op = ExecLRD
		} else {
			base.Op = ExecLRW
		}
	case 0b00011: // SC
		if isD {
			base.Op = ExecSCD
		} else {
			base.Op = ExecSCW
		}
	case 0b00001:
		base.Op = pick(isD, ExecAMOSWAPD, ExecAMOSWAPW)
	case 0b00000:
		base.Op = pick(isD, ExecAMOADDD, ExecAMOADDW)
	case 0b00100:
		base.Op = pick(isD, ExecAMOXORD, ExecAMOXORW)
	case 0b01100:
		base.Op = pick(isD, ExecAMOANDD, ExecAMOANDW)
	case 0b01000:
		base.Op = pick(isD, ExecAMOORD, ExecAMOORW)
	case 0b10000:
		base.Op = pick(isD, ExecAMOMIND, ExecAMOMINW)
	case 0b10100:
		base.Op = pick(isD, ExecAMOMAXD, ExecAMOMAXW)
	case 0b11000:
		base.Op = pick(isD, ExecAMOMINUD, ExecAMOMINUW)
	case 0b11100:
		base.Op = pick(isD, ExecAMOMAXUD, ExecAMOMAXUW)
	default:
		return Instr{}, false
	}
	return base, true
}

func pick(cond bool, a, b ExecID) ExecID {
	if cond {
		return a
	}
	return b
}

func decodeSystem(base Instr, raw uint32, funct3, rs1, rs2 uint8) (Instr, bool) {
	if funct3 == 0 {
		funct7 := uint8((raw >> 25) & 0x7f)
		imm12 := raw >> 20
		switch {
		case funct7 == 0b0001001:
			base.Op = ExecSFENCEVMA
			return base, true
		case raw == 0x10500073: // WFI: treated as a no-op wait.
			base.Op = ExecFENCE
			return base, true
		case imm12 == 0 && rs2 == 0 && base.Rd == 0:
			base.Op = ExecECALL
			return base, true
		case imm12 == 1:
			base.Op = ExecEBREAK
			return base, true
		case imm12 == 0x302:
			base.Op = ExecMRET
			return base, true
		case imm12 == 0x102:
			base.Op = ExecSRET
			return base, true
		default:
			return Instr{}, false
		}
	}

	base.Imm = int64(raw >> 20) // CSR number
	switch funct3 {
	case 0b001:
		base.Op = ExecCSRRW
	case 0b010:
		base.Op = ExecCSRRS
	case 0b011:
		base.Op = ExecCSRRC
	case 0b101:
		base.Op = ExecCSRRWI
		base.Rs1 = rs1 // zimm lives in the rs1 field
	case 0b110:
		base.Op = ExecCSRRSI
		base.Rs1 = rs1
	case 0b111:
		base.Op = ExecCSRRCI
		base.Rs1 = rs1
	default:
		return Instr{}, false
	}
	return base, true
}
