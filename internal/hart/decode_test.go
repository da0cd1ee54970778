package hart

import "testing"

func TestDecodeJALImmediate(t *testing.T) {
	// jal x1, 0x1000: imm = 0x1000 (12-bit aligned, well within range).
	raw := uint32(0)
	imm := int32(0x1000)
	raw |= uint32((imm>>20)&1) << 31
	raw |= uint32((imm>>1)&0x3FF) << 21
	raw |= uint32((imm>>11)&1) << 20
	raw |= uint32((imm>>12)&0xFF) << 12
	raw |= 1 << 7 // rd = x1
	raw |= opJAL

	instr, ok := Decode(raw, 4)
	if !ok {
		t.Fatalf("decode failed")
	}
	if instr.Op != ExecJAL {
		t.Fatalf("op = %v, want ExecJAL", instr.Op)
	}
	if instr.Imm != int64(imm) {
		t.Fatalf("imm = %#x, want %#x", instr.Imm, imm)
	}
	if instr.Rd != 1 {
		t.Fatalf("rd = %d, want 1", instr.Rd)
	}
}

func TestDecodeIllegalOpcode(t *testing.T) {
	if _, ok := Decode(0, 4); ok {
		t.Fatalf("expected decode failure for opcode 0")
	}
	if _, ok := Decode(0x7F, 4); ok {
		t.Fatalf("expected decode failure for reserved opcode")
	}
}

func TestDecodeCSRRWUsesImmAsCSRNumber(t *testing.T) {
	// csrrw x1, mstatus, x2
	raw := uint32(0x300)<<20 | 2<<15 | 0b001<<12 | 1<<7 | opSystem
	instr, ok := Decode(raw, 4)
	if !ok {
		t.Fatalf("decode failed")
	}
	if instr.Op != ExecCSRRW {
		t.Fatalf("op = %v, want ExecCSRRW", instr.Op)
	}
	if instr.Imm != 0x300 {
		t.Fatalf("csr = %#x, want 0x300", instr.Imm)
	}
}

func TestDecodeAMOLRW(t *testing.T) {
	// lr.w x1, (x2): funct5=00010, funct3=010, opcode AMO.
	raw := uint32(0b00010)<<27 | 2<<15 | 0b010<<12 | 1<<7 | opAMO
	instr, ok := Decode(raw, 4)
	if !ok {
		t.Fatalf("decode failed")
	}
	if instr.Op != ExecLRW {
		t.Fatalf("op = %v, want ExecLRW", instr.Op)
	}
}

func TestDecodeCompressedADDI4SPN(t *testing.T) {
	// c.addi4spn x8, x2, 4: nzuimm encodes to 4 (bit position 6 is
	// raw[11:7] field bit 2 -> word bit 6).
	word := uint16(0)
	word |= 1 << 6 // nzuimm bit2 -> value 4
	word |= 0 << 2 // rd' = x8 (field 0)
	// opcode/funct3 = 0b000, quadrant 0b00 already zero.

	instr, ok := decodeCompressed(word)
	if !ok {
		t.Fatalf("decode failed")
	}
	if instr.Op != ExecADDI {
		t.Fatalf("op = %v, want ExecADDI", instr.Op)
	}
	if instr.Rd != 8 || instr.Rs1 != 2 {
		t.Fatalf("rd=%d rs1=%d, want rd=8 rs1=2", instr.Rd, instr.Rs1)
	}
	if instr.Imm != 4 {
		t.Fatalf("imm = %d, want 4", instr.Imm)
	}
}

func TestDecodeCompressedJR(t *testing.T) {
	// c.jr x1: quadrant 2, funct3=100, hi bit=0, rs2=0, rd=1.
	word := uint16(0b100_0_00001_00000_10)
	instr, ok := decodeCompressed(word)
	if !ok {
		t.Fatalf("decode failed")
	}
	if instr.Op != ExecJALR {
		t.Fatalf("op = %v, want ExecJALR", instr.Op)
	}
	if instr.Rs1 != 1 || instr.Rd != 0 {
		t.Fatalf("rs1=%d rd=%d, want rs1=1 rd=0", instr.Rs1, instr.Rd)
	}
}

func TestDecodeShiftImmediateUsesSixBitShamt(t *testing.T) {
	// slli x1, x1, 40: shamt requires 6 bits (>31).
	raw := uint32(40)<<20 | 1<<15 | 0b001<<12 | 1<<7 | opOpImm
	instr, ok := Decode(raw, 4)
	if !ok {
		t.Fatalf("decode failed")
	}
	if instr.Op != ExecSLLI {
		t.Fatalf("op = %v, want ExecSLLI", instr.Op)
	}
	if instr.Imm != 40 {
		t.Fatalf("shamt = %d, want 40", instr.Imm)
	}
}
