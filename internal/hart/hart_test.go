package hart

import "testing"

// TestAddImmediateScenario: three steps of addi/addi/add leave x3 == 12
// with the pc advanced by 4 per instruction.
func TestAddImmediateScenario(t *testing.T) {
	bus := newTestBus(4096)
	bus.putInstr(0, encodeI(rawOpImm, 1, 0, 0, 5))  // addi x1, x0, 5
	bus.putInstr(4, encodeI(rawOpImm, 2, 0, 0, 7))  // addi x2, x0, 7
	bus.putInstr(8, encodeR(rawOp, 3, 0, 1, 2, 0))  // add x3, x1, x2

	h := New(bus, 0, 0x1000, false)
	for i := 0; i < 3; i++ {
		if class := h.Step(); class != ClassNone {
			t.Fatalf("step %d: unexpected trap class %v", i, class)
		}
	}
	if got := h.Reg(3); got != 12 {
		t.Fatalf("x3 = %d, want 12", got)
	}
	if h.PC != 12 {
		t.Fatalf("pc = %#x, want 0xC", h.PC)
	}
}

// TestXZeroAlwaysZero: an instruction that targets x0 must not leave it
// set; x0 reads as zero after every executor.
func TestXZeroAlwaysZero(t *testing.T) {
	bus := newTestBus(4096)
	bus.putInstr(0, encodeI(rawOpImm, 0, 0, 0, 123)) // addi x0, x0, 123

	h := New(bus, 0, 0, false)
	h.Step()
	if h.Reg(0) != 0 {
		t.Fatalf("x0 = %d, want 0", h.Reg(0))
	}
}

// TestLogicalShiftOverLUI: lui x1, 0xFFFFF; srli x2, x1, 4 performs a
// 64-bit logical shift over the sign-extended LUI result.
func TestLogicalShiftOverLUI(t *testing.T) {
	bus := newTestBus(4096)
	var luiImmBits uint32 = 0xFFFFF
	luiImmBits <<= 12
	bus.putInstr(0, encodeU(rawLUI, 1, int32(luiImmBits)))
	// srli x2, x1, 4: opcode OP-IMM, funct3=101, funct7 bit5=0, shamt=4.
	bus.putInstr(4, uint32(4)<<20|1<<15|0b101<<12|2<<7|rawOpImm)

	h := New(bus, 0, 0, false)
	h.Step()
	h.Step()
	// sign-extend(0xFFFFF000) >> 4 logically: 0xFFFFFFFF_FFFFF000 >> 4.
	want := uint64(0xFFFFFFFF_FFFFF000) >> 4
	if got := h.Reg(2); got != want {
		t.Fatalf("x2 = %#x, want %#x", got, want)
	}
}

// TestDivideByZero: div by zero yields -1 with no trap.
func TestDivideByZero(t *testing.T) {
	bus := newTestBus(4096)
	bus.putInstr(0, encodeI(rawOpImm, 2, 0, 0, 42))     // addi x2, x0, 42
	bus.putInstr(4, encodeR(rawOp, 1, 0b100, 2, 0, 1)) // div x1, x2, x0 (funct7=1 selects M ext)

	h := New(bus, 0, 0, false)
	h.Step()
	if class := h.Step(); class != ClassNone {
		t.Fatalf("unexpected trap class %v", class)
	}
	if got := h.Reg(1); got != ^uint64(0) {
		t.Fatalf("x1 = %#x, want -1", got)
	}
}

func TestResetBootContract(t *testing.T) {
	bus := newTestBus(16)
	h := New(bus, 0x1000, 0x8000_0000, false)
	if h.PC != 0x1000 {
		t.Fatalf("pc = %#x, want 0x1000", h.PC)
	}
	if h.Reg(2) != 0x8000_0000 {
		t.Fatalf("sp = %#x, want 0x80000000", h.Reg(2))
	}
	if h.Mode != Machine {
		t.Fatalf("mode = %v, want Machine", h.Mode)
	}
	for i := 1; i < 32; i++ {
		if i == 2 {
			continue
		}
		if h.Reg(i) != 0 {
			t.Fatalf("x%d = %d at reset, want 0", i, h.Reg(i))
		}
	}
}

func TestIllegalInstructionIsFatal(t *testing.T) {
	bus := newTestBus(16)
	bus.putInstr(0, 0) // all-zero half-word: the reserved illegal compressed encoding

	h := New(bus, 0, 0, false)
	class := h.Step()
	if class != ClassFatal {
		t.Fatalf("class = %v, want ClassFatal", class)
	}
	if !h.Halted || h.HaltCode != 1 {
		t.Fatalf("halted=%v code=%d, want halted with code 1", h.Halted, h.HaltCode)
	}
}

func TestRiscvTestTohostHalts(t *testing.T) {
	bus := newTestBus(0x2000)
	// addi x1, x0, 7
	bus.putInstr(0, encodeI(rawOpImm, 1, 0, 0, 7))
	// TohostAddr has bit 31 set, so LUI sign-extends it to a negative
	// 64-bit value (correct RV64I semantics); clear the upper 32 bits
	// back out with a slli/srli pair, the standard RV64 idiom for
	// materializing a 32-bit constant with its top bit set.
	hi20 := uint32(TohostAddr & 0xFFFFF000)
	bus.putInstr(4, encodeU(rawLUI, 5, int32(hi20)))    // lui x5, hi20(TohostAddr)
	bus.putInstr(8, uint32(32)<<20|5<<15|0b001<<12|5<<7|rawOpImm)  // slli x5, x5, 32
	bus.putInstr(12, uint32(32)<<20|5<<15|0b101<<12|5<<7|rawOpImm) // srli x5, x5, 32
	bus.putInstr(16, uint32(0)<<25|1<<20|5<<15|0b010<<12|(0&0x1F)<<7|0x23) // sw x1, 0(x5)

	h := New(bus, 0, 0, true)
	for i := 0; i < 5 && !h.Halted; i++ {
		h.Step()
	}
	if !h.Halted {
		t.Fatalf("expected halt after tohost store")
	}
	if h.HaltCode != 7 {
		t.Fatalf("halt code = %d, want 7", h.HaltCode)
	}
}
