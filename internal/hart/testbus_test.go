package hart

import "encoding/binary"

// testBus is a flat little-endian memory used by this package's own
// tests: addresses below len(mem) hit the backing slice; anything else
// faults, exercising the same ok=false contract bus.Bus implements
// against internal/bus in production.
type testBus struct {
	mem      []byte
	ticks    int
	pendingI uint64 // bits to assert on the next Tick, for interrupt tests
}

func newTestBus(size int) *testBus {
	return &testBus{mem: make([]byte, size)}
}

func (b *testBus) Load(addr uint64, size uint8) (uint64, bool) {
	n := uint64(size / 8)
	if addr+n > uint64(len(b.mem)) {
		return 0, false
	}
	switch size {
	case 8:
		return uint64(b.mem[addr]), true
	case 16:
		return uint64(binary.LittleEndian.Uint16(b.mem[addr:])), true
	case 32:
		return uint64(binary.LittleEndian.Uint32(b.mem[addr:])), true
	case 64:
		return binary.LittleEndian.Uint64(b.mem[addr:]), true
	default:
		return 0, false
	}
}

func (b *testBus) Store(addr uint64, size uint8, val uint64) bool {
	n := uint64(size / 8)
	if addr+n > uint64(len(b.mem)) {
		return false
	}
	switch size {
	case 8:
		b.mem[addr] = byte(val)
	case 16:
		binary.LittleEndian.PutUint16(b.mem[addr:], uint16(val))
	case 32:
		binary.LittleEndian.PutUint32(b.mem[addr:], uint32(val))
	case 64:
		binary.LittleEndian.PutUint64(b.mem[addr:], val)
	default:
		return false
	}
	return true
}

func (b *testBus) Tick(sink InterruptSink) {
	b.ticks++
	if b.pendingI != 0 {
		sink.SetPending(b.pendingI)
	}
}

func (b *testBus) putInstr(addr uint64, raw uint32) {
	binary.LittleEndian.PutUint32(b.mem[addr:], raw)
}

// encodeI builds a 32-bit I-type word: imm[11:0] | rs1 | funct3 | rd | opcode.
func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// encodeR builds a 32-bit R-type word: funct7 | rs2 | rs1 | funct3 | rd | opcode.
func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// encodeU builds a 32-bit U-type word: imm[31:12] | rd | opcode.
func encodeU(opcode, rd uint32, imm int32) uint32 {
	return uint32(imm)&0xFFFFF000 | rd<<7 | opcode
}

const (
	rawOpImm  = 0x13
	rawOp     = 0x33
	rawLUI    = 0x37
	rawSystem = 0x73
)
