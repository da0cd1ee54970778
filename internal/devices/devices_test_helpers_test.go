package devices

import "encoding/binary"

// fakeSink records SetPending/ClearPending calls so device tests can
// assert on interrupt assertion without wiring up a real hart.Hart.
type fakeSink struct {
	pending uint64
}

func (f *fakeSink) SetPending(bit uint64)   { f.pending |= bit }
func (f *fakeSink) ClearPending(bit uint64) { f.pending &^= bit }

// fakeMem is a flat little-endian byte slice implementing the dma
// interface VirtIO needs for descriptor-chain access in tests.
type fakeMem struct {
	buf []byte
}

func newFakeMem(size int) *fakeMem { return &fakeMem{buf: make([]byte, size)} }

func (m *fakeMem) Load(addr uint64, size uint8) (uint64, bool) {
	switch size {
	case 8:
		return uint64(m.buf[addr]), true
	case 16:
		return uint64(binary.LittleEndian.Uint16(m.buf[addr:])), true
	case 32:
		return uint64(binary.LittleEndian.Uint32(m.buf[addr:])), true
	case 64:
		return binary.LittleEndian.Uint64(m.buf[addr:]), true
	}
	return 0, false
}

func (m *fakeMem) Store(addr uint64, size uint8, val uint64) bool {
	switch size {
	case 8:
		m.buf[addr] = byte(val)
	case 16:
		binary.LittleEndian.PutUint16(m.buf[addr:], uint16(val))
	case 32:
		binary.LittleEndian.PutUint32(m.buf[addr:], uint32(val))
	case 64:
		binary.LittleEndian.PutUint64(m.buf[addr:], val)
	}
	return true
}
