package hart

import (
	"encoding/binary"
	"errors"
)

// snapshotVersion is incremented whenever the binary layout changes.
const snapshotVersion = 1

// snapshotSize is the number of bytes produced by Hart.Save: a version
// byte, 32 xregs +
// 32 fregs + pc (8 each), mode/halted/haltcode/riscvTest (small
// fields), reservation, and the full 4096-entry CSR file.
const snapshotSize = 1 + 32*8 + 32*8 + 8 + 1 + 1 + 4 + 1 + 8 + 4096*8

// SaveSize reports the number of bytes Save produces.
func (h *Hart) SaveSize() int { return snapshotSize }

// Save writes the hart's full architectural state into buf (which
// must be at least SaveSize() bytes): registers, PC, mode, the
// reservation, halt state, and the CSR file. The bus and decoded-
// instruction cache are not included; a restored hart starts with a
// cold icache, which is slower but never incorrect.
func (h *Hart) Save(buf []byte) error {
	if len(buf) < snapshotSize {
		return errors.New("hart: save buffer too small")
	}
	be := binary.BigEndian
	buf[0] = snapshotVersion
	off := 1

	for i := 0; i < 32; i++ {
		be.PutUint64(buf[off:], h.X[i])
		off += 8
	}
	for i := 0; i < 32; i++ {
		be.PutUint64(buf[off:], h.F[i])
		off += 8
	}
	be.PutUint64(buf[off:], h.PC)
	off += 8

	buf[off] = byte(h.Mode)
	off++
	buf[off] = boolByte(h.Halted)
	off++
	be.PutUint32(buf[off:], uint32(h.HaltCode))
	off += 4
	buf[off] = boolByte(h.riscvTest)
	off++
	be.PutUint64(buf[off:], h.reservation)
	off += 8

	for i := 0; i < 4096; i++ {
		be.PutUint64(buf[off:], h.csr.raw[i])
		off += 8
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Restore replaces the hart's architectural state with what buf holds,
// as produced by Save. The icache is invalidated and any pending
// exception/interrupt is cleared, since neither is part of the
// snapshot.
func (h *Hart) Restore(buf []byte) error {
	if len(buf) < snapshotSize {
		return errors.New("hart: restore buffer too small")
	}
	if buf[0] != snapshotVersion {
		return errors.New("hart: unsupported snapshot version")
	}
	be := binary.BigEndian
	off := 1

	for i := 0; i < 32; i++ {
		h.X[i] = be.Uint64(buf[off:])
		off += 8
	}
	for i := 0; i < 32; i++ {
		h.F[i] = be.Uint64(buf[off:])
		off += 8
	}
	h.PC = be.Uint64(buf[off:])
	off += 8

	h.Mode = Mode(buf[off])
	off++
	h.Halted = buf[off] != 0
	off++
	h.HaltCode = int(int32(be.Uint32(buf[off:])))
	off += 4
	h.riscvTest = buf[off] != 0
	off++
	h.reservation = be.Uint64(buf[off:])
	off += 8

	for i := 0; i < 4096; i++ {
		h.csr.raw[i] = be.Uint64(buf[off:])
		off += 8
	}

	h.icache = newICache()
	h.exc = Trap{Kind: NoTrap}
	h.irq = Trap{Kind: NoTrap}
	return nil
}
