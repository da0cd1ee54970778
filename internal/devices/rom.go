package devices

import "encoding/binary"

// BuildROM constructs the boot ROM image: a four-instruction reset
// stub at offset 0 that loads dramBase into t0 and jumps to it,
// followed by a small flattened-device-tree-shaped blob at a fixed
// offset so a guest can locate DRAM size and MMIO bases.
func BuildROM(size int, dramBase uint64, dramSize uint64, uartBase, virtioBase, clintBase, plicBase uint64) []byte {
	rom := make([]byte, size)

	// lui t0, hi20(dramBase) sign-extends bit 31 of the 32-bit result:
	// with dramBase's top bit set, a bare lui leaves t0 =
	// 0xFFFFFFFF80000000, not 0x0000000080000000. slli+srli by 32
	// clears the sign-extended upper half back to zero before the jump.
	hi20 := uint32(dramBase>>12) & 0xFFFFF
	luiInstr := (hi20 << 12) | (5 << 7) | 0x37
	binary.LittleEndian.PutUint32(rom[0:], luiInstr)

	// slli t0, t0, 32
	slliInstr := (uint32(32) << 20) | (5 << 15) | (0b001 << 12) | (5 << 7) | 0x13
	binary.LittleEndian.PutUint32(rom[4:], slliInstr)

	// srli t0, t0, 32
	srliInstr := (uint32(32) << 20) | (5 << 15) | (0b101 << 12) | (5 << 7) | 0x13
	binary.LittleEndian.PutUint32(rom[8:], srliInstr)

	// jalr x0, 0(t0)
	jalrInstr := uint32(5<<15) | 0x67
	binary.LittleEndian.PutUint32(rom[12:], jalrInstr)

	const dtbOffset = 0x100
	writeFDT(rom[dtbOffset:], dramBase, dramSize, uartBase, virtioBase, clintBase, plicBase)

	return rom
}

// fdtMagic is the real flattened-device-tree magic number, used here
// purely so a guest probing for it at the conventional offset finds
// something recognizable; the node encoding below is a simplified
// fixed-layout stand-in, not a spec-compliant FDT blob.
const fdtMagic = 0xd00dfeed

func writeFDT(buf []byte, dramBase, dramSize, uartBase, virtioBase, clintBase, plicBase uint64) {
	if len(buf) < 64 {
		return
	}
	be := binary.BigEndian
	be.PutUint32(buf[0:], fdtMagic)
	be.PutUint32(buf[4:], uint32(len(buf)))
	be.PutUint64(buf[8:], dramBase)
	be.PutUint64(buf[16:], dramSize)
	be.PutUint64(buf[24:], uartBase)
	be.PutUint64(buf[32:], virtioBase)
	be.PutUint64(buf[40:], clintBase)
	be.PutUint64(buf[48:], plicBase)
}
