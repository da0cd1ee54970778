package devices

import (
	"encoding/binary"
	"testing"
)

func TestBuildROMResetStubJumpsToDRAMBase(t *testing.T) {
	const dramBase = 0x8000_0000
	rom := BuildROM(0x1000, dramBase, 0x1000_0000, 0x1001_0000, 0x1002_0000, 0x1100_0000, 0x0C00_0000)

	lui := binary.LittleEndian.Uint32(rom[0:])
	if lui&0x7F != 0x37 {
		t.Fatalf("first instruction opcode = %#x, want LUI (0x37)", lui&0x7F)
	}
	hi20 := lui >> 12
	if uint64(hi20)<<12 != dramBase {
		t.Fatalf("lui immediate = %#x, want dramBase %#x", uint64(hi20)<<12, dramBase)
	}

	jalr := binary.LittleEndian.Uint32(rom[12:])
	if jalr&0x7F != 0x67 {
		t.Fatalf("fourth instruction opcode = %#x, want JALR (0x67)", jalr&0x7F)
	}
}

func TestBuildROMFDTMagicAtFixedOffset(t *testing.T) {
	rom := BuildROM(0x1000, 0x8000_0000, 0x1000_0000, 0x1001_0000, 0x1002_0000, 0x1100_0000, 0x0C00_0000)
	magic := binary.BigEndian.Uint32(rom[0x100:])
	if magic != fdtMagic {
		t.Fatalf("fdt magic = %#x, want %#x", magic, fdtMagic)
	}
}
