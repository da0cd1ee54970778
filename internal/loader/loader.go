// Package loader loads a guest kernel/program image into DRAM: either
// an ELF file (via debug/elf) or a raw binary, detected by magic.
// This is host-side plumbing the core hart package never touches.
package loader

import (
	"bytes"
	"debug/elf"
	"fmt"
	"os"
)

// Image is a guest memory segment to place into DRAM at a physical
// address, already relocated relative to DRAM's base.
type Image struct {
	EntryOffset uint64 // physical offset from DRAM base where execution begins
	Segments    []Segment
}

// Segment is one contiguous range of bytes to copy into DRAM.
type Segment struct {
	Offset uint64 // physical offset from DRAM base
	Data   []byte
}

// Load reads path and returns an Image relative to dramBase: an ELF
// file (detected by its 4-byte magic) is loaded by PT_LOAD segment; an
// ELF entry point is translated from an absolute virtual address; any
// other file is treated as a raw binary placed at offset 0, so
// execution begins at DRAM's base.
func Load(path string, dramBase uint64) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("loader: read %s: %w", path, err)
	}

	if bytes.HasPrefix(data, []byte(elf.ELFMAG)) {
		return loadELF(path, dramBase)
	}
	return Image{
		EntryOffset: 0,
		Segments:    []Segment{{Offset: 0, Data: data}},
	}, nil
}

func loadELF(path string, dramBase uint64) (Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("loader: open ELF %s: %w", path, err)
	}
	defer f.Close()

	if f.Machine != elf.EM_RISCV {
		return Image{}, fmt.Errorf("loader: %s is not a RISC-V ELF (machine=%s)", path, f.Machine)
	}
	if f.Class != elf.ELFCLASS64 {
		return Image{}, fmt.Errorf("loader: %s is not a 64-bit ELF", path)
	}

	var segments []Segment
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		if prog.Vaddr < dramBase {
			return Image{}, fmt.Errorf("loader: %s has a segment below DRAM base", path)
		}
		buf := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(buf, 0); err != nil {
			return Image{}, fmt.Errorf("loader: read segment: %w", err)
		}
		segments = append(segments, Segment{Offset: prog.Vaddr - dramBase, Data: buf})
	}

	if f.Entry < dramBase {
		return Image{}, fmt.Errorf("loader: %s entry point below DRAM base", path)
	}

	return Image{EntryOffset: f.Entry - dramBase, Segments: segments}, nil
}

// Install copies every segment of img into dram (the bus's backing
// DRAM slice).
func Install(dram []byte, img Image) error {
	for _, seg := range img.Segments {
		end := seg.Offset + uint64(len(seg.Data))
		if end > uint64(len(dram)) {
			return fmt.Errorf("loader: segment at %#x (len %d) overruns DRAM (size %d)",
				seg.Offset, len(seg.Data), len(dram))
		}
		copy(dram[seg.Offset:end], seg.Data)
	}
	return nil
}
