// Package config loads an optional YAML memory-map override. The
// defaults follow the conventional virt-machine layout; a --config
// file may relocate any region.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MemoryMap describes the physical placement of every bus region.
// Sizes and bases are in bytes.
type MemoryMap struct {
	ROMBase    uint64 `yaml:"rom_base"`
	ROMSize    uint64 `yaml:"rom_size"`
	CLINTBase  uint64 `yaml:"clint_base"`
	CLINTSize  uint64 `yaml:"clint_size"`
	PLICBase   uint64 `yaml:"plic_base"`
	PLICSize   uint64 `yaml:"plic_size"`
	UARTBase   uint64 `yaml:"uart_base"`
	UARTSize   uint64 `yaml:"uart_size"`
	VirtIOBase uint64 `yaml:"virtio_base"`
	VirtIOSize uint64 `yaml:"virtio_size"`
	DRAMBase   uint64 `yaml:"dram_base"`
	DRAMSize   uint64 `yaml:"dram_size"`
}

// Default returns the conventional virt-machine memory map.
func Default() MemoryMap {
	return MemoryMap{
		ROMBase:    0x0000_1000,
		ROMSize:    0x1000,
		CLINTBase:  0x0200_0000,
		CLINTSize:  0x10000,
		PLICBase:   0x0c00_0000,
		PLICSize:   0x400000,
		UARTBase:   0x1000_0000,
		UARTSize:   0x100,
		VirtIOBase: 0x1000_1000,
		VirtIOSize: 0x1000,
		DRAMBase:   0x8000_0000,
		DRAMSize:   128 << 20,
	}
}

// Load reads a YAML document at path and overlays it onto Default();
// fields omitted from the document keep their default value.
func Load(path string) (MemoryMap, error) {
	m := Default()
	if path == "" {
		return m, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("config: read %s: %w", path, err)
	}

	overlay := struct {
		ROMBase    *uint64 `yaml:"rom_base"`
		ROMSize    *uint64 `yaml:"rom_size"`
		CLINTBase  *uint64 `yaml:"clint_base"`
		CLINTSize  *uint64 `yaml:"clint_size"`
		PLICBase   *uint64 `yaml:"plic_base"`
		PLICSize   *uint64 `yaml:"plic_size"`
		UARTBase   *uint64 `yaml:"uart_base"`
		UARTSize   *uint64 `yaml:"uart_size"`
		VirtIOBase *uint64 `yaml:"virtio_base"`
		VirtIOSize *uint64 `yaml:"virtio_size"`
		DRAMBase   *uint64 `yaml:"dram_base"`
		DRAMSize   *uint64 `yaml:"dram_size"`
	}{}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return m, fmt.Errorf("config: parse %s: %w", path, err)
	}

	apply := func(dst *uint64, src *uint64) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&m.ROMBase, overlay.ROMBase)
	apply(&m.ROMSize, overlay.ROMSize)
	apply(&m.CLINTBase, overlay.CLINTBase)
	apply(&m.CLINTSize, overlay.CLINTSize)
	apply(&m.PLICBase, overlay.PLICBase)
	apply(&m.PLICSize, overlay.PLICSize)
	apply(&m.UARTBase, overlay.UARTBase)
	apply(&m.UARTSize, overlay.UARTSize)
	apply(&m.VirtIOBase, overlay.VirtIOBase)
	apply(&m.VirtIOSize, overlay.VirtIOSize)
	apply(&m.DRAMBase, overlay.DRAMBase)
	apply(&m.DRAMSize, overlay.DRAMSize)

	return m, nil
}
