package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatchesTypicalMemoryMap(t *testing.T) {
	m := Default()
	if m.DRAMBase != 0x8000_0000 {
		t.Fatalf("DRAMBase = %#x, want 0x80000000", m.DRAMBase)
	}
	if m.UARTBase != 0x1000_0000 {
		t.Fatalf("UARTBase = %#x, want 0x10000000", m.UARTBase)
	}
	if m.DRAMSize != 128<<20 {
		t.Fatalf("DRAMSize = %d, want 128MiB", m.DRAMSize)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	m, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if m != Default() {
		t.Fatalf("Load(\"\") = %+v, want defaults %+v", m, Default())
	}
}

func TestLoadOverlaysOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.yaml")
	yamlDoc := "dram_base: 0x90000000\ndram_size: 67108864\n"
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.DRAMBase != 0x9000_0000 {
		t.Fatalf("DRAMBase = %#x, want 0x90000000", m.DRAMBase)
	}
	if m.DRAMSize != 64<<20 {
		t.Fatalf("DRAMSize = %d, want 64MiB", m.DRAMSize)
	}
	// Unspecified fields keep their default value.
	if m.UARTBase != Default().UARTBase {
		t.Fatalf("UARTBase = %#x, want unchanged default %#x", m.UARTBase, Default().UARTBase)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/map.yaml"); err == nil {
		t.Fatalf("expected an error for a nonexistent config file")
	}
}
