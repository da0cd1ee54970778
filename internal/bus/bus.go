// Package bus implements the physical-address router: a static map
// from address ranges to DRAM, boot ROM, or an MMIO device, plus the
// once-per-step tick that drives device clocks and posted interrupts.
package bus

import (
	"encoding/binary"
	"sync"

	"github.com/rvemu/rv64emu/internal/hart"
)

// Device is the uniform (read, write, tick) contract every MMIO
// component implements. Mutex returns the lock guarding the device's
// register file, the same lock its own auxiliary thread (if any) uses,
// so the bus and the device's background thread serialize on one
// object.
type Device interface {
	Load(offset uint64, size uint8) (val uint64, ok bool)
	Store(offset uint64, size uint8, val uint64) (ok bool)
	Tick(sink hart.InterruptSink)
	Mutex() *sync.Mutex
}

// region binds a device to the physical-address window it answers to.
type region struct {
	base uint64
	size uint64
	dev  Device
}

func (r region) contains(addr uint64) bool {
	return addr >= r.base && addr < r.base+r.size
}

// Bus is the concrete implementation of hart.Bus.
type Bus struct {
	dramBase uint64
	dram     []byte

	romBase uint64
	rom     []byte

	regions []region
}

// New builds a bus with dram/rom backing the given address/size
// windows. Devices are attached afterward via Attach.
func New(dramBase uint64, dramSize int, romBase uint64, rom []byte) *Bus {
	return &Bus{
		dramBase: dramBase,
		dram:     make([]byte, dramSize),
		romBase:  romBase,
		rom:      rom,
	}
}

// Attach maps dev at [base, base+size).
func (b *Bus) Attach(base, size uint64, dev Device) {
	b.regions = append(b.regions, region{base: base, size: size, dev: dev})
}

// DRAM exposes the backing slice for image loading (internal/loader).
func (b *Bus) DRAM() []byte { return b.dram }

// DRAMBase reports the physical base address DRAM is mapped at.
func (b *Bus) DRAMBase() uint64 { return b.dramBase }

func (b *Bus) findRegion(addr uint64) (region, bool) {
	for _, r := range b.regions {
		if r.contains(addr) {
			return r, true
		}
	}
	return region{}, false
}

// Load implements hart.Bus. All transfers are little-endian.
func (b *Bus) Load(addr uint64, size uint8) (uint64, bool) {
	if addr >= b.dramBase && addr < b.dramBase+uint64(len(b.dram)) {
		return loadLE(b.dram, addr-b.dramBase, size)
	}
	if addr >= b.romBase && addr < b.romBase+uint64(len(b.rom)) {
		return loadLE(b.rom, addr-b.romBase, size)
	}
	if r, ok := b.findRegion(addr); ok {
		m := r.dev.Mutex()
		m.Lock()
		defer m.Unlock()
		return r.dev.Load(addr-r.base, size)
	}
	return 0, false
}

// Store implements hart.Bus. A store to ROM or an unmapped address
// fails; the hart raises StoreAccessFault.
func (b *Bus) Store(addr uint64, size uint8, val uint64) bool {
	if addr >= b.dramBase && addr < b.dramBase+uint64(len(b.dram)) {
		return storeLE(b.dram, addr-b.dramBase, size, val)
	}
	if addr >= b.romBase && addr < b.romBase+uint64(len(b.rom)) {
		return false
	}
	if r, ok := b.findRegion(addr); ok {
		m := r.dev.Mutex()
		m.Lock()
		defer m.Unlock()
		return r.dev.Store(addr-r.base, size, val)
	}
	return false
}

// Tick forwards to every attached device: the CLINT advances mtime,
// the PLIC asserts or withdraws the external-interrupt bits, the UART
// raises its PLIC source while THR-empty interrupts are enabled (host
// input is posted by UART.Inject, not here), the VirtIO device drains
// its queue.
func (b *Bus) Tick(sink hart.InterruptSink) {
	for _, r := range b.regions {
		m := r.dev.Mutex()
		m.Lock()
		r.dev.Tick(sink)
		m.Unlock()
	}
}

func loadLE(mem []byte, off uint64, size uint8) (uint64, bool) {
	n := uint64(size / 8)
	if off+n > uint64(len(mem)) {
		return 0, false
	}
	switch size {
	case 8:
		return uint64(mem[off]), true
	case 16:
		return uint64(binary.LittleEndian.Uint16(mem[off:])), true
	case 32:
		return uint64(binary.LittleEndian.Uint32(mem[off:])), true
	case 64:
		return binary.LittleEndian.Uint64(mem[off:]), true
	default:
		return 0, false
	}
}

func storeLE(mem []byte, off uint64, size uint8, val uint64) bool {
	n := uint64(size / 8)
	if off+n > uint64(len(mem)) {
		return false
	}
	switch size {
	case 8:
		mem[off] = byte(val)
	case 16:
		binary.LittleEndian.PutUint16(mem[off:], uint16(val))
	case 32:
		binary.LittleEndian.PutUint32(mem[off:], uint32(val))
	case 64:
		binary.LittleEndian.PutUint64(mem[off:], val)
	default:
		return false
	}
	return true
}
