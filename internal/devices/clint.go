// Package devices implements the MMIO components attached to the bus:
// CLINT, PLIC, a 16550-subset UART, a legacy VirtIO block device, and
// the boot ROM blob builder.
package devices

import (
	"sync"

	"github.com/rvemu/rv64emu/internal/hart"
)

// CLINT register offsets, the conventional SiFive/QEMU-virt layout.
const (
	clintMSIPOff     = 0x0000
	clintMTimeCmpOff = 0x4000
	clintMTimeOff    = 0xBFF8
)

// CLINT implements bus.Device: mtime, per-hart mtimecmp, and the msip
// software-interrupt latch.
type CLINT struct {
	mu       sync.Mutex
	msip     uint32
	mtimecmp uint64
	mtime    uint64
}

func NewCLINT() *CLINT {
	return &CLINT{mtimecmp: ^uint64(0)}
}

func (c *CLINT) Mutex() *sync.Mutex { return &c.mu }

func (c *CLINT) Load(offset uint64, size uint8) (uint64, bool) {
	switch offset {
	case clintMSIPOff:
		return uint64(c.msip), true
	case clintMTimeCmpOff:
		return c.mtimecmp, true
	case clintMTimeOff:
		return c.mtime, true
	default:
		return 0, true
	}
}

func (c *CLINT) Store(offset uint64, size uint8, val uint64) bool {
	switch offset {
	case clintMSIPOff:
		c.msip = uint32(val) & 1
	case clintMTimeCmpOff:
		c.mtimecmp = val
	case clintMTimeOff:
		c.mtime = val
	}
	return true
}

// Tick increments mtime and latches MIP.MTIP/MSIP.
func (c *CLINT) Tick(sink hart.InterruptSink) {
	c.mtime++

	mtipBit := uint64(1) << hart.CauseMTimerInterrupt
	if c.mtime >= c.mtimecmp {
		sink.SetPending(mtipBit)
	} else {
		sink.ClearPending(mtipBit)
	}

	msipBit := uint64(1) << hart.CauseMSoftwareInterrupt
	if c.msip != 0 {
		sink.SetPending(msipBit)
	} else {
		sink.ClearPending(msipBit)
	}
}
