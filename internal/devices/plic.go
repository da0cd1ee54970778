package devices

import (
	"sync"

	"github.com/rvemu/rv64emu/internal/hart"
)

// PLIC register offsets, the QEMU-virt layout with its per-hart
// context windows collapsed to the single context a single hart needs.
const (
	plicPriorityBase = 0x000000 // + 4*sourceID
	plicPendingOff   = 0x001000
	plicEnableOff    = 0x002000
	plicThresholdOff = 0x200000
	plicClaimOff     = 0x200004

	maxSources = 32
)

// Interrupt source IDs.
const (
	IRQVirtIO = 1
	IRQUART0  = 10
)

// PLIC implements bus.Device: per-source priority, a pending bitmask,
// a single context's enable mask and threshold, and claim/complete.
// No priority stack is kept; the gate asserts SEIP and MEIP together
// and delegation decides which mode services the interrupt.
type PLIC struct {
	mu        sync.Mutex
	priority  [maxSources]uint32
	pending   uint32
	enable    uint32
	threshold uint32
}

func NewPLIC() *PLIC {
	return &PLIC{}
}

func (p *PLIC) Mutex() *sync.Mutex { return &p.mu }

// Raise ORs source's bit into pending. Called by other devices (UART,
// VirtIO), from their Tick while holding their own mutex or from
// UART.Inject after releasing it; the PLIC has its own mutex, so this
// takes it independently.
func (p *PLIC) Raise(source uint32) {
	p.mu.Lock()
	p.pending |= 1 << source
	p.mu.Unlock()
}

func (p *PLIC) Load(offset uint64, size uint8) (uint64, bool) {
	switch {
	case offset >= plicPriorityBase && offset < plicPriorityBase+4*maxSources:
		src := (offset - plicPriorityBase) / 4
		return uint64(p.priority[src]), true
	case offset == plicPendingOff:
		return uint64(p.pending), true
	case offset == plicEnableOff:
		return uint64(p.enable), true
	case offset == plicThresholdOff:
		return uint64(p.threshold), true
	case offset == plicClaimOff:
		return uint64(p.claim()), true
	default:
		return 0, true
	}
}

func (p *PLIC) Store(offset uint64, size uint8, val uint64) bool {
	switch {
	case offset >= plicPriorityBase && offset < plicPriorityBase+4*maxSources:
		src := (offset - plicPriorityBase) / 4
		p.priority[src] = uint32(val)
	case offset == plicEnableOff:
		p.enable = uint32(val)
	case offset == plicThresholdOff:
		p.threshold = uint32(val)
	case offset == plicClaimOff:
		// complete: acknowledged, no priority stack to pop.
	}
	return true
}

// claim returns the highest-priority enabled pending source above
// threshold and clears it from pending.
func (p *PLIC) claim() uint32 {
	best := uint32(0)
	bestPriority := p.threshold
	for src := uint32(1); src < maxSources; src++ {
		if p.pending&(1<<src) == 0 || p.enable&(1<<src) == 0 {
			continue
		}
		if p.priority[src] > bestPriority {
			best = src
			bestPriority = p.priority[src]
		}
	}
	if best != 0 {
		p.pending &^= 1 << best
	}
	return best
}

// Tick asserts MIP.SEIP and MIP.MEIP whenever any enabled pending
// source clears the threshold gate.
func (p *PLIC) Tick(sink hart.InterruptSink) {
	extBits := uint64(1)<<hart.CauseSExternalInterrupt | uint64(1)<<hart.CauseMExternalInterrupt
	if p.pending&p.enable != 0 {
		for src := uint32(1); src < maxSources; src++ {
			if p.pending&(1<<src) != 0 && p.enable&(1<<src) != 0 && p.priority[src] > p.threshold {
				sink.SetPending(extBits)
				return
			}
		}
	}
	sink.ClearPending(extBits)
}
