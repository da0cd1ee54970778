package devices

import (
	"os"
	"sync"

	"github.com/rvemu/rv64emu/internal/hart"
)

// Legacy virtio-v1 MMIO register offsets: magic, version, device-id,
// feature negotiation, queue selection/alignment, QueueNotify,
// interrupt status/ack, Status.
const (
	vioMagicOff          = 0x000
	vioVersionOff        = 0x004
	vioDeviceIDOff       = 0x008
	vioVendorIDOff       = 0x00c
	vioDeviceFeaturesOff = 0x010
	vioDriverFeaturesOff = 0x020
	vioGuestPageSizeOff  = 0x028
	vioQueueSelOff       = 0x030
	vioQueueNumMaxOff    = 0x034
	vioQueueNumOff       = 0x038
	vioQueueAlignOff     = 0x03c
	vioQueuePFNOff       = 0x040
	vioQueueNotifyOff    = 0x050
	vioInterruptStatOff  = 0x060
	vioInterruptAckOff   = 0x064
	vioStatusOff         = 0x070
	vioConfigOff         = 0x100

	vioMagicValue  = 0x74726976 // "virt"
	vioVersion     = 1          // legacy
	vioDeviceIDBlk = 2
	vioVendorID    = 0x52564d51 // "QMVR", arbitrary

	vioQueueNumMax = 256
)

// virtq descriptor flags.
const (
	descFNext  = 1
	descFWrite = 2
)

// dma is the subset of internal/bus.Bus a device needs for DMA-style
// guest-memory access; satisfied structurally, not imported, to avoid
// a bus<->devices import cycle.
type dma interface {
	Load(addr uint64, size uint8) (uint64, bool)
	Store(addr uint64, size uint8, val uint64) bool
}

// VirtIO implements bus.Device: a legacy MMIO virtio block device
// backed by a host image file.
type VirtIO struct {
	mu   sync.Mutex
	plic irqRaiser
	mem  dma

	file *os.File

	guestPageSize uint32
	queueSel      uint32
	queueNum      uint32
	queueAlign    uint32
	queuePFN      uint32
	status        uint32
	interruptStat uint32
	driverFeat    uint32

	lastAvailIdx uint16
}

// NewVirtIO wires the device to mem for descriptor-chain DMA and plic
// for IRQ posting. file may be nil (no backing image attached).
func NewVirtIO(mem dma, plic irqRaiser, file *os.File) *VirtIO {
	return &VirtIO{mem: mem, plic: plic, file: file, guestPageSize: 4096}
}

func (v *VirtIO) Mutex() *sync.Mutex { return &v.mu }

func (v *VirtIO) Load(offset uint64, size uint8) (uint64, bool) {
	switch offset {
	case vioMagicOff:
		return vioMagicValue, true
	case vioVersionOff:
		return vioVersion, true
	case vioDeviceIDOff:
		return vioDeviceIDBlk, true
	case vioVendorIDOff:
		return vioVendorID, true
	case vioDeviceFeaturesOff:
		return 0, true
	case vioQueueNumMaxOff:
		return vioQueueNumMax, true
	case vioQueuePFNOff:
		return uint64(v.queuePFN), true
	case vioInterruptStatOff:
		return uint64(v.interruptStat), true
	case vioStatusOff:
		return uint64(v.status), true
	case vioConfigOff: // capacity, low 32 bits (sectors)
		return uint64(uint32(v.capacitySectors())), true
	case vioConfigOff + 4:
		return uint64(v.capacitySectors() >> 32), true
	default:
		return 0, true
	}
}

func (v *VirtIO) Store(offset uint64, size uint8, val uint64) bool {
	switch offset {
	case vioDriverFeaturesOff:
		v.driverFeat = uint32(val)
	case vioGuestPageSizeOff:
		v.guestPageSize = uint32(val)
	case vioQueueSelOff:
		v.queueSel = uint32(val)
	case vioQueueNumOff:
		v.queueNum = uint32(val)
	case vioQueueAlignOff:
		v.queueAlign = uint32(val)
	case vioQueuePFNOff:
		v.queuePFN = uint32(val)
	case vioQueueNotifyOff:
		// Notification to process the queue; actual work happens in Tick
		// so that device processing never runs on the hart's own call
		// stack re-entrantly.
	case vioInterruptAckOff:
		v.interruptStat &^= uint32(val)
	case vioStatusOff:
		v.status = uint32(val)
	}
	return true
}

func (v *VirtIO) capacitySectors() uint64 {
	if v.file == nil {
		return 0
	}
	fi, err := v.file.Stat()
	if err != nil {
		return 0
	}
	return uint64(fi.Size()) / 512
}

func (v *VirtIO) queueBase() uint64 {
	return uint64(v.queuePFN) * uint64(v.guestPageSize)
}

// Tick drains any newly-available descriptor chains:
// read the request header, move data between the backing file and
// DRAM via DMA, write the status byte, advance the used ring, and
// raise the IRQ.
func (v *VirtIO) Tick(sink hart.InterruptSink) {
	if v.status == 0 || v.queuePFN == 0 || v.queueNum == 0 {
		return
	}

	base := v.queueBase()
	descTable := base
	availRing := descTable + 16*uint64(v.queueNum)
	usedRing := align(availRing+4+2*uint64(v.queueNum), uint64(v.queueAlign))

	availIdx := v.read16(availRing + 2)
	if v.lastAvailIdx == availIdx {
		return
	}
	for v.lastAvailIdx != availIdx {
		ringSlot := availRing + 4 + 2*uint64(v.lastAvailIdx%uint16(v.queueNum))
		head := v.read16(ringSlot)
		v.processChain(descTable, uint16(head))

		usedIdx := v.read16(usedRing + 2)
		slot := usedRing + 4 + 8*uint64(usedIdx%uint16(v.queueNum))
		v.write32(slot, uint32(head))
		v.write32(slot+4, 0)
		v.write16(usedRing+2, usedIdx+1)

		v.lastAvailIdx++
	}

	v.interruptStat |= 1
	v.plic.Raise(IRQVirtIO)
}

// blkReqHeader mirrors virtio-blk's request header: type, reserved,
// sector.
type blkReqHeader struct {
	typ    uint32
	sector uint64
}

const (
	blkReqIn  = 0 // read
	blkReqOut = 1 // write
)

func (v *VirtIO) processChain(descTable uint64, head uint16) {
	idx := head
	descAddr := descTable + 16*uint64(idx)
	addr := v.read64(descAddr)
	length := v.read32(descAddr + 8)
	flags := v.read16(descAddr + 12)
	next := v.read16(descAddr + 14)

	hdr := blkReqHeader{typ: uint32(v.read32(addr)), sector: v.read64(addr + 8)}
	_ = length

	if flags&descFNext == 0 {
		return
	}
	idx = next
	descAddr = descTable + 16*uint64(idx)
	dataAddr := v.read64(descAddr)
	dataLen := v.read32(descAddr + 8)
	dataFlags := v.read16(descAddr + 12)
	dataNext := v.read16(descAddr + 14)

	v.transfer(hdr, dataAddr, dataLen, dataFlags&descFWrite != 0)

	if dataFlags&descFNext == 0 {
		return
	}
	statusAddr := v.read64(descTable + 16*uint64(dataNext))
	v.write8(statusAddr, 0) // VIRTIO_BLK_S_OK
}

func (v *VirtIO) transfer(hdr blkReqHeader, dataAddr uint64, dataLen uint32, deviceWrites bool) {
	if v.file == nil {
		return
	}
	buf := make([]byte, dataLen)
	offset := int64(hdr.sector) * 512

	switch hdr.typ {
	case blkReqIn: // device reads from the image, writes into guest memory
		n, _ := v.file.ReadAt(buf, offset)
		for i := 0; i < n; i++ {
			v.write8(dataAddr+uint64(i), buf[i])
		}
	case blkReqOut: // device reads from guest memory, writes into the image
		for i := range buf {
			buf[i] = byte(v.read8(dataAddr + uint64(i)))
		}
		_, _ = v.file.WriteAt(buf, offset)
	}
}

func align(v, a uint64) uint64 {
	if a == 0 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

func (v *VirtIO) read8(addr uint64) uint64  { val, _ := v.mem.Load(addr, 8); return val }
func (v *VirtIO) read16(addr uint64) uint16 { val, _ := v.mem.Load(addr, 16); return uint16(val) }
func (v *VirtIO) read32(addr uint64) uint32 { val, _ := v.mem.Load(addr, 32); return uint32(val) }
func (v *VirtIO) read64(addr uint64) uint64 { val, _ := v.mem.Load(addr, 64); return val }

func (v *VirtIO) write8(addr uint64, b byte)    { v.mem.Store(addr, 8, uint64(b)) }
func (v *VirtIO) write16(addr uint64, x uint16) { v.mem.Store(addr, 16, uint64(x)) }
func (v *VirtIO) write32(addr uint64, x uint32) { v.mem.Store(addr, 32, uint64(x)) }
