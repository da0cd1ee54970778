// Command rv64emu boots a raw or ELF RV64GC image against an emulated
// hart, bus, and device set, running the fetch-execute loop until the
// guest halts.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/rvemu/rv64emu/internal/bus"
	"github.com/rvemu/rv64emu/internal/config"
	"github.com/rvemu/rv64emu/internal/devices"
	"github.com/rvemu/rv64emu/internal/hart"
	"github.com/rvemu/rv64emu/internal/loader"
)

func main() {
	log.SetFlags(0)

	binaryPath := flag.String("binary", "", "raw or ELF RV64 image to boot")
	rfsimgPath := flag.String("rfsimg", "", "VirtIO block device backing file")
	riscvTest := flag.Bool("riscv-test", false, "enable the --riscv-test tohost completion convention")
	configPath := flag.String("config", "", "YAML memory-map override file")
	interactive := flag.Bool("interactive", false, "put the host terminal into raw mode and feed stdin to the UART")
	flag.Parse()

	if *binaryPath == "" {
		log.Fatal("usage: rv64emu -binary <path> [-rfsimg <path>] [-riscv-test] [-config <file>] [-interactive]")
	}

	mm, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("rv64emu: %v", err)
	}

	b := bus.New(mm.DRAMBase, int(mm.DRAMSize), mm.ROMBase,
		devices.BuildROM(int(mm.ROMSize), mm.DRAMBase, mm.DRAMSize, mm.UARTBase, mm.VirtIOBase, mm.CLINTBase, mm.PLICBase))

	clint := devices.NewCLINT()
	plic := devices.NewPLIC()
	uart := devices.NewUART(plic)

	var rfsimg *os.File
	if *rfsimgPath != "" {
		rfsimg, err = os.OpenFile(*rfsimgPath, os.O_RDWR, 0)
		if err != nil {
			log.Fatalf("rv64emu: open rfsimg: %v", err)
		}
		defer rfsimg.Close()
	}
	virtio := devices.NewVirtIO(b, plic, rfsimg)

	b.Attach(mm.CLINTBase, mm.CLINTSize, clint)
	b.Attach(mm.PLICBase, mm.PLICSize, plic)
	b.Attach(mm.UARTBase, mm.UARTSize, uart)
	b.Attach(mm.VirtIOBase, mm.VirtIOSize, virtio)

	if *interactive {
		restore, err := uart.Start()
		if err != nil {
			log.Fatalf("rv64emu: uart: %v", err)
		}
		defer restore()
	}

	img, err := loader.Load(*binaryPath, mm.DRAMBase)
	if err != nil {
		log.Fatalf("rv64emu: %v", err)
	}
	if err := loader.Install(b.DRAM(), img); err != nil {
		log.Fatalf("rv64emu: %v", err)
	}

	// The boot ROM's reset stub always jumps to DRAM's base; a
	// --riscv-test image is linked to run directly from its own entry
	// point instead, skipping that relocation jump.
	bootPC := mm.ROMBase
	if *riscvTest {
		bootPC = mm.DRAMBase + img.EntryOffset
	}

	h := hart.New(b, bootPC, mm.DRAMBase+mm.DRAMSize, *riscvTest)

	for !h.Halted {
		h.Step()
	}

	os.Exit(h.HaltCode)
}
