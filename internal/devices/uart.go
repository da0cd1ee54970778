package devices

import (
	"bufio"
	"io"
	"log"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/rvemu/rv64emu/internal/hart"
)

// 16550 register offsets.
const (
	uartRHRTHROff = 0
	uartIEROff    = 1
	uartISROff    = 2 // FCR on write
	uartLCROff    = 3
	uartLSROff    = 5
)

// LSR bits.
const (
	lsrDataReady  = 1 << 0
	lsrTHREmpty   = 1 << 5
	lsrTxEmpty    = 1 << 6
)

// IER bits.
const (
	ierRxReady = 1 << 0
	ierTHRE    = 1 << 1
)

// irqRaiser is the subset of PLIC a device needs to post its IRQ.
type irqRaiser interface {
	Raise(source uint32)
}

// UART implements bus.Device: a 16550 subset with a background host-
// input thread. Writes to THR are flushed straight to host stdout;
// reads of RHR drain a byte the input thread deposited. The mutex
// returned by Mutex is the same one the input goroutine locks before
// touching rhr/lsr.
type UART struct {
	mu  sync.Mutex
	plic irqRaiser

	rhr byte
	ier byte
	lsr byte

	in  io.Reader
	out io.Writer

	restoreTerm func()
}

// NewUART wires the UART to plic for IRQ posting. Start begins the
// background input thread; callers that don't want raw-mode stdin
// (e.g. tests) can skip Start and feed bytes via Inject.
func NewUART(plic irqRaiser) *UART {
	return &UART{plic: plic, lsr: lsrTHREmpty | lsrTxEmpty, out: os.Stdout}
}

func (u *UART) Mutex() *sync.Mutex { return &u.mu }

// Start puts the controlling terminal into raw mode (so keystrokes
// arrive unbuffered) and spawns the background thread that reads
// stdin a byte at a time and deposits it into RHR. Returns a restore
// function; the caller is responsible for calling it on shutdown.
func (u *UART) Start() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		u.restoreTerm = func() { _ = term.Restore(fd, oldState) }
	}
	u.in = os.Stdin
	go u.inputLoop()
	return u.Close, nil
}

// Close restores the terminal, if it was put into raw mode.
func (u *UART) Close() {
	if u.restoreTerm != nil {
		u.restoreTerm()
	}
}

func (u *UART) inputLoop() {
	r := bufio.NewReader(u.in)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err != io.EOF {
				log.Printf("[uart] input thread: %v", err)
			}
			return
		}
		u.Inject(b)
	}
}

// Inject deposits one host-input byte into RHR and raises UART0 at
// the PLIC, matching what the background thread does for real stdin;
// exported so tests and alternate front-ends can drive the UART
// without a terminal.
func (u *UART) Inject(b byte) {
	u.mu.Lock()
	u.rhr = b
	u.lsr |= lsrDataReady
	u.mu.Unlock()
	u.plic.Raise(IRQUART0)
}

func (u *UART) Load(offset uint64, size uint8) (uint64, bool) {
	switch offset {
	case uartRHRTHROff:
		v := u.rhr
		u.lsr &^= lsrDataReady
		return uint64(v), true
	case uartIEROff:
		return uint64(u.ier), true
	case uartISROff:
		return 0x01, true // no interrupt pending (subset)
	case uartLSROff:
		return uint64(u.lsr), true
	default:
		return 0, true
	}
}

func (u *UART) Store(offset uint64, size uint8, val uint64) bool {
	switch offset {
	case uartRHRTHROff:
		if u.out != nil {
			_, _ = u.out.Write([]byte{byte(val)})
		}
	case uartIEROff:
		u.ier = byte(val)
	case uartLCROff:
		// line control (word length/stop/parity): accepted, not modeled.
	}
	return true
}

// Tick raises the THR-empty interrupt when enabled; RX interrupts are
// raised immediately by Inject instead of waiting for a tick, since
// the background thread is the sole writer and already holds the lock
// at the moment data arrives.
func (u *UART) Tick(sink hart.InterruptSink) {
	if u.ier&ierTHRE != 0 {
		u.plic.Raise(IRQUART0)
	}
}
