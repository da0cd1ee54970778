package devices

import (
	"bytes"
	"testing"
)

type fakePLIC struct {
	raised []uint32
}

func (f *fakePLIC) Raise(source uint32) { f.raised = append(f.raised, source) }

func TestUARTInjectSetsDataReadyAndRaisesIRQ(t *testing.T) {
	plic := &fakePLIC{}
	u := NewUART(plic)
	u.Inject('x')

	lsr, _ := u.Load(uartLSROff, 8)
	if lsr&lsrDataReady == 0 {
		t.Fatalf("LSR.DataReady should be set after Inject")
	}
	if len(plic.raised) != 1 || plic.raised[0] != IRQUART0 {
		t.Fatalf("expected a single IRQUART0 raise, got %v", plic.raised)
	}

	v, _ := u.Load(uartRHRTHROff, 8)
	if v != 'x' {
		t.Fatalf("RHR = %q, want 'x'", v)
	}
	lsr2, _ := u.Load(uartLSROff, 8)
	if lsr2&lsrDataReady != 0 {
		t.Fatalf("LSR.DataReady should clear after RHR is read")
	}
}

func TestUARTWriteToTHRFlushesToOut(t *testing.T) {
	plic := &fakePLIC{}
	u := NewUART(plic)
	var out bytes.Buffer
	u.out = &out

	u.Store(uartRHRTHROff, 8, 'h')
	u.Store(uartRHRTHROff, 8, 'i')
	if out.String() != "hi" {
		t.Fatalf("out = %q, want %q", out.String(), "hi")
	}
}

func TestUARTTickRaisesOnTHREWhenEnabled(t *testing.T) {
	plic := &fakePLIC{}
	u := NewUART(plic)
	u.Store(uartIEROff, 8, ierTHRE)
	u.Tick(nil)
	if len(plic.raised) != 1 || plic.raised[0] != IRQUART0 {
		t.Fatalf("expected IRQUART0 raise on tick with THRE enabled, got %v", plic.raised)
	}
}
