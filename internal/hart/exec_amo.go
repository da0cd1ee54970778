package hart

func init() {
	registerAMO()
}

func registerAMO() {
	execTable[ExecLRW] = execLRW
	execTable[ExecSCW] = execSCW
	execTable[ExecAMOSWAPW] = amoW(func(a, b uint32) uint32 { return b })
	execTable[ExecAMOADDW] = amoW(func(a, b uint32) uint32 { return a + b })
	execTable[ExecAMOXORW] = amoW(func(a, b uint32) uint32 { return a ^ b })
	execTable[ExecAMOANDW] = amoW(func(a, b uint32) uint32 { return a & b })
	execTable[ExecAMOORW] = amoW(func(a, b uint32) uint32 { return a | b })
	execTable[ExecAMOMINW] = amoW(func(a, b uint32) uint32 {
		if int32(a) < int32(b) {
			return a
		}
		return b
	})
	execTable[ExecAMOMAXW] = amoW(func(a, b uint32) uint32 {
		if int32(a) > int32(b) {
			return a
		}
		return b
	})
	execTable[ExecAMOMINUW] = amoW(func(a, b uint32) uint32 {
		if a < b {
			return a
		}
		return b
	})
	execTable[ExecAMOMAXUW] = amoW(func(a, b uint32) uint32 {
		if a > b {
			return a
		}
		return b
	})

	execTable[ExecLRD] = execLRD
	execTable[ExecSCD] = execSCD
	execTable[ExecAMOSWAPD] = amoD(func(a, b uint64) uint64 { return b })
	execTable[ExecAMOADDD] = amoD(func(a, b uint64) uint64 { return a + b })
	execTable[ExecAMOXORD] = amoD(func(a, b uint64) uint64 { return a ^ b })
	execTable[ExecAMOANDD] = amoD(func(a, b uint64) uint64 { return a & b })
	execTable[ExecAMOORD] = amoD(func(a, b uint64) uint64 { return a | b })
	execTable[ExecAMOMIND] = amoD(func(a, b uint64) uint64 {
		if int64(a) < int64(b) {
			return a
		}
		return b
	})
	execTable[ExecAMOMAXD] = amoD(func(a, b uint64) uint64 {
		if int64(a) > int64(b) {
			return a
		}
		return b
	})
	execTable[ExecAMOMINUD] = amoD(func(a, b uint64) uint64 {
		if a < b {
			return a
		}
		return b
	})
	execTable[ExecAMOMAXUD] = amoD(func(a, b uint64) uint64 {
		if a > b {
			return a
		}
		return b
	})
}

// execLRW/execLRD: load; record a reservation on the physical address.
func execLRW(h *Hart, in *Instr) {
	addr := h.X[in.Rs1]
	phys, ok := h.translate(addr, AccessLoad)
	if !ok {
		return
	}
	v, ok := h.bus.Load(phys, 32)
	if !ok {
		h.exc = Trap{Kind: ExceptionTrap, Cause: CauseLoadAccessFault, Value: addr}
		return
	}
	h.X[in.Rd] = uint64(int64(int32(v)))
	h.reservation = phys
}

func execLRD(h *Hart, in *Instr) {
	addr := h.X[in.Rs1]
	phys, ok := h.translate(addr, AccessLoad)
	if !ok {
		return
	}
	v, ok := h.bus.Load(phys, 64)
	if !ok {
		h.exc = Trap{Kind: ExceptionTrap, Cause: CauseLoadAccessFault, Value: addr}
		return
	}
	h.X[in.Rd] = v
	h.reservation = phys
}

// execSCW/execSCD: store only if the reservation still matches; rd=0
// on success, rd=1 on failure. The reservation is always cleared,
// whichever way the SC goes.
func execSCW(h *Hart, in *Instr) {
	addr := h.X[in.Rs1]
	phys, ok := h.translate(addr, AccessStore)
	if !ok {
		h.reservation = noReservation
		return
	}
	if h.reservation == phys {
		if ok := h.bus.Store(phys, 32, h.X[in.Rs2]&0xFFFFFFFF); !ok {
			h.exc = Trap{Kind: ExceptionTrap, Cause: CauseStoreAccessFault, Value: addr}
			h.reservation = noReservation
			return
		}
		h.X[in.Rd] = 0
	} else {
		h.X[in.Rd] = 1
	}
	h.reservation = noReservation
}

func execSCD(h *Hart, in *Instr) {
	addr := h.X[in.Rs1]
	phys, ok := h.translate(addr, AccessStore)
	if !ok {
		h.reservation = noReservation
		return
	}
	if h.reservation == phys {
		if ok := h.bus.Store(phys, 64, h.X[in.Rs2]); !ok {
			h.exc = Trap{Kind: ExceptionTrap, Cause: CauseStoreAccessFault, Value: addr}
			h.reservation = noReservation
			return
		}
		h.X[in.Rd] = 0
	} else {
		h.X[in.Rd] = 1
	}
	h.reservation = noReservation
}

// amoW builds a .W AMO executor: read, compute via op, write back; rd
// receives the pre-modified value, sign-extended.
func amoW(op func(mem, reg uint32) uint32) func(*Hart, *Instr) {
	return func(h *Hart, in *Instr) {
		addr := h.X[in.Rs1]
		phys, ok := h.translate(addr, AccessStore)
		if !ok {
			return
		}
		old, ok := h.bus.Load(phys, 32)
		if !ok {
			h.exc = Trap{Kind: ExceptionTrap, Cause: CauseLoadAccessFault, Value: addr}
			return
		}
		result := op(uint32(old), uint32(h.X[in.Rs2]))
		if ok := h.bus.Store(phys, 32, uint64(result)); !ok {
			h.exc = Trap{Kind: ExceptionTrap, Cause: CauseStoreAccessFault, Value: addr}
			return
		}
		h.X[in.Rd] = uint64(int64(int32(old)))
	}
}

// amoD builds a .D AMO executor.
func amoD(op func(mem, reg uint64) uint64) func(*Hart, *Instr) {
	return func(h *Hart, in *Instr) {
		addr := h.X[in.Rs1]
		phys, ok := h.translate(addr, AccessStore)
		if !ok {
			return
		}
		old, ok := h.bus.Load(phys, 64)
		if !ok {
			h.exc = Trap{Kind: ExceptionTrap, Cause: CauseLoadAccessFault, Value: addr}
			return
		}
		result := op(old, h.X[in.Rs2])
		if ok := h.bus.Store(phys, 64, result); !ok {
			h.exc = Trap{Kind: ExceptionTrap, Cause: CauseStoreAccessFault, Value: addr}
			return
		}
		h.X[in.Rd] = old
	}
}
