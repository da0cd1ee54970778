package hart

// ExecID tags which executor handles a decoded instruction. Per the
// "instruction pointer in decoded form" design note, this is a small
// value type (not a function pointer) so that a decoded Instr, and by
// extension an icache entry, is trivially copyable.
type ExecID uint16

const (
	ExecIllegal ExecID = iota

	// RV64I base
	ExecLUI
	ExecAUIPC
	ExecJAL
	ExecJALR
	ExecBEQ
	ExecBNE
	ExecBLT
	ExecBGE
	ExecBLTU
	ExecBGEU
	ExecLB
	ExecLH
	ExecLW
	ExecLBU
	ExecLHU
	ExecLWU
	ExecLD
	ExecSB
	ExecSH
	ExecSW
	ExecSD
	ExecADDI
	ExecSLTI
	ExecSLTIU
	ExecXORI
	ExecORI
	ExecANDI
	ExecSLLI
	ExecSRLI
	ExecSRAI
	ExecADD
	ExecSUB
	ExecSLL
	ExecSLT
	ExecSLTU
	ExecXOR
	ExecSRL
	ExecSRA
	ExecOR
	ExecAND
	ExecFENCE
	ExecFENCEI
	ExecECALL
	ExecEBREAK
	ExecADDIW
	ExecSLLIW
	ExecSRLIW
	ExecSRAIW
	ExecADDW
	ExecSUBW
	ExecSLLW
	ExecSRLW
	ExecSRAW

	// M extension
	ExecMUL
	ExecMULH
	ExecMULHSU
	ExecMULHU
	ExecDIV
	ExecDIVU
	ExecREM
	ExecREMU
	ExecMULW
	ExecDIVW
	ExecDIVUW
	ExecREMW
	ExecREMUW

	// A extension
	ExecLRW
	ExecSCW
	ExecAMOSWAPW
	ExecAMOADDW
	ExecAMOXORW
	ExecAMOANDW
	ExecAMOORW
	ExecAMOMINW
	ExecAMOMAXW
	ExecAMOMINUW
	ExecAMOMAXUW
	ExecLRD
	ExecSCD
	ExecAMOSWAPD
	ExecAMOADDD
	ExecAMOXORD
	ExecAMOANDD
	ExecAMOORD
	ExecAMOMIND
	ExecAMOMAXD
	ExecAMOMINUD
	ExecAMOMAXUD

	// Zicsr
	ExecCSRRW
	ExecCSRRS
	ExecCSRRC
	ExecCSRRWI
	ExecCSRRSI
	ExecCSRRCI

	// Privileged / system
	ExecMRET
	ExecSRET
	ExecSFENCEVMA

	// F/D load-store placeholders (opaque payload, no ALU semantics)
	ExecFLW
	ExecFSW
	ExecFLD
	ExecFSD

	numExecIDs
)

// execTable maps an ExecID to its executor. Populated at init() time by
// the registerXxx functions in exec_*.go.
var execTable [numExecIDs]func(*Hart, *Instr)

// Instr is the decoded form of one instruction: a value type copyable
// into the decoded-instruction cache.
type Instr struct {
	Op   ExecID
	Raw  uint32
	Size uint8 // 2 (compressed) or 4

	Rd, Rs1, Rs2 uint8
	Imm          int64 // sign-extended immediate
	Funct3       uint8
	Funct7       uint8
	Aq, Rl       bool // AMO acquire/release bits
}
