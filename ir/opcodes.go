package ir

// Opcode identifies an Instr's operation. The set is deliberately small:
// the frontend lowers every SH4 instruction down to these, and every
// optimizer pass and backend switches exhaustively over them.
type Opcode int

const (
	OpNop Opcode = iota

	// Constants and register moves.
	OpLoadConst
	OpMov

	// Integer arithmetic, Args[0], Args[1] -> Result, all same Type.
	OpAdd
	OpSub
	OpMul
	OpUMulHi
	OpSMulHi
	OpNeg
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpShr  // logical
	OpSar  // arithmetic
	OpRotl
	OpRotr

	// Widening/narrowing conversions, Args[0] -> Result of a different Type.
	OpSExt
	OpZExt
	OpTrunc
	OpIntToFloat
	OpFloatToInt
	OpFloatToFloat // f32<->f64

	// Floating point, Args[0], Args[1] -> Result, all same Type.
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFNeg
	OpFAbs
	OpFSqrt
	OpFMac // Args[0]*Args[1]+Args[2], paired-single capable

	// Comparisons: Result is I8, 0 or 1.
	OpCmpEq
	OpCmpNe
	OpCmpLtU
	OpCmpLtS
	OpCmpGeU
	OpCmpGeS
	OpFCmpEq
	OpFCmpGt

	// Guest memory access. Args[0] is the guest address (I32); for
	// stores Args[1] is the value. Result Type fixes the access width.
	OpLoad
	OpStore

	// SH4 context (register file) access, Args[0] is a constant byte
	// offset into SH4Context (see context.go's ContextOffset*
	// constants) folded in at build time, never a runtime value.
	OpLoadContext
	OpStoreContext

	// Control flow. An OpJump with Args[0] exits the compiled unit to
	// that I32 guest PC; without arguments it jumps to its block's sole
	// successor. OpBranchIf's Args[0] is the condition; its targets are
	// the block's Succs[0] (taken when nonzero) and Succs[1].
	OpJump
	OpBranchIf

	// OpCallExternal invokes a backend-provided Go callback taking
	// (*SH4Context) for instructions whose side effects are impractical
	// to inline (LDC SR/FPSCR bank swaps, interrupt-sensitive
	// sequences, TRAPA). Args[0] is a constant callback ID.
	OpCallExternal

	// OpGuardPC is a debug/verification-only no-op; see backend/interp.
	OpGuardPC

	numOpcodes
)

// Flag is a per-instruction bit set, combined with Instr.Flags.
type Flag uint32

const (
	// FlagInvalidatesContext marks an instruction whose external
	// callback (OpCallExternal) may have rewritten SH4Context fields
	// the optimizer's context-promotion pass has cached in SSA values;
	// load/store elimination must flush and reload across it.
	FlagInvalidatesContext Flag = 1 << iota
	// FlagHasSideEffect excludes an instruction from dead-code removal
	// even when its Result has no uses (stores, external calls, guards).
	FlagHasSideEffect
	// FlagTerminator marks block-ending instructions (OpJump,
	// OpBranchIf); validated to appear exactly once, last, per block.
	FlagTerminator
)

func (op Opcode) IsTerminator() bool {
	return op == OpJump || op == OpBranchIf
}

func (op Opcode) HasSideEffect() bool {
	switch op {
	case OpStore, OpStoreContext, OpCallExternal, OpJump, OpBranchIf, OpGuardPC:
		return true
	default:
		return false
	}
}

func (op Opcode) String() string {
	names := [...]string{
		"nop", "loadconst", "mov",
		"add", "sub", "mul", "umulhi", "smulhi", "neg", "and", "or", "xor", "not",
		"shl", "shr", "sar", "rotl", "rotr",
		"sext", "zext", "trunc", "inttofloat", "floattoint", "floattofloat",
		"fadd", "fsub", "fmul", "fdiv", "fneg", "fabs", "fsqrt", "fmac",
		"cmpeq", "cmpne", "cmpltu", "cmplts", "cmpgeu", "cmpges", "fcmpeq", "fcmpgt",
		"load", "store", "loadctx", "storectx",
		"jump", "branchif", "callext", "guardpc",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}
