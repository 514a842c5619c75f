package frontend

import "github.com/sh4jit/core/ir"

func init() {
	// SHLL/SHAL Rn -- shift left one bit, T = bit shifted out. Both
	// mnemonics perform the identical operation (only the right-shift
	// forms differ in fill bit), kept as separate encodings for mnemonic
	// symmetry with SHLR/SHAR.
	register("0100nnnn00000000", "shll", false, func(tr *Translator, op uint16) {
		shiftLeftOne(tr, fieldN(op))
	})
	register("0100nnnn00100000", "shal", false, func(tr *Translator, op uint16) {
		shiftLeftOne(tr, fieldN(op))
	})

	// SHLR Rn -- logical shift right one bit, fill with 0
	register("0100nnnn00000001", "shlr", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldN(op))
		tr.storeT(tr.B.Emit(ir.OpTrunc, ir.I8, v))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpShr, ir.I32, v, tr.B.ConstI32(1)))
	})
	// SHAR Rn -- arithmetic shift right one bit, fill with sign bit
	register("0100nnnn00100001", "shar", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldN(op))
		tr.storeT(tr.B.Emit(ir.OpTrunc, ir.I8, v))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpSar, ir.I32, v, tr.B.ConstI32(1)))
	})

	// SHLL2/8/16, SHLR2/8/16 Rn
	register("0100nnnn00001000", "shll2", false, shiftConst(ir.OpShl, 2))
	register("0100nnnn00011000", "shll8", false, shiftConst(ir.OpShl, 8))
	register("0100nnnn00101000", "shll16", false, shiftConst(ir.OpShl, 16))
	register("0100nnnn00001001", "shlr2", false, shiftConst(ir.OpShr, 2))
	register("0100nnnn00011001", "shlr8", false, shiftConst(ir.OpShr, 8))
	register("0100nnnn00101001", "shlr16", false, shiftConst(ir.OpShr, 16))

	// ROTL/ROTR Rn
	register("0100nnnn00000100", "rotl", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldN(op))
		tr.storeT(signBit31(tr, v))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpRotl, ir.I32, v, tr.B.ConstI32(1)))
	})
	register("0100nnnn00000101", "rotr", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldN(op))
		tr.storeT(tr.B.Emit(ir.OpTrunc, ir.I8, v))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpRotr, ir.I32, v, tr.B.ConstI32(1)))
	})
	// ROTCL/ROTCR Rn -- rotate through T
	register("0100nnnn00100100", "rotcl", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldN(op))
		oldT := tr.B.Emit(ir.OpZExt, ir.I32, tr.loadT())
		newT := signBit31(tr, v)
		shifted := tr.B.Emit(ir.OpShl, ir.I32, v, tr.B.ConstI32(1))
		result := tr.B.Emit(ir.OpOr, ir.I32, shifted, oldT)
		tr.storeT(newT)
		tr.storeReg(fieldN(op), result)
	})
	register("0100nnnn00100101", "rotcr", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldN(op))
		oldT := tr.B.Emit(ir.OpZExt, ir.I32, tr.loadT())
		newT := tr.B.Emit(ir.OpTrunc, ir.I8, v)
		shifted := tr.B.Emit(ir.OpShr, ir.I32, v, tr.B.ConstI32(1))
		oldTHi := tr.B.Emit(ir.OpShl, ir.I32, oldT, tr.B.ConstI32(31))
		result := tr.B.Emit(ir.OpOr, ir.I32, shifted, oldTHi)
		tr.storeT(newT)
		tr.storeReg(fieldN(op), result)
	})

	// SHAD Rm,Rn -- dynamic arithmetic shift: sign of Rm selects
	// direction, |Rm[4:0]| the amount; Rm>=0 shifts left.
	register("0100nnnnmmmm1100", "shad", false, func(tr *Translator, op uint16) {
		shiftDynamic(tr, fieldN(op), fieldM(op), true)
	})
	// SHLD Rm,Rn -- dynamic logical shift
	register("0100nnnnmmmm1101", "shld", false, func(tr *Translator, op uint16) {
		shiftDynamic(tr, fieldN(op), fieldM(op), false)
	})
}

func shiftLeftOne(tr *Translator, n int) {
	v := tr.loadReg(n)
	tr.storeT(signBit31(tr, v))
	tr.storeReg(n, tr.B.Emit(ir.OpShl, ir.I32, v, tr.B.ConstI32(1)))
}

func signBit31(tr *Translator, v *ir.Value) *ir.Value {
	shifted := tr.B.Emit(ir.OpShr, ir.I32, v, tr.B.ConstI32(31))
	return tr.B.Emit(ir.OpTrunc, ir.I8, shifted)
}

func shiftConst(op ir.Opcode, amount uint32) func(tr *Translator, op16 uint16) {
	return func(tr *Translator, op16 uint16) {
		n := fieldN(op16)
		v := tr.loadReg(n)
		tr.storeReg(n, tr.B.Emit(op, ir.I32, v, tr.B.ConstI32(amount)))
	}
}

// shiftDynamic emits a sign-dispatched shift: SHAD takes an arithmetic
// right shift when Rm is negative, SHLD a logical one; both shift left
// for non-negative amounts. Each branch stores Rn's new value directly
// into the context before jumping to the shared exit block, since
// context slots are plain memory, not SSA values -- no phi node is
// needed to merge them.
func shiftDynamic(tr *Translator, n, m int, arithmetic bool) {
	rn := tr.loadReg(n)
	rm := tr.loadReg(m)

	leftBlk := tr.B.NewBlock()
	rightBlk := tr.B.NewBlock()
	joinBlk := tr.B.NewBlock()

	isNeg := tr.B.Emit(ir.OpCmpLtS, ir.I8, rm, tr.B.ConstI32(0))
	tr.B.BranchIf(isNeg, rightBlk, leftBlk)

	tr.B.SetCurrent(leftBlk)
	amtMasked := tr.B.Emit(ir.OpAnd, ir.I32, rm, tr.B.ConstI32(0x1f))
	tr.storeReg(n, tr.B.Emit(ir.OpShl, ir.I32, rn, amtMasked))
	tr.B.Jump(joinBlk)

	tr.B.SetCurrent(rightBlk)
	negAmt := tr.B.Emit(ir.OpNeg, ir.I32, rm)
	amt := tr.B.Emit(ir.OpAnd, ir.I32, negAmt, tr.B.ConstI32(0x1f))
	if arithmetic {
		tr.storeReg(n, tr.B.Emit(ir.OpSar, ir.I32, rn, amt))
	} else {
		tr.storeReg(n, tr.B.Emit(ir.OpShr, ir.I32, rn, amt))
	}
	tr.B.Jump(joinBlk)

	tr.B.SetCurrent(joinBlk)
}
