package frontend

import "github.com/sh4jit/core/ir"

// FIPR (vector dot product) and FTRV (4x4 matrix transform) operate on
// FV/XMTRX register groups the IR has no aliasing for yet; left
// unimplemented here rather than approximated.

func init() {
	// FADD/FSUB/FMUL/FDIV FRm,FRn
	register("1111nnnnmmmm0000", "fadd", false, fBinOp(ir.OpFAdd))
	register("1111nnnnmmmm0001", "fsub", false, fBinOp(ir.OpFSub))
	register("1111nnnnmmmm0010", "fmul", false, fBinOp(ir.OpFMul))
	register("1111nnnnmmmm0011", "fdiv", false, fBinOp(ir.OpFDiv))

	// FCMP/EQ, FCMP/GT FRm,FRn
	register("1111nnnnmmmm0100", "fcmp.eq", false, fCmpOp(ir.OpFCmpEq))
	register("1111nnnnmmmm0101", "fcmp.gt", false, fCmpOp(ir.OpFCmpGt))

	// FMOV.S @Rm,FRn / FMOV.S FRm,@Rn and the indexed/inc/dec forms
	register("1111nnnnmmmm1000", "fmov.load", false, func(tr *Translator, op uint16) {
		addr := tr.loadReg(fieldM(op))
		tr.storeFReg(fieldN(op), tr.B.Load(addr, ir.F32))
	})
	register("1111nnnnmmmm1001", "fmov.load.inc", false, func(tr *Translator, op uint16) {
		m := fieldM(op)
		addr := tr.loadReg(m)
		tr.storeFReg(fieldN(op), tr.B.Load(addr, ir.F32))
		tr.storeReg(m, tr.B.Emit(ir.OpAdd, ir.I32, addr, tr.B.ConstI32(4)))
	})
	register("1111nnnnmmmm1010", "fmov.store", false, func(tr *Translator, op uint16) {
		addr := tr.loadReg(fieldN(op))
		tr.B.Store(addr, tr.loadFReg(fieldM(op)))
	})
	register("1111nnnnmmmm1011", "fmov.store.dec", false, func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.B.Emit(ir.OpSub, ir.I32, tr.loadReg(n), tr.B.ConstI32(4))
		tr.B.Store(addr, tr.loadFReg(fieldM(op)))
		tr.storeReg(n, addr)
	})
	register("1111nnnnmmmm0110", "fmov.load.r0", false, func(tr *Translator, op uint16) {
		base := tr.loadReg(fieldM(op))
		addr := tr.B.Emit(ir.OpAdd, ir.I32, base, tr.loadReg(0))
		tr.storeFReg(fieldN(op), tr.B.Load(addr, ir.F32))
	})
	register("1111nnnnmmmm0111", "fmov.store.r0", false, func(tr *Translator, op uint16) {
		base := tr.loadReg(fieldN(op))
		addr := tr.B.Emit(ir.OpAdd, ir.I32, base, tr.loadReg(0))
		tr.B.Store(addr, tr.loadFReg(fieldM(op)))
	})
	// FMOV FRm,FRn -- register to register. Under FPSCR.SZ (paired-single,
	// baked in as tr.cfg.PairedFMove at compile time) n/m name a DR pair
	// and the move covers both FR halves, e.g. FMOV DR0,DR2 carries
	// FR0->FR2 and FR1->FR3.
	register("1111nnnnmmmm1100", "fmov.reg", false, func(tr *Translator, op uint16) {
		n, m := fieldN(op), fieldM(op)
		tr.storeFReg(n, tr.loadFReg(m))
		if tr.cfg.PairedFMove {
			tr.storeFReg(n+1, tr.loadFReg(m+1))
		}
	})

	// FLDS FRm,FPUL / FSTS FPUL,FRn
	register("1111mmmm00011101", "flds", false, func(tr *Translator, op uint16) {
		tr.B.StoreContext(fpulOffset, tr.loadFReg(fieldN(op)))
	})
	register("1111nnnn00001101", "fsts", false, func(tr *Translator, op uint16) {
		tr.storeFReg(fieldN(op), tr.B.LoadContext(fpulOffset, ir.F32))
	})

	// FLOAT FPUL,FRn -- int32 to float32
	register("1111nnnn00101101", "float", false, func(tr *Translator, op uint16) {
		fpul := tr.B.LoadContext(fpulOffset, ir.I32)
		tr.storeFReg(fieldN(op), tr.B.Emit(ir.OpIntToFloat, ir.F32, fpul))
	})
	// FTRC FRm,FPUL -- float32 to int32, truncating toward zero
	register("1111mmmm00111101", "ftrc", false, func(tr *Translator, op uint16) {
		v := tr.loadFReg(fieldN(op))
		tr.B.StoreContext(fpulOffset, tr.B.Emit(ir.OpFloatToInt, ir.I32, v))
	})

	// FNEG/FABS FRn
	register("1111nnnn01001101", "fneg", false, fUnOp(ir.OpFNeg))
	register("1111nnnn01011101", "fabs", false, fUnOp(ir.OpFAbs))
	// FSQRT FRn
	register("1111nnnn01101101", "fsqrt", false, fUnOp(ir.OpFSqrt))

	// FMAC FR0,FRm,FRn -- FRn = FR0*FRm + FRn
	register("1111nnnnmmmm1110", "fmac", false, func(tr *Translator, op uint16) {
		fr0 := tr.loadFReg(0)
		frm := tr.loadFReg(fieldM(op))
		frn := tr.loadFReg(fieldN(op))
		tr.storeFReg(fieldN(op), tr.B.Emit(ir.OpFMac, ir.F32, fr0, frm, frn))
	})

	// FSCHG/FRCHG -- toggle FPSCR.SZ / FPSCR.FR. Both flip a single bit
	// and, for FRCHG, trigger the Fr/Xf bank swap; routed through the
	// same LDS FPSCR callback path so SH4Context stays the sole owner of
	// that invariant.
	register("1111001111111101", "fschg", false, func(tr *Translator, op uint16) {
		toggleFPSCRBit(tr, core_fpscrBitSZ)
	})
	register("1111101111111101", "frchg", false, func(tr *Translator, op uint16) {
		oldFPSCR := toggleFPSCRBit(tr, core_fpscrBitFR)
		tr.B.CallExternal(callLdcFPSCR, -1, oldFPSCR)
	})
}

// core_fpscrBitSZ/core_fpscrBitFR mirror context.go's unexported
// fpscrBit{SZ,FR} positions; FSCHG/FRCHG are the only frontend
// instructions that need them directly.
const (
	core_fpscrBitSZ = 20
	core_fpscrBitFR = 21
)

func toggleFPSCRBit(tr *Translator, pos int) *ir.Value {
	v := tr.B.LoadContext(fpscrOffset, ir.I32)
	bit := tr.B.Emit(ir.OpAnd, ir.I32, v, tr.B.ConstI32(uint32(1)<<uint(pos)))
	isSet := tr.B.Emit(ir.OpCmpNe, ir.I8, bit, tr.B.ConstI32(0))
	cleared := tr.B.Emit(ir.OpAnd, ir.I32, v, tr.B.ConstI32(^(uint32(1)<<uint(pos))))
	flipped := tr.B.Emit(ir.OpShl, ir.I32, tr.B.Emit(ir.OpXor, ir.I8, isSet, tr.B.ConstI8(1)), tr.B.ConstI32(uint32(pos)))
	merged := tr.B.Emit(ir.OpOr, ir.I32, cleared, tr.B.Emit(ir.OpZExt, ir.I32, flipped))
	tr.B.StoreContext(fpscrOffset, merged)
	return v
}

func fBinOp(op ir.Opcode) func(tr *Translator, opWord uint16) {
	return func(tr *Translator, opWord uint16) {
		n, m := fieldN(opWord), fieldM(opWord)
		result := tr.B.Emit(op, ir.F32, tr.loadFReg(n), tr.loadFReg(m))
		tr.storeFReg(n, result)
	}
}

func fUnOp(op ir.Opcode) func(tr *Translator, opWord uint16) {
	return func(tr *Translator, opWord uint16) {
		n := fieldN(opWord)
		tr.storeFReg(n, tr.B.Emit(op, ir.F32, tr.loadFReg(n)))
	}
}

func fCmpOp(op ir.Opcode) func(tr *Translator, opWord uint16) {
	return func(tr *Translator, opWord uint16) {
		n, m := fieldN(opWord), fieldM(opWord)
		tr.storeT(tr.B.Emit(op, ir.I8, tr.loadFReg(n), tr.loadFReg(m)))
	}
}
