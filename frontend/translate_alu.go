package frontend

import "github.com/sh4jit/core/ir"

func init() {
	// ADD Rm,Rn
	register("0011nnnnmmmm1100", "add", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))))
	})
	// ADD #imm,Rn
	register("0111nnnniiiiiiii", "add.imm", false, func(tr *Translator, op uint16) {
		imm := tr.B.ConstI32(uint32(signExtend8(fieldI8(op))))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldN(op)), imm))
	})
	// ADDC Rm,Rn -- add with carry in/out via T
	register("0011nnnnmmmm1110", "addc", false, func(tr *Translator, op uint16) {
		n, m := tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))
		t := tr.B.Emit(ir.OpZExt, ir.I32, tr.loadT())
		sum1 := tr.B.Emit(ir.OpAdd, ir.I32, n, m)
		sum2 := tr.B.Emit(ir.OpAdd, ir.I32, sum1, t)
		// carry out if either add wrapped: sum1 < n, or sum2 < sum1
		c1 := tr.B.Emit(ir.OpCmpLtU, ir.I8, sum1, n)
		c2 := tr.B.Emit(ir.OpCmpLtU, ir.I8, sum2, sum1)
		carry := tr.B.Emit(ir.OpOr, ir.I8, c1, c2)
		tr.storeT(carry)
		tr.storeReg(fieldN(op), sum2)
	})
	// ADDV Rm,Rn -- T = signed overflow of Rn+Rm
	register("0011nnnnmmmm1111", "addv", false, func(tr *Translator, op uint16) {
		n, m := tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))
		sum := tr.B.Emit(ir.OpAdd, ir.I32, n, m)
		overflow := signedAddOverflows(tr, n, m, sum)
		tr.storeT(overflow)
		tr.storeReg(fieldN(op), sum)
	})
	// SUB Rm,Rn
	register("0011nnnnmmmm1000", "sub", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpSub, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))))
	})
	// SUBC Rm,Rn -- subtract with borrow via T
	register("0011nnnnmmmm1010", "subc", false, func(tr *Translator, op uint16) {
		n, m := tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))
		t := tr.B.Emit(ir.OpZExt, ir.I32, tr.loadT())
		diff1 := tr.B.Emit(ir.OpSub, ir.I32, n, m)
		diff2 := tr.B.Emit(ir.OpSub, ir.I32, diff1, t)
		b1 := tr.B.Emit(ir.OpCmpLtU, ir.I8, n, m)
		b2 := tr.B.Emit(ir.OpCmpLtU, ir.I8, diff1, t)
		borrow := tr.B.Emit(ir.OpOr, ir.I8, b1, b2)
		tr.storeT(borrow)
		tr.storeReg(fieldN(op), diff2)
	})
	// SUBV Rm,Rn -- T = signed overflow of Rn-Rm
	register("0011nnnnmmmm1011", "subv", false, func(tr *Translator, op uint16) {
		n, m := tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))
		diff := tr.B.Emit(ir.OpSub, ir.I32, n, m)
		overflow := signedSubOverflows(tr, n, m, diff)
		tr.storeT(overflow)
		tr.storeReg(fieldN(op), diff)
	})
	// NEG Rm,Rn
	register("0110nnnnmmmm1011", "neg", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpNeg, ir.I32, tr.loadReg(fieldM(op))))
	})
	// NEGC Rm,Rn -- negate with borrow in/out via T
	register("0110nnnnmmmm1010", "negc", false, func(tr *Translator, op uint16) {
		m := tr.loadReg(fieldM(op))
		t := tr.B.Emit(ir.OpZExt, ir.I32, tr.loadT())
		diff := tr.B.Emit(ir.OpSub, ir.I32, tr.B.ConstI32(0), m)
		result := tr.B.Emit(ir.OpSub, ir.I32, diff, t)
		b1 := tr.B.Emit(ir.OpCmpLtU, ir.I8, tr.B.ConstI32(0), m)
		b2 := tr.B.Emit(ir.OpCmpLtU, ir.I8, diff, t)
		borrow := tr.B.Emit(ir.OpOr, ir.I8, b1, b2)
		tr.storeT(borrow)
		tr.storeReg(fieldN(op), result)
	})

	// MUL.L Rm,Rn -> MACL
	register("0000nnnnmmmm0111", "mul.l", false, func(tr *Translator, op uint16) {
		prod := tr.B.Emit(ir.OpMul, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op)))
		tr.B.StoreContext(maclOffset, prod)
	})
	// MULU.W Rm,Rn -> MACL (zero-extended 16x16->32)
	register("0010nnnnmmmm1110", "mulu.w", false, func(tr *Translator, op uint16) {
		n := tr.B.Emit(ir.OpZExt, ir.I32, tr.B.Emit(ir.OpTrunc, ir.I16, tr.loadReg(fieldN(op))))
		m := tr.B.Emit(ir.OpZExt, ir.I32, tr.B.Emit(ir.OpTrunc, ir.I16, tr.loadReg(fieldM(op))))
		prod := tr.B.Emit(ir.OpMul, ir.I32, n, m)
		tr.B.StoreContext(maclOffset, prod)
	})
	// MULS.W Rm,Rn -> MACL (sign-extended 16x16->32)
	register("0010nnnnmmmm1111", "muls.w", false, func(tr *Translator, op uint16) {
		n := tr.B.Emit(ir.OpSExt, ir.I32, tr.B.Emit(ir.OpTrunc, ir.I16, tr.loadReg(fieldN(op))))
		m := tr.B.Emit(ir.OpSExt, ir.I32, tr.B.Emit(ir.OpTrunc, ir.I16, tr.loadReg(fieldM(op))))
		prod := tr.B.Emit(ir.OpMul, ir.I32, n, m)
		tr.B.StoreContext(maclOffset, prod)
	})
	// DMULU.L Rm,Rn -> MACH:MACL (64-bit unsigned product)
	register("0011nnnnmmmm0101", "dmulu.l", false, func(tr *Translator, op uint16) {
		n := tr.B.Emit(ir.OpZExt, ir.I64, tr.loadReg(fieldN(op)))
		m := tr.B.Emit(ir.OpZExt, ir.I64, tr.loadReg(fieldM(op)))
		prod := tr.B.Emit(ir.OpMul, ir.I64, n, m)
		lo := tr.B.Emit(ir.OpTrunc, ir.I32, prod)
		hi := tr.B.Emit(ir.OpTrunc, ir.I32, tr.B.Emit(ir.OpShr, ir.I64, prod, tr.B.ConstI64(32)))
		tr.B.StoreContext(maclOffset, lo)
		tr.B.StoreContext(machOffset, hi)
	})
	// DMULS.L Rm,Rn -> MACH:MACL (64-bit signed product)
	register("0011nnnnmmmm1101", "dmuls.l", false, func(tr *Translator, op uint16) {
		n := tr.B.Emit(ir.OpSExt, ir.I64, tr.loadReg(fieldN(op)))
		m := tr.B.Emit(ir.OpSExt, ir.I64, tr.loadReg(fieldM(op)))
		prod := tr.B.Emit(ir.OpMul, ir.I64, n, m)
		lo := tr.B.Emit(ir.OpTrunc, ir.I32, prod)
		hi := tr.B.Emit(ir.OpTrunc, ir.I32, tr.B.Emit(ir.OpShr, ir.I64, prod, tr.B.ConstI64(32)))
		tr.B.StoreContext(maclOffset, lo)
		tr.B.StoreContext(machOffset, hi)
	})

	// DIV0U -- clear Q, M, T
	register("0000000000011001", "div0u", false, func(tr *Translator, op uint16) {
		tr.setQ(tr.B.ConstI8(0))
		tr.setM(tr.B.ConstI8(0))
		tr.storeT(tr.B.ConstI8(0))
	})
	// DIV0S Rm,Rn -- Q=Rn's sign, M=Rm's sign, T=Q^M
	register("0010nnnnmmmm0111", "div0s", false, func(tr *Translator, op uint16) {
		n, m := tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))
		q := signBit(tr, n)
		mm := signBit(tr, m)
		tr.setQ(q)
		tr.setM(mm)
		tr.storeT(tr.B.Emit(ir.OpXor, ir.I8, q, mm))
	})
	// DIV1 Rm,Rn -- one step of the restoring-division algorithm; full
	// semantics (Q/M/T dance across 32 iterations) are delegated to an
	// external callback since a faithful single-step IR lowering buys
	// nothing a Go implementation wouldn't do more clearly in Go itself.
	register("0011nnnnmmmm0100", "div1", false, func(tr *Translator, op uint16) {
		tr.B.CallExternal(callDiv1, -1, tr.B.ConstI32(uint32(fieldN(op))), tr.B.ConstI32(uint32(fieldM(op))))
	})

	// MAC.L @Rm+,@Rn+ / MAC.W @Rm+,@Rn+ -- saturating multiply-accumulate
	// into MACH:MACL, post-incrementing both pointers; the S-bit-gated
	// saturation and 48-bit accumulation are delegated to an external
	// callback for the same reason DIV1 is.
	register("0000nnnnmmmm1111", "mac.l", false, func(tr *Translator, op uint16) {
		tr.B.CallExternal(callMacL, -1, tr.B.ConstI32(uint32(fieldN(op))), tr.B.ConstI32(uint32(fieldM(op))))
	})
	register("0100nnnnmmmm1111", "mac.w", false, func(tr *Translator, op uint16) {
		tr.B.CallExternal(callMacW, -1, tr.B.ConstI32(uint32(fieldN(op))), tr.B.ConstI32(uint32(fieldM(op))))
	})

	// AND Rm,Rn / AND #imm,R0 / AND.B #imm,@(R0,GBR)
	register("0010nnnnmmmm1001", "and", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpAnd, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))))
	})
	register("11001001iiiiiiii", "and.imm", false, func(tr *Translator, op uint16) {
		tr.storeReg(0, tr.B.Emit(ir.OpAnd, ir.I32, tr.loadReg(0), tr.B.ConstI32(uint32(fieldI8(op)))))
	})
	register("11001101iiiiiiii", "and.b", false, func(tr *Translator, op uint16) {
		andOrXorMemImm(tr, fieldI8(op), ir.OpAnd)
	})

	// OR Rm,Rn / OR #imm,R0 / OR.B #imm,@(R0,GBR)
	register("0010nnnnmmmm1011", "or", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpOr, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))))
	})
	register("11001011iiiiiiii", "or.imm", false, func(tr *Translator, op uint16) {
		tr.storeReg(0, tr.B.Emit(ir.OpOr, ir.I32, tr.loadReg(0), tr.B.ConstI32(uint32(fieldI8(op)))))
	})
	register("11001111iiiiiiii", "or.b", false, func(tr *Translator, op uint16) {
		andOrXorMemImm(tr, fieldI8(op), ir.OpOr)
	})

	// XOR Rm,Rn / XOR #imm,R0 / XOR.B #imm,@(R0,GBR)
	register("0010nnnnmmmm1010", "xor", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpXor, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))))
	})
	register("11001010iiiiiiii", "xor.imm", false, func(tr *Translator, op uint16) {
		tr.storeReg(0, tr.B.Emit(ir.OpXor, ir.I32, tr.loadReg(0), tr.B.ConstI32(uint32(fieldI8(op)))))
	})
	register("11001110iiiiiiii", "xor.b", false, func(tr *Translator, op uint16) {
		andOrXorMemImm(tr, fieldI8(op), ir.OpXor)
	})

	// NOT Rm,Rn
	register("0110nnnnmmmm0111", "not", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpNot, ir.I32, tr.loadReg(fieldM(op))))
	})

	// TST Rm,Rn / TST #imm,R0 / TST.B #imm,@(R0,GBR)
	register("0010nnnnmmmm1000", "tst", false, func(tr *Translator, op uint16) {
		and := tr.B.Emit(ir.OpAnd, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op)))
		tr.storeT(tr.B.Emit(ir.OpCmpEq, ir.I8, and, tr.B.ConstI32(0)))
	})
	register("11001000iiiiiiii", "tst.imm", false, func(tr *Translator, op uint16) {
		and := tr.B.Emit(ir.OpAnd, ir.I32, tr.loadReg(0), tr.B.ConstI32(uint32(fieldI8(op))))
		tr.storeT(tr.B.Emit(ir.OpCmpEq, ir.I8, and, tr.B.ConstI32(0)))
	})
	register("11001100iiiiiiii", "tst.b", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.B.LoadContext(gbrOffset, ir.I32))
		v := tr.B.Load(addr, ir.I8)
		and := tr.B.Emit(ir.OpAnd, ir.I8, v, tr.B.ConstI8(uint8(fieldI8(op))))
		tr.storeT(tr.B.Emit(ir.OpCmpEq, ir.I8, and, tr.B.ConstI8(0)))
	})

	// TAS.B @Rn -- test-and-set: T = (byte==0), byte |= 0x80
	register("0100nnnn00011011", "tas.b", false, func(tr *Translator, op uint16) {
		addr := tr.loadReg(fieldN(op))
		v := tr.B.Load(addr, ir.I8)
		tr.storeT(tr.B.Emit(ir.OpCmpEq, ir.I8, v, tr.B.ConstI8(0)))
		tr.B.Store(addr, tr.B.Emit(ir.OpOr, ir.I8, v, tr.B.ConstI8(0x80)))
	})

	// EXTS.B/W Rm,Rn
	register("0110nnnnmmmm1110", "exts.b", false, func(tr *Translator, op uint16) {
		v := tr.B.Emit(ir.OpTrunc, ir.I8, tr.loadReg(fieldM(op)))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpSExt, ir.I32, v))
	})
	register("0110nnnnmmmm1111", "exts.w", false, func(tr *Translator, op uint16) {
		v := tr.B.Emit(ir.OpTrunc, ir.I16, tr.loadReg(fieldM(op)))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpSExt, ir.I32, v))
	})
	// EXTU.B/W Rm,Rn
	register("0110nnnnmmmm1100", "extu.b", false, func(tr *Translator, op uint16) {
		v := tr.B.Emit(ir.OpTrunc, ir.I8, tr.loadReg(fieldM(op)))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpZExt, ir.I32, v))
	})
	register("0110nnnnmmmm1101", "extu.w", false, func(tr *Translator, op uint16) {
		v := tr.B.Emit(ir.OpTrunc, ir.I16, tr.loadReg(fieldM(op)))
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpZExt, ir.I32, v))
	})

	// CMP/EQ, CMP/GE, CMP/GT, CMP/HI, CMP/HS Rm,Rn
	register("0011nnnnmmmm0000", "cmp/eq", false, cmpRmRn(ir.OpCmpEq))
	register("0011nnnnmmmm0011", "cmp/ge", false, cmpRmRn(ir.OpCmpGeS))
	register("0011nnnnmmmm0111", "cmp/gt", false, cmpRmRnSwapped(ir.OpCmpLtS))
	register("0011nnnnmmmm0110", "cmp/hi", false, cmpRmRnSwapped(ir.OpCmpLtU))
	register("0011nnnnmmmm0010", "cmp/hs", false, cmpRmRn(ir.OpCmpGeU))
	// CMP/EQ #imm,R0
	register("10001000iiiiiiii", "cmp/eq.imm", false, func(tr *Translator, op uint16) {
		imm := tr.B.ConstI32(uint32(signExtend8(fieldI8(op))))
		tr.storeT(tr.B.Emit(ir.OpCmpEq, ir.I8, tr.loadReg(0), imm))
	})
	// CMP/PZ Rn -- T = (Rn >= 0)
	register("0100nnnn00010001", "cmp/pz", false, func(tr *Translator, op uint16) {
		tr.storeT(tr.B.Emit(ir.OpCmpGeS, ir.I8, tr.loadReg(fieldN(op)), tr.B.ConstI32(0)))
	})
	// CMP/PL Rn -- T = (Rn > 0)
	register("0100nnnn00010101", "cmp/pl", false, func(tr *Translator, op uint16) {
		tr.storeT(tr.B.Emit(ir.OpCmpLtS, ir.I8, tr.B.ConstI32(0), tr.loadReg(fieldN(op))))
	})
	// CMP/STR Rm,Rn -- T set if any corresponding byte matches
	register("0010nnnnmmmm1100", "cmp/str", false, func(tr *Translator, op uint16) {
		x := tr.B.Emit(ir.OpXor, ir.I32, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op)))
		var anyZeroByte *ir.Value
		for i := 0; i < 4; i++ {
			shifted := tr.B.Emit(ir.OpShr, ir.I32, x, tr.B.ConstI32(uint32(i*8)))
			b := tr.B.Emit(ir.OpTrunc, ir.I8, shifted)
			isZero := tr.B.Emit(ir.OpCmpEq, ir.I8, b, tr.B.ConstI8(0))
			if anyZeroByte == nil {
				anyZeroByte = isZero
			} else {
				anyZeroByte = tr.B.Emit(ir.OpOr, ir.I8, anyZeroByte, isZero)
			}
		}
		tr.storeT(anyZeroByte)
	})

	// NOP
	register("0000000000001001", "nop", false, func(tr *Translator, op uint16) {})
}

func cmpRmRn(cmpOp ir.Opcode) func(tr *Translator, op uint16) {
	return func(tr *Translator, op uint16) {
		tr.storeT(tr.B.Emit(cmpOp, ir.I8, tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op))))
	}
}

// cmpRmRnSwapped is for opcodes defined as "Rn cmpOp-inverse Rm" (e.g.
// CMP/GT Rm,Rn means T = Rn > Rm, i.e. Rm < Rn), which reads as cmpOp
// applied with the argument order swapped relative to cmpRmRn.
func cmpRmRnSwapped(cmpOp ir.Opcode) func(tr *Translator, op uint16) {
	return func(tr *Translator, op uint16) {
		tr.storeT(tr.B.Emit(cmpOp, ir.I8, tr.loadReg(fieldM(op)), tr.loadReg(fieldN(op))))
	}
}

func andOrXorMemImm(tr *Translator, imm int, op ir.Opcode) {
	addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.B.LoadContext(gbrOffset, ir.I32))
	v := tr.B.Load(addr, ir.I8)
	result := tr.B.Emit(op, ir.I8, v, tr.B.ConstI8(uint8(imm)))
	tr.B.Store(addr, result)
}

func signBit(tr *Translator, v *ir.Value) *ir.Value {
	shifted := tr.B.Emit(ir.OpShr, ir.I32, v, tr.B.ConstI32(31))
	return tr.B.Emit(ir.OpTrunc, ir.I8, shifted)
}

// signedAddOverflows reports whether n+m overflowed as a signed I32
// add: true when operands share a sign and the result's sign differs.
func signedAddOverflows(tr *Translator, n, m, sum *ir.Value) *ir.Value {
	sn, sm, ss := signBit(tr, n), signBit(tr, m), signBit(tr, sum)
	sameSign := tr.B.Emit(ir.OpCmpEq, ir.I8, sn, sm)
	differs := tr.B.Emit(ir.OpCmpNe, ir.I8, sn, ss)
	return tr.B.Emit(ir.OpAnd, ir.I8, sameSign, differs)
}

// signedSubOverflows reports whether n-m overflowed as a signed I32
// subtract: true when operands' signs differ and the result's sign
// matches the subtrahend's.
func signedSubOverflows(tr *Translator, n, m, diff *ir.Value) *ir.Value {
	sn, sm, sd := signBit(tr, n), signBit(tr, m), signBit(tr, diff)
	differSigns := tr.B.Emit(ir.OpCmpNe, ir.I8, sn, sm)
	matches := tr.B.Emit(ir.OpCmpEq, ir.I8, sm, sd)
	return tr.B.Emit(ir.OpAnd, ir.I8, differSigns, matches)
}
