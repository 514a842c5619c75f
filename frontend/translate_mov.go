package frontend

import "github.com/sh4jit/core/ir"

func init() {
	// MOV Rm,Rn
	register("0110nnnnmmmm0011", "mov", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.loadReg(fieldM(op)))
	})

	// MOV #imm,Rn (sign-extended 8-bit immediate)
	register("1110nnnniiiiiiii", "mov.imm", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.ConstI32(uint32(signExtend8(fieldI8(op)))))
	})

	// MOV.W @(disp,PC),Rn -- disp is a byte count scaled by 2, PC-relative
	register("1001nnnndddddddd", "mov.w@pc", false, func(tr *Translator, op uint16) {
		addr := tr.B.ConstI32((tr.PC + 4) + uint32(fieldD8(op))*2)
		tr.storeReg(fieldN(op), tr.loadSExt(addr, ir.I16))
	})

	// MOV.L @(disp,PC),Rn -- disp scaled by 4, PC masked to a 4-byte boundary
	register("1101nnnndddddddd", "mov.l@pc", false, func(tr *Translator, op uint16) {
		base := (tr.PC + 4) &^ 3
		addr := tr.B.ConstI32(base + uint32(fieldD8(op))*4)
		tr.storeReg(fieldN(op), tr.B.Load(addr, ir.I32))
	})

	// MOV.B/W/L @Rm,Rn
	register("0110nnnnmmmm0000", "mov.b@", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.loadSExt(tr.loadReg(fieldM(op)), ir.I8))
	})
	register("0110nnnnmmmm0001", "mov.w@", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.loadSExt(tr.loadReg(fieldM(op)), ir.I16))
	})
	register("0110nnnnmmmm0010", "mov.l@", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.loadSExt(tr.loadReg(fieldM(op)), ir.I32))
	})

	// MOV.B/W/L Rm,@Rn
	register("0010nnnnmmmm0000", "mov.b!", false, func(tr *Translator, op uint16) {
		tr.storeTrunc(tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op)), ir.I8)
	})
	register("0010nnnnmmmm0001", "mov.w!", false, func(tr *Translator, op uint16) {
		tr.storeTrunc(tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op)), ir.I16)
	})
	register("0010nnnnmmmm0010", "mov.l!", false, func(tr *Translator, op uint16) {
		tr.storeTrunc(tr.loadReg(fieldN(op)), tr.loadReg(fieldM(op)), ir.I32)
	})

	// MOV.B/W/L @Rm+,Rn (post-increment load)
	register("0110nnnnmmmm0100", "mov.b@+", false, func(tr *Translator, op uint16) {
		translatePostInc(tr, fieldN(op), fieldM(op), ir.I8)
	})
	register("0110nnnnmmmm0101", "mov.w@+", false, func(tr *Translator, op uint16) {
		translatePostInc(tr, fieldN(op), fieldM(op), ir.I16)
	})
	register("0110nnnnmmmm0110", "mov.l@+", false, func(tr *Translator, op uint16) {
		translatePostInc(tr, fieldN(op), fieldM(op), ir.I32)
	})

	// MOV.B/W/L Rm,@-Rn (pre-decrement store)
	register("0010nnnnmmmm0100", "mov.b!-", false, func(tr *Translator, op uint16) {
		translatePreDec(tr, fieldN(op), fieldM(op), ir.I8)
	})
	register("0010nnnnmmmm0101", "mov.w!-", false, func(tr *Translator, op uint16) {
		translatePreDec(tr, fieldN(op), fieldM(op), ir.I16)
	})
	register("0010nnnnmmmm0110", "mov.l!-", false, func(tr *Translator, op uint16) {
		translatePreDec(tr, fieldN(op), fieldM(op), ir.I32)
	})

	// MOV.B/W/L @(R0,Rm),Rn
	register("0000nnnnmmmm1100", "mov.b@r0", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.loadReg(fieldM(op)))
		tr.storeReg(fieldN(op), tr.loadSExt(addr, ir.I8))
	})
	register("0000nnnnmmmm1101", "mov.w@r0", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.loadReg(fieldM(op)))
		tr.storeReg(fieldN(op), tr.loadSExt(addr, ir.I16))
	})
	register("0000nnnnmmmm1110", "mov.l@r0", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.loadReg(fieldM(op)))
		tr.storeReg(fieldN(op), tr.loadSExt(addr, ir.I32))
	})

	// MOV.B/W/L Rm,@(R0,Rn)
	register("0000nnnnmmmm0100", "mov.b!r0", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.loadReg(fieldN(op)))
		tr.storeTrunc(addr, tr.loadReg(fieldM(op)), ir.I8)
	})
	register("0000nnnnmmmm0101", "mov.w!r0", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.loadReg(fieldN(op)))
		tr.storeTrunc(addr, tr.loadReg(fieldM(op)), ir.I16)
	})
	register("0000nnnnmmmm0110", "mov.l!r0", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(0), tr.loadReg(fieldN(op)))
		tr.storeTrunc(addr, tr.loadReg(fieldM(op)), ir.I32)
	})

	// MOV.B @(disp,Rm),R0 / R0,@(disp,Rm) -- disp unscaled for byte
	register("10000100mmmmdddd", "mov.b@disp", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldM(op)), tr.B.ConstI32(uint32(fieldD4(op))))
		tr.storeReg(0, tr.loadSExt(addr, ir.I8))
	})
	register("10000101mmmmdddd", "mov.w@disp", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldM(op)), tr.B.ConstI32(uint32(fieldD4(op))*2))
		tr.storeReg(0, tr.loadSExt(addr, ir.I16))
	})
	// MOV.L @(disp,Rm),Rn -- disp scaled by 4
	register("0101nnnnmmmmdddd", "mov.l@disp", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldM(op)), tr.B.ConstI32(uint32(fieldD4(op))*4))
		tr.storeReg(fieldN(op), tr.loadSExt(addr, ir.I32))
	})
	register("10000000mmmmdddd", "mov.b!disp", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldM(op)), tr.B.ConstI32(uint32(fieldD4(op))))
		tr.storeTrunc(addr, tr.loadReg(0), ir.I8)
	})
	register("10000001mmmmdddd", "mov.w!disp", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldM(op)), tr.B.ConstI32(uint32(fieldD4(op))*2))
		tr.storeTrunc(addr, tr.loadReg(0), ir.I16)
	})
	// MOV.L Rm,@(disp,Rn) -- disp scaled by 4
	register("0001nnnnmmmmdddd", "mov.l!disp", false, func(tr *Translator, op uint16) {
		addr := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldN(op)), tr.B.ConstI32(uint32(fieldD4(op))*4))
		tr.storeTrunc(addr, tr.loadReg(fieldM(op)), ir.I32)
	})

	// MOV.B/W/L @(disp,GBR),R0 / R0,@(disp,GBR)
	register("11000100dddddddd", "mov.b@gbr", false, func(tr *Translator, op uint16) {
		addr := gbrDisp(tr, fieldD8(op), 1)
		tr.storeReg(0, tr.loadSExt(addr, ir.I8))
	})
	register("11000101dddddddd", "mov.w@gbr", false, func(tr *Translator, op uint16) {
		addr := gbrDisp(tr, fieldD8(op), 2)
		tr.storeReg(0, tr.loadSExt(addr, ir.I16))
	})
	register("11000110dddddddd", "mov.l@gbr", false, func(tr *Translator, op uint16) {
		addr := gbrDisp(tr, fieldD8(op), 4)
		tr.storeReg(0, tr.loadSExt(addr, ir.I32))
	})
	register("11000000dddddddd", "mov.b!gbr", false, func(tr *Translator, op uint16) {
		tr.storeTrunc(gbrDisp(tr, fieldD8(op), 1), tr.loadReg(0), ir.I8)
	})
	register("11000001dddddddd", "mov.w!gbr", false, func(tr *Translator, op uint16) {
		tr.storeTrunc(gbrDisp(tr, fieldD8(op), 2), tr.loadReg(0), ir.I16)
	})
	register("11000010dddddddd", "mov.l!gbr", false, func(tr *Translator, op uint16) {
		tr.storeTrunc(gbrDisp(tr, fieldD8(op), 4), tr.loadReg(0), ir.I32)
	})

	// MOVA @(disp,PC),R0
	register("11000111dddddddd", "mova", false, func(tr *Translator, op uint16) {
		base := (tr.PC + 4) &^ 3
		tr.storeReg(0, tr.B.ConstI32(base+uint32(fieldD8(op))*4))
	})

	// MOVT Rn
	register("0000nnnn00101001", "movt", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.Emit(ir.OpZExt, ir.I32, tr.loadT()))
	})

	// SWAP.B/W Rm,Rn
	register("0110nnnnmmmm1000", "swap.b", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldM(op))
		lo := tr.B.Emit(ir.OpAnd, ir.I32, v, tr.B.ConstI32(0xffff0000))
		b0 := tr.B.Emit(ir.OpAnd, ir.I32, v, tr.B.ConstI32(0xff))
		b1 := tr.B.Emit(ir.OpAnd, ir.I32, v, tr.B.ConstI32(0xff00))
		b0s := tr.B.Emit(ir.OpShl, ir.I32, b0, tr.B.ConstI32(8))
		b1s := tr.B.Emit(ir.OpShr, ir.I32, b1, tr.B.ConstI32(8))
		swapped := tr.B.Emit(ir.OpOr, ir.I32, b0s, b1s)
		result := tr.B.Emit(ir.OpOr, ir.I32, lo, swapped)
		tr.storeReg(fieldN(op), result)
	})
	register("0110nnnnmmmm1001", "swap.w", false, func(tr *Translator, op uint16) {
		v := tr.loadReg(fieldM(op))
		hi := tr.B.Emit(ir.OpShl, ir.I32, v, tr.B.ConstI32(16))
		lo := tr.B.Emit(ir.OpShr, ir.I32, v, tr.B.ConstI32(16))
		result := tr.B.Emit(ir.OpOr, ir.I32, hi, lo)
		tr.storeReg(fieldN(op), result)
	})

	// XTRCT Rm,Rn -- Rn's high 16 bits <- Rm's low 16, Rn's low 16 <- Rn's high 16
	register("0010nnnnmmmm1101", "xtrct", false, func(tr *Translator, op uint16) {
		m := tr.loadReg(fieldM(op))
		n := tr.loadReg(fieldN(op))
		mLoHi := tr.B.Emit(ir.OpShl, ir.I32, m, tr.B.ConstI32(16))
		nHiLo := tr.B.Emit(ir.OpShr, ir.I32, n, tr.B.ConstI32(16))
		result := tr.B.Emit(ir.OpOr, ir.I32, mLoHi, nHiLo)
		tr.storeReg(fieldN(op), result)
	})
}

func translatePostInc(tr *Translator, n, m int, t ir.Type) {
	addr := tr.loadReg(m)
	loaded := tr.loadSExt(addr, t)
	size := uint32(t.Size())
	newM := tr.B.Emit(ir.OpAdd, ir.I32, addr, tr.B.ConstI32(size))
	tr.storeReg(m, newM)
	tr.storeReg(n, loaded)
}

func translatePreDec(tr *Translator, n, m int, t ir.Type) {
	size := uint32(t.Size())
	newN := tr.B.Emit(ir.OpSub, ir.I32, tr.loadReg(n), tr.B.ConstI32(size))
	tr.storeTrunc(newN, tr.loadReg(m), t)
	tr.storeReg(n, newN)
}

func gbrDisp(tr *Translator, d, scale int) *ir.Value {
	gbr := tr.B.LoadContext(gbrOffset, ir.I32)
	return tr.B.Emit(ir.OpAdd, ir.I32, gbr, tr.B.ConstI32(uint32(d*scale)))
}
