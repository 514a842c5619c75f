package frontend

import "github.com/sh4jit/core/ir"

// ldcRegisters/stcRegisters pair each control-register mnemonic with its
// SH4Context offset, shared by the plain and GBR-relative load/store
// forms below.
var ldcStcOffsets = map[string]uint32{
	"gbr": gbrOffset,
	"vbr": vbrOffset,
	"ssr": ssrOffset,
	"spc": spcOffset,
	"sgr": sgrOffset,
	"dbr": dbrOffset,
}

func init() {
	// LDC Rn,GBR/VBR/SSR/SPC/SGR/DBR
	register("0100nnnn00011110", "ldc.gbr", false, ldcReg("gbr"))
	register("0100nnnn00101110", "ldc.vbr", false, ldcReg("vbr"))
	register("0100nnnn00111110", "ldc.ssr", false, ldcReg("ssr"))
	register("0100nnnn01001110", "ldc.spc", false, ldcReg("spc"))
	register("0100nnnn00111010", "ldc.sgr", false, ldcReg("sgr"))
	register("0100nnnn11111010", "ldc.dbr", false, ldcReg("dbr"))

	// LDC.L @Rn+,GBR/VBR/SSR/SPC/SGR/DBR -- post-increment memory load
	register("0100nnnn00010111", "ldc.l.gbr", false, ldcMemInc("gbr"))
	register("0100nnnn00100111", "ldc.l.vbr", false, ldcMemInc("vbr"))
	register("0100nnnn00110111", "ldc.l.ssr", false, ldcMemInc("ssr"))
	register("0100nnnn01000111", "ldc.l.spc", false, ldcMemInc("spc"))
	register("0100nnnn00110110", "ldc.l.sgr", false, ldcMemInc("sgr"))
	register("0100nnnn11110110", "ldc.l.dbr", false, ldcMemInc("dbr"))

	// STC GBR/VBR/SSR/SPC/SGR/DBR,Rn
	register("0000nnnn00010010", "stc.gbr", false, stcReg("gbr"))
	register("0000nnnn00100010", "stc.vbr", false, stcReg("vbr"))
	register("0000nnnn00110010", "stc.ssr", false, stcReg("ssr"))
	register("0000nnnn01000010", "stc.spc", false, stcReg("spc"))
	register("0000nnnn00111010", "stc.sgr", false, stcReg("sgr"))
	register("0000nnnn11111010", "stc.dbr", false, stcReg("dbr"))

	// STC.L GBR/VBR/SSR/SPC/SGR/DBR,@-Rn -- pre-decrement memory store
	register("0100nnnn00010011", "stc.l.gbr", false, stcMemDec("gbr"))
	register("0100nnnn00100011", "stc.l.vbr", false, stcMemDec("vbr"))
	register("0100nnnn00110011", "stc.l.ssr", false, stcMemDec("ssr"))
	register("0100nnnn01000011", "stc.l.spc", false, stcMemDec("spc"))
	register("0100nnnn00110010", "stc.l.sgr", false, stcMemDec("sgr"))
	register("0100nnnn11110010", "stc.l.dbr", false, stcMemDec("dbr"))

	// LDC Rn,SR -- routed through a callback since SR writes are
	// bank-sensitive (SH4Context.SRUpdated), same as RTE. The old SR is
	// passed through so the callback can diff it against the new value
	// to decide whether R0-R7/Ralt need swapping.
	register("0100nnnn00001110", "ldc.sr", false, func(tr *Translator, op uint16) {
		oldSR := tr.B.LoadContext(srOffset, ir.I32)
		tr.B.StoreContext(srOffset, tr.loadReg(fieldN(op)))
		tr.B.CallExternal(callLdcSR, -1, oldSR)
	})
	register("0100nnnn00000111", "ldc.l.sr", false, func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.loadReg(n)
		oldSR := tr.B.LoadContext(srOffset, ir.I32)
		tr.B.StoreContext(srOffset, tr.B.Load(addr, ir.I32))
		tr.storeReg(n, tr.B.Emit(ir.OpAdd, ir.I32, addr, tr.B.ConstI32(4)))
		tr.B.CallExternal(callLdcSR, -1, oldSR)
	})
	register("0000nnnn00000010", "stc.sr", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.LoadContext(srOffset, ir.I32))
	})

	// LDS Rn,MACH/MACL/PR ; LDS.L @Rn+,MACH/MACL/PR
	register("0100nnnn00001010", "lds.mach", false, ldsReg(machOffset))
	register("0100nnnn00011010", "lds.macl", false, ldsReg(maclOffset))
	register("0100nnnn00101010", "lds.pr", false, ldsReg(prOffset))
	register("0100nnnn00000110", "lds.l.mach", false, ldsMemInc(machOffset))
	register("0100nnnn00010110", "lds.l.macl", false, ldsMemInc(maclOffset))
	register("0100nnnn00100110", "lds.l.pr", false, ldsMemInc(prOffset))

	// STS MACH/MACL/PR,Rn ; STS.L MACH/MACL/PR,@-Rn
	register("0000nnnn00001010", "sts.mach", false, stsReg(machOffset))
	register("0000nnnn00011010", "sts.macl", false, stsReg(maclOffset))
	register("0000nnnn00101010", "sts.pr", false, stsReg(prOffset))
	register("0100nnnn00000010", "sts.l.mach", false, stsMemDec(machOffset))
	register("0100nnnn00010010", "sts.l.macl", false, stsMemDec(maclOffset))
	register("0100nnnn00100010", "sts.l.pr", false, stsMemDec(prOffset))

	// LDS Rn,FPUL ; LDS.L @Rn+,FPUL
	register("0100nnnn01011010", "lds.fpul", false, func(tr *Translator, op uint16) {
		tr.B.StoreContext(fpulOffset, tr.loadReg(fieldN(op)))
	})
	register("0100nnnn01010110", "lds.l.fpul", false, func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.loadReg(n)
		tr.B.StoreContext(fpulOffset, tr.B.Load(addr, ir.I32))
		tr.storeReg(n, tr.B.Emit(ir.OpAdd, ir.I32, addr, tr.B.ConstI32(4)))
	})
	// STS FPUL,Rn ; STS.L FPUL,@-Rn
	register("0000nnnn01011010", "sts.fpul", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.LoadContext(fpulOffset, ir.I32))
	})
	register("0100nnnn01010010", "sts.l.fpul", false, func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.B.Emit(ir.OpSub, ir.I32, tr.loadReg(n), tr.B.ConstI32(4))
		tr.B.Store(addr, tr.B.LoadContext(fpulOffset, ir.I32))
		tr.storeReg(n, addr)
	})

	// LDS Rn,FPSCR ; LDS.L @Rn+,FPSCR -- bank-sensitive (Fr/Xf swap on
	// FPSCR.FR transition), routed through a callback like LDC SR.
	register("0100nnnn01101010", "lds.fpscr", false, func(tr *Translator, op uint16) {
		oldFPSCR := tr.B.LoadContext(fpscrOffset, ir.I32)
		tr.B.StoreContext(fpscrOffset, tr.loadReg(fieldN(op)))
		tr.B.CallExternal(callLdcFPSCR, -1, oldFPSCR)
	})
	register("0100nnnn01100110", "lds.l.fpscr", false, func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.loadReg(n)
		oldFPSCR := tr.B.LoadContext(fpscrOffset, ir.I32)
		tr.B.StoreContext(fpscrOffset, tr.B.Load(addr, ir.I32))
		tr.storeReg(n, tr.B.Emit(ir.OpAdd, ir.I32, addr, tr.B.ConstI32(4)))
		tr.B.CallExternal(callLdcFPSCR, -1, oldFPSCR)
	})
	// STS FPSCR,Rn ; STS.L FPSCR,@-Rn
	register("0000nnnn01101010", "sts.fpscr", false, func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.LoadContext(fpscrOffset, ir.I32))
	})
	register("0100nnnn01100010", "sts.l.fpscr", false, func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.B.Emit(ir.OpSub, ir.I32, tr.loadReg(n), tr.B.ConstI32(4))
		tr.B.Store(addr, tr.B.LoadContext(fpscrOffset, ir.I32))
		tr.storeReg(n, addr)
	})

	// SLEEP -- halt until the next unmasked interrupt
	register("0000000000011011", "sleep", false, func(tr *Translator, op uint16) {
		tr.B.CallExternal(callSleep, -1)
		tr.B.ExitToPC(tr.B.ConstI32(tr.nextPC()))
		tr.terminate()
	})
}

func ldcReg(name string) func(tr *Translator, op uint16) {
	off := ldcStcOffsets[name]
	return func(tr *Translator, op uint16) {
		tr.B.StoreContext(off, tr.loadReg(fieldN(op)))
	}
}

func stcReg(name string) func(tr *Translator, op uint16) {
	off := ldcStcOffsets[name]
	return func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.LoadContext(off, ir.I32))
	}
}

func ldcMemInc(name string) func(tr *Translator, op uint16) {
	off := ldcStcOffsets[name]
	return func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.loadReg(n)
		tr.B.StoreContext(off, tr.B.Load(addr, ir.I32))
		tr.storeReg(n, tr.B.Emit(ir.OpAdd, ir.I32, addr, tr.B.ConstI32(4)))
	}
}

func stcMemDec(name string) func(tr *Translator, op uint16) {
	off := ldcStcOffsets[name]
	return func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.B.Emit(ir.OpSub, ir.I32, tr.loadReg(n), tr.B.ConstI32(4))
		tr.B.Store(addr, tr.B.LoadContext(off, ir.I32))
		tr.storeReg(n, addr)
	}
}

func ldsReg(off uint32) func(tr *Translator, op uint16) {
	return func(tr *Translator, op uint16) {
		tr.B.StoreContext(off, tr.loadReg(fieldN(op)))
	}
}

func stsReg(off uint32) func(tr *Translator, op uint16) {
	return func(tr *Translator, op uint16) {
		tr.storeReg(fieldN(op), tr.B.LoadContext(off, ir.I32))
	}
}

func ldsMemInc(off uint32) func(tr *Translator, op uint16) {
	return func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.loadReg(n)
		tr.B.StoreContext(off, tr.B.Load(addr, ir.I32))
		tr.storeReg(n, tr.B.Emit(ir.OpAdd, ir.I32, addr, tr.B.ConstI32(4)))
	}
}

func stsMemDec(off uint32) func(tr *Translator, op uint16) {
	return func(tr *Translator, op uint16) {
		n := fieldN(op)
		addr := tr.B.Emit(ir.OpSub, ir.I32, tr.loadReg(n), tr.B.ConstI32(4))
		tr.B.Store(addr, tr.B.LoadContext(off, ir.I32))
		tr.storeReg(n, addr)
	}
}
