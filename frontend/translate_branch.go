package frontend

import "github.com/sh4jit/core/ir"

func init() {
	// BT label -- branch if T
	register("10001001dddddddd", "bt", false, func(tr *Translator, op uint16) {
		target := branchTarget8(tr.PC, op)
		condBranch(tr, tr.loadT(), target, tr.nextPC())
	})
	// BF label -- branch if not T
	register("10001011dddddddd", "bf", false, func(tr *Translator, op uint16) {
		target := branchTarget8(tr.PC, op)
		condBranch(tr, tr.loadT(), tr.nextPC(), target)
	})
	// BT/S label -- delayed branch if T. The condition is read before the
	// delay slot runs: SH4 evaluates the branch test at decode time, so a
	// T-flag-setting instruction in the slot must not affect it.
	register("10001101dddddddd", "bt.s", true, func(tr *Translator, op uint16) {
		target := branchTarget8(tr.PC, op)
		cond := tr.loadT()
		tr.delaySlot()
		condBranch(tr, cond, target, tr.nextPC())
	})
	// BF/S label -- delayed branch if not T
	register("10001111dddddddd", "bf.s", true, func(tr *Translator, op uint16) {
		target := branchTarget8(tr.PC, op)
		cond := tr.loadT()
		tr.delaySlot()
		condBranch(tr, cond, tr.nextPC(), target)
	})

	// BRA label -- unconditional delayed branch
	register("1010dddddddddddd", "bra", true, func(tr *Translator, op uint16) {
		target := branchTarget12(tr.PC, op)
		tr.delaySlot()
		tr.B.ExitToPC(tr.B.ConstI32(target))
		tr.terminate()
	})
	// BSR label -- delayed branch to subroutine, PR = return address
	register("1011dddddddddddd", "bsr", true, func(tr *Translator, op uint16) {
		target := branchTarget12(tr.PC, op)
		retPC := tr.PC + 4
		tr.delaySlot()
		tr.B.StoreContext(prOffset, tr.B.ConstI32(retPC))
		tr.B.ExitToPC(tr.B.ConstI32(target))
		tr.terminate()
	})

	// BRAF Rn -- unconditional delayed branch, target = PC+4+Rn. Rn is
	// read before the delay slot in case the slot instruction overwrites it.
	register("0000nnnn00100011", "braf", true, func(tr *Translator, op uint16) {
		target := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldN(op)), tr.B.ConstI32(tr.PC+4))
		tr.delaySlot()
		tr.B.ExitToPC(target)
		tr.terminate()
	})
	// BSRF Rn -- delayed branch to subroutine, target = PC+4+Rn, PR = return address
	register("0000nnnn00000011", "bsrf", true, func(tr *Translator, op uint16) {
		target := tr.B.Emit(ir.OpAdd, ir.I32, tr.loadReg(fieldN(op)), tr.B.ConstI32(tr.PC+4))
		retPC := tr.PC + 4
		tr.delaySlot()
		tr.B.StoreContext(prOffset, tr.B.ConstI32(retPC))
		tr.B.ExitToPC(target)
		tr.terminate()
	})

	// JMP @Rn -- unconditional delayed jump, target = Rn
	register("0100nnnn00101011", "jmp", true, func(tr *Translator, op uint16) {
		target := tr.loadReg(fieldN(op))
		tr.delaySlot()
		tr.B.ExitToPC(target)
		tr.terminate()
	})
	// JSR @Rn -- delayed jump to subroutine, target = Rn, PR = return address
	register("0100nnnn00001011", "jsr", true, func(tr *Translator, op uint16) {
		target := tr.loadReg(fieldN(op))
		retPC := tr.PC + 4
		tr.delaySlot()
		tr.B.StoreContext(prOffset, tr.B.ConstI32(retPC))
		tr.B.ExitToPC(target)
		tr.terminate()
	})

	// RTS -- delayed return, target = PR
	register("0000000000001011", "rts", true, func(tr *Translator, op uint16) {
		target := tr.B.LoadContext(prOffset, ir.I32)
		tr.delaySlot()
		tr.B.ExitToPC(target)
		tr.terminate()
	})
	// RTE -- delayed return from exception. SR <- SSR is restored inline,
	// but the bank swap it can trigger (see SH4Context.SRUpdated) still
	// needs the pre-restore SR value, so that's passed to callRte, which
	// runs the same SRUpdated bank swap as LDC SR's callback.
	register("0000000000101011", "rte", true, func(tr *Translator, op uint16) {
		target := tr.B.LoadContext(spcOffset, ir.I32)
		oldSR := tr.B.LoadContext(srOffset, ir.I32)
		ssr := tr.B.LoadContext(ssrOffset, ir.I32)
		tr.delaySlot()
		tr.B.StoreContext(srOffset, ssr)
		tr.B.CallExternal(callRte, -1, oldSR)
		tr.B.ExitToPC(target)
		tr.terminate()
	})

	// TRAPA #imm -- software exception
	register("11000011iiiiiiii", "trapa", false, func(tr *Translator, op uint16) {
		tr.B.StoreContext(pcOffset, tr.B.ConstI32(tr.nextPC()))
		tr.B.CallExternal(callTrapa, -1, tr.B.ConstI32(uint32(fieldI8(op))))
		tr.B.ExitToPC(tr.B.LoadContext(pcOffset, ir.I32))
		tr.terminate()
	})
}

// branchTarget8 computes a BT/BF-family target from an 8-bit signed
// displacement: PC + 4 + disp*2 (the "+4" reflects the two-instruction
// branch/delay-slot pair SH documentation measures displacements from,
// even for the non-delayed BT/BF forms).
func branchTarget8(pc uint32, op uint16) uint32 {
	disp := int64(signExtend8(fieldD8(op)))
	return uint32(int64(pc) + 4 + disp*2)
}

// branchTarget12 is the BRA/BSR-family analog with a 12-bit displacement.
func branchTarget12(pc uint32, op uint16) uint32 {
	disp := int64(signExtend12(fieldD12(op)))
	return uint32(int64(pc) + 4 + disp*2)
}

// condBranch emits a two-way dispatch on an I8 0/1 condition: the
// condTrue block exits to condTruePC, the other to condFalsePC. Each
// side is a fresh block that immediately exits the compiled unit, since
// both destinations are dynamic re-entry points into the block cache,
// not blocks within this translation unit.
func condBranch(tr *Translator, cond *ir.Value, condTruePC, condFalsePC uint32) {
	trueBlk := tr.B.NewBlock()
	falseBlk := tr.B.NewBlock()
	tr.B.BranchIf(cond, trueBlk, falseBlk)

	tr.B.SetCurrent(trueBlk)
	tr.B.ExitToPC(tr.B.ConstI32(condTruePC))

	tr.B.SetCurrent(falseBlk)
	tr.B.ExitToPC(tr.B.ConstI32(condFalsePC))

	tr.terminate()
}
