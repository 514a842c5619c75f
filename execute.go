// execute.go - the SH4 execution loop and interrupt-acceptance
// sequence, spec.md §4.7.
package core

// maskPC masks a guest PC down to its physical block-cache key, so the
// same code compiled through one mirror is reused when entered through
// another (spec.md §4.7's "pc_phys = ctx.pc & ADDR_MASK").
func maskPC(pc uint32) uint32 {
	if pc >= StoreQueueBegin {
		return pc
	}
	return pc & addrMask29
}

// Execute runs compiled guest code until cycleBudget is exhausted or
// the sentinel stop PC is reached, returning the number of cycles
// actually consumed.
func (cpu *CPU) Execute(cycleBudget int) int {
	remaining := cycleBudget
	for cpu.Ctx.PC != SentinelStopPC && remaining > 0 {
		pcPhys := maskPC(cpu.Ctx.PC)
		flags := cpu.compileFlagsAt(false)
		block, err := cpu.BlockCache.GetOrCompile(cpu, pcPhys, flags)
		if err != nil {
			cpu.log.Error("fatal: could not compile block", "pc", pcPhys, "err", err)
			haltCPU(cpu.Ctx, "backend compile failure")
			break
		}

		nextPC := block.Code(cpu.Ctx, cpu.Mem.AS)

		guestCycles := cpu.blockGuestCycles(block)
		remaining -= guestCycles

		cpu.Ctx.PC = nextPC
		cpu.checkPendingInterrupts()
	}
	cpu.Interrupts.RunTimers(cycleBudget)
	return cycleBudget - remaining
}

// blockGuestCycles approximates cycles as the block's guest instruction
// count, per spec.md §3's MD_GUEST_CYCLES metadata; block.GuestSize is
// bytes (2 bytes/instruction on SH4).
func (cpu *CPU) blockGuestCycles(b *CompiledBlock) int {
	n := int(b.GuestSize / 2)
	if n == 0 {
		n = 1
	}
	return n
}

// checkPendingInterrupts runs the acceptance sequence of spec.md §4.7:
// on transition into pending-nonempty with a non-blocked SR, save
// SR->SSR, PC->SPC, R15->SGR, set SR.BL/MD/RB, jump to VBR+0x600,
// latch INTEVT, invoke sr_updated.
func (cpu *CPU) checkPendingInterrupts() {
	ctx := cpu.Ctx
	src, ok := cpu.Interrupts.Highest(ctx.SR)
	if !ok {
		return
	}

	oldSR := ctx.SR
	ctx.SSR = ctx.SR
	ctx.SPC = ctx.PC
	ctx.SGR = ctx.R[15]

	ctx.SR |= 1 << srBitBL
	ctx.SR |= 1 << srBitMD
	ctx.SR |= 1 << srBitRB

	ctx.SRUpdated(oldSR)

	cpu.Mem.OnChip.LatchIntEvt(src.IntEvt)
	ctx.PC = ctx.VBR + 0x600

	cpu.Stats.InterruptsTaken++
}
