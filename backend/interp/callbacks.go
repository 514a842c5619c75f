package interp

import (
	"github.com/sh4jit/core"
	"github.com/sh4jit/core/frontend"
)

// callback is the Go side of an OpCallExternal: ctx and mem are always
// available (every compiled block carries them), a0/a1 are the extra
// arguments the frontend bound into Args[1]/Args[2], truncated to
// uint32 since every current external call passes register indices,
// small constants, or a snapshotted context word.
type callback func(ctx *core.SH4Context, mem *core.AddressSpace, a0, a1 uint32)

// callbackTable indexes by the frontend's exported Call* constants.
type callbackTable [frontend.NumCallbacks]callback

func newCallbackTable() *callbackTable {
	var t callbackTable
	t[frontend.CallInvalidInstruction] = callInvalidInstruction
	t[frontend.CallLdcSR] = callLdcSR
	t[frontend.CallLdcFPSCR] = callLdcFPSCR
	t[frontend.CallTrapa] = callTrapa
	t[frontend.CallRte] = callRte
	t[frontend.CallSleep] = callSleep
	t[frontend.CallMacL] = callMacL
	t[frontend.CallMacW] = callMacW
	t[frontend.CallDiv1] = callDiv1
	return &t
}

// callInvalidInstruction logs the offending word; the frontend has
// already emitted an ExitToPC(SentinelStopPC) right after this call, so
// there is nothing left to do here but record why execution stopped.
func callInvalidInstruction(ctx *core.SH4Context, mem *core.AddressSpace, pc, op uint32) {
	if ctx.Log != nil {
		ctx.Log.Error("invalid instruction", "pc", pc, "op", op)
	}
}

// callLdcSR/callLdcFPSCR run the bank swap LDC SR/LDS FPSCR (and RTE,
// FRCHG) can trigger; the IR has already written the new value into
// SH4Context by the time this runs, oldSR/oldFPSCR is the value it had
// beforehand.
func callLdcSR(ctx *core.SH4Context, mem *core.AddressSpace, oldSR, _ uint32) {
	ctx.SRUpdated(oldSR)
}

func callLdcFPSCR(ctx *core.SH4Context, mem *core.AddressSpace, oldFPSCR, _ uint32) {
	ctx.FPSCRUpdated(oldFPSCR)
}

func callRte(ctx *core.SH4Context, mem *core.AddressSpace, oldSR, _ uint32) {
	ctx.SRUpdated(oldSR)
}

// callTrapa raises the TRAPA exception, the same save/mask/dispatch
// sequence Execute's checkPendingInterrupts runs for a hardware
// interrupt: SR/PC/R15 saved to SSR/SPC/SGR, BL/MD/RB forced set, jump
// to VBR+0x160. Latching the trap number into CCN.TRA is left to the
// on-chip register model, not modeled here.
func callTrapa(ctx *core.SH4Context, mem *core.AddressSpace, imm, _ uint32) {
	oldSR := ctx.SR
	ctx.SSR = ctx.SR
	ctx.SPC = ctx.PC
	ctx.SGR = ctx.R[15]
	ctx.SR |= 1 << core.SRBitBL
	ctx.SR |= 1 << core.SRBitMD
	ctx.SR |= 1 << core.SRBitRB
	ctx.SRUpdated(oldSR)
	ctx.PC = ctx.VBR + 0x160
	_ = imm
}

func callSleep(ctx *core.SH4Context, mem *core.AddressSpace, _, _ uint32) {
	ctx.PendingInterrupt = false
}

// callDiv1 runs one step of the SH4 restoring-division algorithm: Rn is
// the 32-bit dividend shifted left one bit per step (with the quotient
// bit from the previous step merged in via T), Rm the divisor. Q and M
// are SR bits set up by DIV0U/DIV0S before the first of 32 DIV1 steps.
func callDiv1(ctx *core.SH4Context, mem *core.AddressSpace, n, m uint32) {
	rn, rm := ctx.R[n], ctx.R[m]
	oldQ := ctx.SR&(1<<core.SRBitQ) != 0
	mBit := m2(ctx)

	q := rn&0x80000000 != 0
	rn = (rn << 1) | b2u32(ctx.T())

	var overflowed bool
	switch {
	case !oldQ && !mBit:
		before := rn
		rn -= rm
		overflowed = rn > before
	case !oldQ && mBit:
		before := rn
		rn += rm
		overflowed = rn < before
	case oldQ && !mBit:
		before := rn
		rn += rm
		overflowed = rn < before
	default: // oldQ && M
		before := rn
		rn -= rm
		overflowed = rn > before
	}
	if mBit {
		q = overflowed == q
	} else {
		q = overflowed != q
	}

	ctx.R[n] = rn
	setSRBitRuntime(ctx, core.SRBitQ, q)
	ctx.SetT(q == mBit)
}

func m2(ctx *core.SH4Context) bool { return ctx.SR&(1<<core.SRBitM) != 0 }

func setSRBitRuntime(ctx *core.SH4Context, pos int, v bool) {
	if v {
		ctx.SR |= 1 << uint(pos)
	} else {
		ctx.SR &^= 1 << uint(pos)
	}
}

func b2u32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// callMacL/callMacW implement MAC.L/MAC.W's @Rm+,@Rn+ multiply-
// accumulate: both pointers post-increment regardless of saturation,
// and saturation is gated on SR.S (bit 1), matching the convention most
// open-source SH4 interpreters use since neither pack file this core is
// grounded on happens to carry a MAC implementation.
func callMacL(ctx *core.SH4Context, mem *core.AddressSpace, n, m uint32) {
	addrN, addrM := ctx.R[n], ctx.R[m]
	valN := int64(int32(mem.Read32(addrN)))
	valM := int64(int32(mem.Read32(addrM)))
	ctx.R[n] = addrN + 4
	ctx.R[m] = addrM + 4

	acc := int64(int32(ctx.MACH))<<32 | int64(ctx.MACL)
	acc += valN * valM

	if ctx.SR&(1<<core.SRBitS) != 0 {
		const max48 = int64(1)<<47 - 1
		const min48 = -(int64(1) << 47)
		if acc > max48 {
			acc = max48
		} else if acc < min48 {
			acc = min48
		}
	}
	ctx.MACH = uint32(acc >> 32)
	ctx.MACL = uint32(acc)
}

func callMacW(ctx *core.SH4Context, mem *core.AddressSpace, n, m uint32) {
	addrN, addrM := ctx.R[n], ctx.R[m]
	valN := int32(int16(mem.Read16(addrN)))
	valM := int32(int16(mem.Read16(addrM)))
	ctx.R[n] = addrN + 2
	ctx.R[m] = addrM + 2

	prod := int64(valN) * int64(valM)
	if ctx.SR&(1<<core.SRBitS) != 0 {
		acc := int64(int32(ctx.MACL)) + prod
		const max32 = int64(1)<<31 - 1
		const min32 = -(int64(1) << 31)
		if acc > max32 {
			acc = max32
			ctx.MACH = 1
		} else if acc < min32 {
			acc = min32
			ctx.MACH = 1
		}
		ctx.MACL = uint32(acc)
		return
	}
	acc := int64(int32(ctx.MACH))<<32 | int64(ctx.MACL)
	acc += prod
	ctx.MACH = uint32(acc >> 32)
	ctx.MACL = uint32(acc)
}
