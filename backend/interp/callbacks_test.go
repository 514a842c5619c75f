package interp

import (
	"log/slog"
	"testing"

	"github.com/sh4jit/core"
)

func newTestAddressSpace(t *testing.T) *core.AddressSpace {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Fastmem = false
	cfg.MaxPages = 16
	cfg.PageSize = 4096
	as, err := core.NewAddressSpace(cfg, slog.Default())
	if err != nil {
		t.Fatalf("NewAddressSpace: %v", err)
	}
	t.Cleanup(func() { _ = as.Close() })

	backing, err := core.AllocBacking(cfg.PageSize)
	if err != nil {
		t.Fatalf("AllocBacking: %v", err)
	}
	if err := as.MapRange(0, cfg.PageSize, core.PageRAM, backing, 0); err != nil {
		t.Fatalf("MapRange: %v", err)
	}
	return as
}

// TestCallDiv1_AllFourBranches exercises each of DIV1's old_Q/M branches
// once, with operands small enough that the add/subtract never wraps,
// so the expected Rn/Q/T can be hand-computed directly.
func TestCallDiv1_AllFourBranches(t *testing.T) {
	step := func(oldQ, mBit bool) (rn uint32, q, tBit bool) {
		ctx := core.NewSH4Context()
		ctx.R[0] = 5 // dividend
		ctx.R[1] = 3 // divisor
		ctx.SetT(false)
		if oldQ {
			ctx.SR |= 1 << core.SRBitQ
		} else {
			ctx.SR &^= 1 << core.SRBitQ
		}
		if mBit {
			ctx.SR |= 1 << core.SRBitM
		} else {
			ctx.SR &^= 1 << core.SRBitM
		}
		callDiv1(ctx, nil, 0, 1)
		return ctx.R[0], ctx.SR&(1<<core.SRBitQ) != 0, ctx.T()
	}

	cases := []struct {
		oldQ, mBit   bool
		wantRn       uint32
		wantQ, wantT bool
	}{
		{oldQ: false, mBit: false, wantRn: 7, wantQ: false, wantT: true},
		{oldQ: false, mBit: true, wantRn: 13, wantQ: true, wantT: true},
		{oldQ: true, mBit: false, wantRn: 13, wantQ: false, wantT: true},
		{oldQ: true, mBit: true, wantRn: 7, wantQ: true, wantT: true},
	}
	for _, c := range cases {
		rn, q, tBit := step(c.oldQ, c.mBit)
		if rn != c.wantRn || q != c.wantQ || tBit != c.wantT {
			t.Errorf("oldQ=%v M=%v: got (Rn=%d Q=%v T=%v), want (Rn=%d Q=%v T=%v)",
				c.oldQ, c.mBit, rn, q, tBit, c.wantRn, c.wantQ, c.wantT)
		}
	}
}

func TestCallMacL_AccumulatesWithoutSaturation(t *testing.T) {
	ctx := core.NewSH4Context()
	mem := newTestAddressSpace(t)
	mem.Write32(0, 3)
	mem.Write32(4, 4)
	ctx.R[5] = 0
	ctx.R[6] = 4

	callMacL(ctx, mem, 5, 6)

	if ctx.MACL != 12 || ctx.MACH != 0 {
		t.Errorf("MACH:MACL = %d:%d, want 0:12", ctx.MACH, ctx.MACL)
	}
	if ctx.R[5] != 4 || ctx.R[6] != 8 {
		t.Errorf("R5,R6 = %d,%d, want 4,8 (both post-incremented by 4)", ctx.R[5], ctx.R[6])
	}
}

func TestCallMacW_SaturatesOnOverflowWhenSIsSet(t *testing.T) {
	ctx := core.NewSH4Context()
	mem := newTestAddressSpace(t)
	mem.Write16(0, 10)
	mem.Write16(2, 10)
	ctx.R[5] = 0
	ctx.R[6] = 2
	ctx.MACL = 2147483640 // near int32 max
	ctx.SR |= 1 << core.SRBitS

	callMacW(ctx, mem, 5, 6)

	const max32 = uint32(1)<<31 - 1
	if ctx.MACL != max32 {
		t.Errorf("MACL = %d, want saturated %d", ctx.MACL, max32)
	}
	if ctx.MACH != 1 {
		t.Errorf("MACH = %d, want 1 (saturation flag)", ctx.MACH)
	}
	if ctx.R[5] != 2 || ctx.R[6] != 4 {
		t.Errorf("R5,R6 = %d,%d, want 2,4 (both post-incremented by 2)", ctx.R[5], ctx.R[6])
	}
}

func TestCallTrapa_SavesStateAndJumpsToVector(t *testing.T) {
	ctx := core.NewSH4Context()
	ctx.PC = 0x8c001000
	ctx.R[15] = 0x8c0ffff0
	ctx.VBR = 0x8c100000
	ctx.SR &^= 1 << core.SRBitBL // ensure starting state is unmasked

	callTrapa(ctx, nil, 0x20, 0)

	if ctx.SSR == 0 {
		t.Fatalf("SSR was never saved")
	}
	if ctx.SPC != 0x8c001000 {
		t.Errorf("SPC = %#x, want %#x", ctx.SPC, 0x8c001000)
	}
	if ctx.SGR != 0x8c0ffff0 {
		t.Errorf("SGR = %#x, want %#x", ctx.SGR, 0x8c0ffff0)
	}
	if !ctx.BL() || !ctx.MD() || !ctx.RB() {
		t.Errorf("BL/MD/RB = %v/%v/%v, want all set", ctx.BL(), ctx.MD(), ctx.RB())
	}
	if ctx.PC != ctx.VBR+0x160 {
		t.Errorf("PC = %#x, want VBR+0x160 = %#x", ctx.PC, ctx.VBR+0x160)
	}
}
