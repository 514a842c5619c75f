package interp

import (
	"testing"

	"github.com/sh4jit/core"
	"github.com/sh4jit/core/ir"
)

// newTestFrame builds a frame with no callback table entries and no
// memory: fine for tests that never touch OpLoad/OpStore/OpCallExternal.
func newTestFrame(ctx *core.SH4Context) *frame {
	return &frame{ctx: ctx, cbs: &callbackTable{}, vals: make(map[*ir.Value]uint64, 16)}
}

func TestUnitRun_StraightLineAddSub(t *testing.T) {
	b := ir.NewBuilder()
	entry := b.EntryBlock()
	b.SetCurrent(entry)

	c5 := b.ConstI32(5)
	c3 := b.ConstI32(3)
	sum := b.Emit(ir.OpAdd, ir.I32, c5, c3)
	diff := b.Emit(ir.OpSub, ir.I32, sum, b.ConstI32(2))
	b.ExitToPC(diff) // 5+3-2 = 6, returned as the next guest PC

	u := &unit{entry: entry, cbs: &callbackTable{}}
	pc := u.run(core.NewSH4Context(), nil)
	if pc != 6 {
		t.Errorf("pc = %d, want 6", pc)
	}
}

func TestUnitRun_BranchIfTakenAndNotTaken(t *testing.T) {
	run := func(cond uint32) uint32 {
		b := ir.NewBuilder()
		entry := b.EntryBlock()
		taken := b.NewBlock()
		notTaken := b.NewBlock()

		b.SetCurrent(entry)
		c := b.ConstI32(cond)
		b.BranchIf(c, taken, notTaken)

		b.SetCurrent(taken)
		b.ExitToPC(b.ConstI32(0x1000))

		b.SetCurrent(notTaken)
		b.ExitToPC(b.ConstI32(0x2000))

		u := &unit{entry: entry, cbs: &callbackTable{}}
		return u.run(core.NewSH4Context(), nil)
	}

	if pc := run(1); pc != 0x1000 {
		t.Errorf("cond=1: pc = %#x, want 0x1000", pc)
	}
	if pc := run(0); pc != 0x2000 {
		t.Errorf("cond=0: pc = %#x, want 0x2000", pc)
	}
}

func TestUnitRun_JumpFollowsIntraUnitSuccessor(t *testing.T) {
	b := ir.NewBuilder()
	entry := b.EntryBlock()
	second := b.NewBlock()

	b.SetCurrent(entry)
	b.Jump(second) // Args[0] == nil: an intra-unit edge, not a dynamic exit

	b.SetCurrent(second)
	b.ExitToPC(b.ConstI32(0x42))

	u := &unit{entry: entry, cbs: &callbackTable{}}
	if pc := u.run(core.NewSH4Context(), nil); pc != 0x42 {
		t.Errorf("pc = %#x, want 0x42", pc)
	}
}

func TestFrameStep_ShiftsAndRotates(t *testing.T) {
	ctx := core.NewSH4Context()
	f := newTestFrame(ctx)

	b := ir.NewBuilder()
	shl := b.Emit(ir.OpShl, ir.I32, b.ConstI32(1), b.ConstI32(31))
	f.step(shl.Def)
	if got := f.val(shl); got != 0x80000000 {
		t.Errorf("1<<31 = %#x, want 0x80000000", got)
	}

	rotl := b.Emit(ir.OpRotl, ir.I8, b.ConstI8(0x81), b.ConstI32(1))
	f.step(rotl.Def)
	if got := f.val(rotl); got != 0x03 {
		t.Errorf("rotl8(0x81,1) = %#x, want 0x03", got)
	}

	sar := b.Emit(ir.OpSar, ir.I32, b.ConstI32(0x80000000), b.ConstI32(4))
	f.step(sar.Def)
	if got := int32(f.val(sar)); got != -134217728 {
		t.Errorf("sar(0x80000000,4) = %d, want -134217728", got)
	}
}

func TestFrameStep_SignedVsUnsignedCompare(t *testing.T) {
	ctx := core.NewSH4Context()
	f := newTestFrame(ctx)

	b := ir.NewBuilder()
	// -1 as I32 is 0xffffffff: unsigned it's huge, signed it's negative.
	neg1 := b.ConstI32(0xffffffff)
	one := b.ConstI32(1)

	ltU := b.Emit(ir.OpCmpLtU, ir.I32, neg1, one)
	f.step(ltU.Def)
	if got := f.val(ltU); got != 0 {
		t.Errorf("0xffffffff <u 1 = %d, want 0 (false)", got)
	}

	ltS := b.Emit(ir.OpCmpLtS, ir.I32, neg1, one)
	f.step(ltS.Def)
	if got := f.val(ltS); got != 1 {
		t.Errorf("-1 <s 1 = %d, want 1 (true)", got)
	}
}
