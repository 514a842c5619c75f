package interp

import (
	"math"
	"testing"

	"github.com/sh4jit/core"
	"github.com/sh4jit/core/ir"
)

// TestContextAccess_RoundTripsEveryWidth writes through storeContext and
// reads back through loadContext at a handful of real SH4Context
// offsets, one per width the frontend ever stores there.
func TestContextAccess_RoundTripsEveryWidth(t *testing.T) {
	ctx := core.NewSH4Context()
	f := &frame{ctx: ctx}

	f.storeContext(core.ContextOffsetRn(3), ir.I32, 0xdeadbeef)
	if got := f.loadContext(core.ContextOffsetRn(3), ir.I32); got != 0xdeadbeef {
		t.Errorf("R3 round-trip = %#x, want 0xdeadbeef", got)
	}
	if ctx.R[3] != 0xdeadbeef {
		t.Errorf("ctx.R[3] = %#x, want 0xdeadbeef (offset math landed elsewhere)", ctx.R[3])
	}

	f.storeContext(core.ContextOffsetPC, ir.I32, 0x8c010000)
	if ctx.PC != 0x8c010000 {
		t.Errorf("ctx.PC = %#x, want 0x8c010000", ctx.PC)
	}

	f.storeContext(core.ContextOffsetSR, ir.I32, 0x700000f0)
	if got := f.loadContext(core.ContextOffsetSR, ir.I32); got != 0x700000f0 {
		t.Errorf("SR round-trip = %#x, want 0x700000f0", got)
	}
}

// TestContextAccess_FloatWidthsPreserveBits checks that F32 context
// fields round-trip their bit pattern rather than being reinterpreted
// as an integer of the same width.
func TestContextAccess_FloatWidthsPreserveBits(t *testing.T) {
	ctx := core.NewSH4Context()
	f := &frame{ctx: ctx}

	bits := uint64(math.Float32bits(3.5))
	f.storeContext(core.ContextOffsetFrn(2), ir.F32, bits)
	if ctx.Fr[2] != 3.5 {
		t.Errorf("ctx.Fr[2] = %v, want 3.5", ctx.Fr[2])
	}
	if got := f.loadContext(core.ContextOffsetFrn(2), ir.F32); got != bits {
		t.Errorf("Fr[2] round-trip = %#x, want %#x", got, bits)
	}
}
