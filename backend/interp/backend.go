package interp

import (
	"github.com/sh4jit/core"
	"github.com/sh4jit/core/frontend"
	"github.com/sh4jit/core/optimizer"
)

// Backend is a core.Backend that interprets the optimized IR directly
// instead of emitting host code; it has no code buffer, so Compile
// never returns core.ErrCodeBufferFull and PatchFaultSite/Reset are
// no-ops.
type Backend struct {
	maxBlockInstrs int
	cbs            *callbackTable
}

// New returns an interpreter backend that decodes at most maxBlockInstrs
// guest instructions per compiled block (0 selects core.DefaultConfig's
// value).
func New(maxBlockInstrs int) *Backend {
	if maxBlockInstrs <= 0 {
		maxBlockInstrs = core.DefaultConfig().MaxBlockInstrs
	}
	return &Backend{maxBlockInstrs: maxBlockInstrs, cbs: newCallbackTable()}
}

// Compile decodes, optimizes, and wraps one guest block starting at pc.
func (b *Backend) Compile(cpu *core.CPU, pc uint32, flags core.CompileFlags) (*core.CompiledBlock, error) {
	builder, size, err := frontend.BuildBlock(cpu.Mem.AS, pc, b.maxBlockInstrs, flags)
	if err != nil {
		return nil, err
	}

	runner := optimizer.NewDefaultRunner(virtualRegs{})
	if err := runner.Run(builder); err != nil {
		return nil, err
	}

	u := &unit{entry: builder.EntryBlock(), cbs: b.cbs}
	return &core.CompiledBlock{
		Code:      u.run,
		GuestAddr: pc,
		GuestSize: size,
	}, nil
}

// PatchFaultSite never applies: this backend never dereferences guest
// memory through a raw host pointer, so no fastmem MMIO fault can ever
// be attributed to code it produced.
func (b *Backend) PatchFaultSite(hostPC uintptr) bool { return false }

// Reset is a no-op: interpreted units carry no state tied to a code
// buffer generation.
func (b *Backend) Reset() {}
