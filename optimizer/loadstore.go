package optimizer

import "github.com/sh4jit/core/ir"

// LoadStoreEliminationPass promotes repeated SH4Context field accesses
// within a block to a single cached Value, eliminating redundant
// OpLoadContext instructions and dead OpStoreContext instructions.
// Scope is per-block, reset at each block's start, exactly as the
// teacher's ContextPromotionPass resets its available-value table per
// block rather than threading it across the CFG -- a cross-block
// version would need to account for every predecessor agreeing on the
// same cached value, which the frontend's block granularity (one SH4
// instruction run) makes rare enough not to bother with.
type LoadStoreEliminationPass struct{}

func (p *LoadStoreEliminationPass) Name() string { return "load-store-elimination" }

func (p *LoadStoreEliminationPass) Run(b *ir.Builder) error {
	for _, blk := range b.Blocks() {
		eliminateRedundantLoads(blk)
		eliminateDeadStores(blk)
	}
	return nil
}

// eliminateRedundantLoads sweeps forward: a load from an offset already
// available is replaced by the cached value and removed; a store
// refreshes what's available at its offset; any context-invalidating
// call clears the whole table.
func eliminateRedundantLoads(blk *ir.Block) {
	available := make(map[uint32]*ir.Value)

	for ins := blk.First(); ins != nil; {
		next := ins.Next()

		switch {
		case ins.Flags&ir.FlagInvalidatesContext != 0:
			available = make(map[uint32]*ir.Value)

		case ins.Op == ir.OpLoadContext:
			off := ins.Args[0].ConstI32()
			if cached, ok := available[off]; ok && cached.Type == ins.Result.Type {
				ins.Result.ReplaceAllUses(cached)
				ins.Unlink()
			} else {
				available[off] = ins.Result
			}

		case ins.Op == ir.OpStoreContext:
			off := ins.Args[0].ConstI32()
			available[off] = ins.Args[1]
		}

		ins = next
	}
}

// eliminateDeadStores sweeps backward: a store to an offset that will
// be overwritten by a later store before any intervening load is dead.
func eliminateDeadStores(blk *ir.Block) {
	instrs := blk.Instrs()
	available := make(map[uint32]bool)

	for i := len(instrs) - 1; i >= 0; i-- {
		ins := instrs[i]
		switch {
		case ins.Flags&ir.FlagInvalidatesContext != 0:
			available = make(map[uint32]bool)

		case ins.Op == ir.OpLoadContext:
			off := ins.Args[0].ConstI32()
			delete(available, off)

		case ins.Op == ir.OpStoreContext:
			off := ins.Args[0].ConstI32()
			if available[off] {
				ins.Unlink()
			}
			available[off] = true
		}
	}
}
