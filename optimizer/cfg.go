package optimizer

import "github.com/sh4jit/core/ir"

// ControlFlowAnalysisPass computes each block's reverse-postorder index
// and threads RPONext across the unit, so every later pass can do a
// single forward sweep in execution order without recomputing a
// traversal (grounded on dreavm's ControlFlowAnalysisPass, generalized
// here to also produce the RPO linkage register allocation and
// load/store elimination both depend on; the frontend already wires
// Block.Succs/Preds at build time via Builder.Jump/BranchIf, so this
// pass only orders them, it does not discover edges).
type ControlFlowAnalysisPass struct{}

func (p *ControlFlowAnalysisPass) Name() string { return "control-flow-analysis" }

func (p *ControlFlowAnalysisPass) Run(b *ir.Builder) error {
	blocks := b.Blocks()
	if len(blocks) == 0 {
		return nil
	}

	visited := make(map[*ir.Block]bool, len(blocks))
	var order []*ir.Block

	var visit func(blk *ir.Block)
	visit = func(blk *ir.Block) {
		if visited[blk] {
			return
		}
		visited[blk] = true
		for _, s := range blk.Succs {
			visit(s)
		}
		order = append(order, blk)
	}
	visit(b.EntryBlock())
	// Blocks unreachable from the entry (shouldn't occur from a
	// well-formed frontend, but defends against a future bug) are
	// appended in builder order so they still get an RPO index.
	for _, blk := range blocks {
		visit(blk)
	}

	// order is postorder; reverse it in place for RPO.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	for i, blk := range order {
		blk.RPOIndex = i
		if i+1 < len(order) {
			blk.RPONext = order[i+1]
		} else {
			blk.RPONext = nil
		}
	}
	return nil
}
