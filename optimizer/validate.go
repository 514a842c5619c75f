package optimizer

import (
	"fmt"

	"github.com/sh4jit/core/ir"
)

// ValidatePass checks structural invariants a correct frontend/pass
// should never violate: every block ends in exactly one terminator,
// placed last, and every non-constant argument has a defining
// instruction. Argument types are not checked. Cheap; left enabled in release
// builds the way the teacher's code-cache wires ValidatePass first
// unconditionally.
type ValidatePass struct{}

func (p *ValidatePass) Name() string { return "validate" }

func (p *ValidatePass) Run(b *ir.Builder) error {
	for _, blk := range b.Blocks() {
		instrs := blk.Instrs()
		if len(instrs) == 0 {
			return fmt.Errorf("block %d is empty", blk.ID)
		}
		for i, ins := range instrs {
			isLast := i == len(instrs)-1
			isTerm := ins.Flags&ir.FlagTerminator != 0
			if isTerm && !isLast {
				return fmt.Errorf("block %d: terminator %s not in last position", blk.ID, ins.Op)
			}
			if isLast && !isTerm {
				return fmt.Errorf("block %d: last instruction %s is not a terminator", blk.ID, ins.Op)
			}
			for slot, arg := range ins.Args {
				if arg == nil {
					continue
				}
				if !arg.IsConst && arg.Def == nil {
					return fmt.Errorf("block %d instr %s arg%d: value has neither a definition nor a constant", blk.ID, ins.Op, slot)
				}
			}
		}
	}
	return nil
}
