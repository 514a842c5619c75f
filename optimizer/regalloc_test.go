package optimizer_test

import (
	"testing"

	"github.com/sh4jit/core/ir"
	"github.com/sh4jit/core/optimizer"
)

// tinyRegs is a 2-register file, small enough that a handful of
// simultaneously-live values forces RegisterAllocationPass to spill,
// the condition TestRegisterAllocation_NoOverlappingIntervalsShareARegister
// actually wants to exercise.
type tinyRegs struct{}

func (tinyRegs) NumRegisters() int              { return 2 }
func (tinyRegs) CanHold(reg int, t ir.Type) bool { return true }

// TestRegisterAllocation_NoOverlappingIntervalsShareARegister builds a
// unit whose live ranges overlap more than the register file has room
// for, forcing at least one spill, then checks the universal invariant
// linear-scan allocation depends on: no two values live at the same
// instruction are ever assigned the same register.
func TestRegisterAllocation_NoOverlappingIntervalsShareARegister(t *testing.T) {
	b := ir.NewBuilder()
	entry := b.EntryBlock()
	b.SetCurrent(entry)

	// Six independent context loads (not constant-foldable) feeding three
	// adds that are then reduced to one result, so up to three of them
	// are simultaneously live against a 2-register file.
	v1 := b.LoadContext(0, ir.I32)
	v2 := b.LoadContext(4, ir.I32)
	v3 := b.LoadContext(8, ir.I32)
	v4 := b.LoadContext(12, ir.I32)
	v5 := b.LoadContext(16, ir.I32)
	v6 := b.LoadContext(20, ir.I32)

	a := b.Emit(ir.OpAdd, ir.I32, v1, v2)
	c := b.Emit(ir.OpAdd, ir.I32, v3, v4)
	e := b.Emit(ir.OpAdd, ir.I32, v5, v6)
	sum1 := b.Emit(ir.OpAdd, ir.I32, a, c)
	sum2 := b.Emit(ir.OpAdd, ir.I32, sum1, e)
	b.ExitToPC(sum2)

	runner := optimizer.NewDefaultRunner(tinyRegs{})
	if err := runner.Run(b); err != nil {
		t.Fatalf("pass pipeline failed: %v", err)
	}

	type liveReg struct {
		reg, start, end int
	}
	var assigned []liveReg
	spilled := 0
	for _, blk := range b.Blocks() {
		for _, ins := range blk.Instrs() {
			v := ins.Result
			if v == nil || v.IsConst {
				continue
			}
			if v.Reg == ir.NoRegister {
				spilled++
				continue
			}
			assigned = append(assigned, liveReg{reg: v.Reg, start: v.LiveStart, end: v.LiveEnd})
		}
	}

	if spilled == 0 {
		t.Fatalf("expected at least one spill against a 2-register file with %d live values, got none", len(assigned)+spilled)
	}

	overlaps := func(x, y liveReg) bool { return x.start < y.end && y.start < x.end }
	for i := 0; i < len(assigned); i++ {
		for j := i + 1; j < len(assigned); j++ {
			if assigned[i].reg == assigned[j].reg && overlaps(assigned[i], assigned[j]) {
				t.Errorf("register %d shared by overlapping intervals [%d,%d) and [%d,%d)",
					assigned[i].reg, assigned[i].start, assigned[i].end, assigned[j].start, assigned[j].end)
			}
		}
	}
}
