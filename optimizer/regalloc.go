package optimizer

import (
	"container/list"

	"github.com/sh4jit/core/ir"
)

// RegisterFile describes the backend's allocatable register set, the
// same shape as dreavm's backend::Register table: a fixed count plus,
// per register, which ir.Types it can hold (an x86-64 GPR can't hold
// an F64, an XMM register can't hold an I64 context offset, etc).
type RegisterFile interface {
	NumRegisters() int
	CanHold(reg int, t ir.Type) bool
}

// interval is a Value's live range, ordinal-numbered by instruction
// position in reverse postorder.
type interval struct {
	value      *ir.Value
	start, end int
	reg        int
}

// RegisterAllocationPass assigns each instruction result a backend
// register via linear scan over live intervals computed from
// reverse-postorder instruction ordinals, spilling the
// furthest-ending interval that can hold the needed type when no free
// register remains. Grounded directly on dreavm's
// RegisterAllocationPass (ReuseArgRegister / AllocFreeRegister /
// AllocBlockedRegister).
type RegisterAllocationPass struct {
	regs RegisterFile
}

func NewRegisterAllocationPass(regs RegisterFile) *RegisterAllocationPass {
	return &RegisterAllocationPass{regs: regs}
}

func (p *RegisterAllocationPass) Name() string { return "register-allocation" }

func (p *RegisterAllocationPass) Run(b *ir.Builder) error {
	ordinals := assignOrdinals(b)

	free := make([]int, p.regs.NumRegisters())
	for i := range free {
		free[i] = i
	}
	// active holds currently-live intervals sorted by ascending end
	// ordinal, mirroring the teacher's std::multiset<Interval> ordered
	// by end.
	active := list.New()
	liveByReg := make(map[int]*list.Element, p.regs.NumRegisters())

	nextLocalSlot := 0

	expireOld := func(startOrdinal int) {
		for e := active.Front(); e != nil; {
			iv := e.Value.(*interval)
			if iv.end >= startOrdinal {
				break
			}
			next := e.Next()
			free = append(free, iv.reg)
			delete(liveByReg, iv.reg)
			active.Remove(e)
			e = next
		}
	}

	insertActive := func(iv *interval) *list.Element {
		for e := active.Front(); e != nil; e = e.Next() {
			if e.Value.(*interval).end >= iv.end {
				return active.InsertBefore(iv, e)
			}
		}
		return active.PushBack(iv)
	}

	allocFree := func(v *ir.Value, start, end int) int {
		for i, r := range free {
			if p.regs.CanHold(r, v.Type) {
				free[i] = free[len(free)-1]
				free = free[:len(free)-1]
				iv := &interval{value: v, start: start, end: end, reg: r}
				liveByReg[r] = insertActive(iv)
				return r
			}
		}
		return ir.NoRegister
	}

	reuseArg := func(ins *ir.Instr, start, end int) int {
		a0 := ins.Args[0]
		if a0 == nil || a0.IsConst {
			return ir.NoRegister
		}
		reg := a0.Reg
		if reg == ir.NoRegister {
			return ir.NoRegister
		}
		if !p.regs.CanHold(reg, ins.Result.Type) {
			return ir.NoRegister
		}
		e, ok := liveByReg[reg]
		if !ok {
			return ir.NoRegister
		}
		iv := e.Value.(*interval)
		if iv.end > start {
			// still needed afterward, can't steal it
			return ir.NoRegister
		}
		active.Remove(e)
		iv.value, iv.start, iv.end = ins.Result, start, end
		liveByReg[reg] = insertActive(iv)
		return reg
	}

	allocBlocked := func(v *ir.Value, start, end int) int {
		for e := active.Back(); e != nil; e = e.Prev() {
			iv := e.Value.(*interval)
			if !p.regs.CanHold(iv.reg, v.Type) {
				continue
			}
			iv.value.Reg = ir.NoRegister
			iv.value.LocalSlot = nextLocalSlot
			nextLocalSlot++
			free = append(free, iv.reg)
			delete(liveByReg, iv.reg)
			active.Remove(e)
			return allocFree(v, start, end)
		}
		return ir.NoRegister
	}

	for blk := b.EntryBlock(); blk != nil; blk = blk.RPONext {
		for ins := blk.First(); ins != nil; ins = ins.Next() {
			result := ins.Result
			if result == nil || result.IsConst {
				continue
			}
			start, end := liveRange(result, ordinals, ordinals[ins])

			expireOld(start)

			reg := reuseArg(ins, start, end)
			if reg == ir.NoRegister {
				reg = allocFree(result, start, end)
			}
			if reg == ir.NoRegister {
				reg = allocBlocked(result, start, end)
			}
			result.Reg = reg
			result.LiveStart, result.LiveEnd = start, end
		}
	}
	return nil
}

// assignOrdinals numbers every instruction in reverse-postorder block
// order, so liveness comparisons reduce to integer comparisons.
func assignOrdinals(b *ir.Builder) map[*ir.Instr]int {
	ordinals := make(map[*ir.Instr]int)
	n := 0
	for blk := b.EntryBlock(); blk != nil; blk = blk.RPONext {
		for ins := blk.First(); ins != nil; ins = ins.Next() {
			ordinals[ins] = n
			n++
		}
	}
	return ordinals
}

// liveRange returns v's first and last use ordinal, defaulting to
// defOrdinal if v (its own defining instruction) has no recorded uses
// yet.
func liveRange(v *ir.Value, ordinals map[*ir.Instr]int, defOrdinal int) (int, int) {
	start, end := defOrdinal, defOrdinal
	for ref := v.FirstUse(); ref != nil; ref = ref.NextUse() {
		o, ok := ordinals[ref.Instr]
		if !ok {
			continue
		}
		if o < start {
			start = o
		}
		if o > end {
			end = o
		}
	}
	return start, end
}
