package optimizer

import "github.com/sh4jit/core/ir"

// ConstantPropagationPass folds instructions whose operands are all
// constant into a single constant result, replacing every use and
// removing the instruction. Grounded on dreavm's table-driven
// ConstantPropagationPass; Go's lack of the original's templated
// per-(op,argtype) callback table is replaced with a plain switch,
// since Go generics would buy nothing here beyond what type switches on
// the small fixed Type set already provide concisely.
type ConstantPropagationPass struct{}

func (p *ConstantPropagationPass) Name() string { return "constant-propagation" }

func (p *ConstantPropagationPass) Run(b *ir.Builder) error {
	for _, blk := range b.Blocks() {
		for ins := blk.First(); ins != nil; {
			next := ins.Next()
			if folded, ok := tryFold(b, ins); ok {
				ins.Result.ReplaceAllUses(folded)
				ins.Unlink()
			}
			ins = next
		}
	}
	return nil
}

func tryFold(b *ir.Builder, ins *ir.Instr) (*ir.Value, bool) {
	if ins.Result == nil {
		return nil, false
	}
	a0, a1 := ins.Args[0], ins.Args[1]

	unary := a0 != nil && a0.IsConst && a1 == nil
	binary := a0 != nil && a0.IsConst && a1 != nil && a1.IsConst

	t := ins.Result.Type

	switch ins.Op {
	case ir.OpAdd:
		if binary {
			return foldIntBinary(b, t, a0, a1, func(x, y int64) int64 { return x + y })
		}
	case ir.OpSub:
		if binary {
			return foldIntBinary(b, t, a0, a1, func(x, y int64) int64 { return x - y })
		}
	case ir.OpMul:
		if binary {
			return foldIntBinary(b, t, a0, a1, func(x, y int64) int64 { return x * y })
		}
	case ir.OpAnd:
		if binary {
			return foldIntBinary(b, t, a0, a1, func(x, y int64) int64 { return x & y })
		}
	case ir.OpOr:
		if binary {
			return foldIntBinary(b, t, a0, a1, func(x, y int64) int64 { return x | y })
		}
	case ir.OpXor:
		if binary {
			return foldIntBinary(b, t, a0, a1, func(x, y int64) int64 { return x ^ y })
		}
	case ir.OpShl:
		if binary {
			return foldIntBinary(b, t, a0, a1, func(x, y int64) int64 { return x << uint(y) })
		}
	case ir.OpNeg:
		if unary {
			return foldIntBinary(b, t, a0, a0, func(x, _ int64) int64 { return -x })
		}
	case ir.OpNot:
		if unary {
			return foldIntBinary(b, t, a0, a0, func(x, _ int64) int64 { return ^x })
		}
	case ir.OpCmpEq:
		if binary {
			return foldCmp(b, a0, a1, func(x, y int64) bool { return x == y })
		}
	case ir.OpCmpNe:
		if binary {
			return foldCmp(b, a0, a1, func(x, y int64) bool { return x != y })
		}
	case ir.OpCmpLtU:
		if binary {
			return b.ConstI8(b2u8(uint64(a0.ConstI64()) < uint64(a1.ConstI64()))), true
		}
	case ir.OpCmpLtS:
		if binary {
			return foldCmp(b, a0, a1, func(x, y int64) bool { return x < y })
		}
	}
	return nil, false
}

func b2u8(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// foldIntBinary evaluates fn over a0/a1 as sign-extended 64-bit ints
// and truncates back to t, matching each opcode's declared result
// width.
func foldIntBinary(b *ir.Builder, t ir.Type, a0, a1 *ir.Value, fn func(x, y int64) int64) (*ir.Value, bool) {
	x := asInt64(a0)
	y := asInt64(a1)
	r := fn(x, y)
	switch t {
	case ir.I8:
		return b.ConstI8(uint8(r)), true
	case ir.I16:
		return b.ConstI16(uint16(r)), true
	case ir.I32:
		return b.ConstI32(uint32(r)), true
	case ir.I64:
		return b.ConstI64(uint64(r)), true
	default:
		return nil, false
	}
}

func foldCmp(b *ir.Builder, a0, a1 *ir.Value, fn func(x, y int64) bool) (*ir.Value, bool) {
	return b.ConstI8(b2u8(fn(asInt64(a0), asInt64(a1)))), true
}

func asInt64(v *ir.Value) int64 {
	switch v.Type {
	case ir.I8:
		return int64(int8(v.ConstI8()))
	case ir.I16:
		return int64(int16(v.ConstI16()))
	case ir.I32:
		return int64(int32(v.ConstI32()))
	default:
		return int64(v.ConstI64())
	}
}
