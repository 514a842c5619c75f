package interp

import (
	"math"
	"math/bits"

	"github.com/sh4jit/core"
	"github.com/sh4jit/core/ir"
)

// unit is one optimized compilation unit, ready to interpret directly
// (no host code is ever emitted). Matches core.CompiledFunc once bound
// to its callback table as a method value.
type unit struct {
	entry *ir.Block
	cbs   *callbackTable
}

// run interprets unit from its entry block until an OpJump with a
// dynamic Args[0] leaves the compiled unit, returning the next guest
// PC -- the same contract core.CompiledFunc promises.
func (u *unit) run(ctx *core.SH4Context, mem *core.AddressSpace) uint32 {
	f := frame{ctx: ctx, mem: mem, cbs: u.cbs, vals: make(map[*ir.Value]uint64, 32)}
	blk := u.entry
blocks:
	for {
		for ins := blk.First(); ins != nil; ins = ins.Next() {
			switch ins.Op {
			case ir.OpJump:
				if ins.Args[0] != nil {
					return uint32(f.val(ins.Args[0]))
				}
				blk = blk.Succs[0]
				continue blocks
			case ir.OpBranchIf:
				if f.val(ins.Args[0]) != 0 {
					blk = blk.Succs[0]
				} else {
					blk = blk.Succs[1]
				}
				continue blocks
			default:
				f.step(ins)
			}
		}
		panic("interp: block fell through without a terminator")
	}
}

// frame holds one run's evaluation state: ctx/mem are the guest state
// compiled code operates on, vals memoizes every non-constant Value
// computed so far in this unit (a Value is defined exactly once, so
// once computed it never needs recomputing even if used from a later
// block).
type frame struct {
	ctx  *core.SH4Context
	mem  *core.AddressSpace
	cbs  *callbackTable
	vals map[*ir.Value]uint64
}

// val returns v's raw bit pattern, reinterpreted by the caller
// according to v.Type -- the same representation ir.Value.constBits
// uses, so constants and computed values share one code path.
func (f *frame) val(v *ir.Value) uint64 {
	if v == nil {
		return 0
	}
	if v.IsConst {
		return v.ConstI64()
	}
	return f.vals[v]
}

func (f *frame) set(v *ir.Value, bits uint64) {
	if v != nil {
		f.vals[v] = bits
	}
}

// step executes one non-terminator instruction, writing its Result (if
// any) into f.vals.
func (f *frame) step(ins *ir.Instr) {
	switch ins.Op {
	case ir.OpNop, ir.OpGuardPC:
		return

	case ir.OpLoadConst, ir.OpMov:
		f.set(ins.Result, f.val(ins.Args[0]))

	case ir.OpAdd:
		f.set(ins.Result, maskWidth(ins.Result.Type, f.val(ins.Args[0])+f.val(ins.Args[1])))
	case ir.OpSub:
		f.set(ins.Result, maskWidth(ins.Result.Type, f.val(ins.Args[0])-f.val(ins.Args[1])))
	case ir.OpMul:
		f.set(ins.Result, maskWidth(ins.Result.Type, f.val(ins.Args[0])*f.val(ins.Args[1])))
	case ir.OpUMulHi:
		f.set(ins.Result, umulHi(ins.Result.Type, f.val(ins.Args[0]), f.val(ins.Args[1])))
	case ir.OpSMulHi:
		f.set(ins.Result, smulHi(ins.Result.Type, f.val(ins.Args[0]), f.val(ins.Args[1])))
	case ir.OpNeg:
		f.set(ins.Result, maskWidth(ins.Result.Type, -f.val(ins.Args[0])))
	case ir.OpAnd:
		f.set(ins.Result, f.val(ins.Args[0])&f.val(ins.Args[1]))
	case ir.OpOr:
		f.set(ins.Result, f.val(ins.Args[0])|f.val(ins.Args[1]))
	case ir.OpXor:
		f.set(ins.Result, f.val(ins.Args[0])^f.val(ins.Args[1]))
	case ir.OpNot:
		f.set(ins.Result, maskWidth(ins.Result.Type, ^f.val(ins.Args[0])))
	case ir.OpShl:
		f.set(ins.Result, maskWidth(ins.Result.Type, f.val(ins.Args[0])<<uint(f.val(ins.Args[1]))))
	case ir.OpShr:
		f.set(ins.Result, maskWidth(ins.Result.Type, f.val(ins.Args[0])>>uint(f.val(ins.Args[1]))))
	case ir.OpSar:
		t := ins.Result.Type
		shift := uint(f.val(ins.Args[1]))
		f.set(ins.Result, maskWidth(t, uint64(signExtend(t, f.val(ins.Args[0]))>>shift)))
	case ir.OpRotl:
		t := ins.Result.Type
		w := uint(widthBits(t))
		amt := uint(f.val(ins.Args[1])) % w
		x := maskWidth(t, f.val(ins.Args[0]))
		f.set(ins.Result, maskWidth(t, x<<amt|x>>(w-amt)))
	case ir.OpRotr:
		t := ins.Result.Type
		w := uint(widthBits(t))
		amt := uint(f.val(ins.Args[1])) % w
		x := maskWidth(t, f.val(ins.Args[0]))
		f.set(ins.Result, maskWidth(t, x>>amt|x<<(w-amt)))

	case ir.OpSExt:
		f.set(ins.Result, maskWidth(ins.Result.Type, uint64(signExtend(ins.Args[0].Type, f.val(ins.Args[0])))))
	case ir.OpZExt:
		f.set(ins.Result, maskWidth(ins.Result.Type, maskWidth(ins.Args[0].Type, f.val(ins.Args[0]))))
	case ir.OpTrunc:
		f.set(ins.Result, maskWidth(ins.Result.Type, f.val(ins.Args[0])))

	case ir.OpIntToFloat:
		n := signExtend(ins.Args[0].Type, f.val(ins.Args[0]))
		if ins.Result.Type == ir.F64 {
			f.set(ins.Result, math.Float64bits(float64(n)))
		} else {
			f.set(ins.Result, uint64(math.Float32bits(float32(n))))
		}
	case ir.OpFloatToInt:
		v := f.floatVal(ins.Args[0])
		f.set(ins.Result, maskWidth(ins.Result.Type, uint64(int64(v))))
	case ir.OpFloatToFloat:
		v := f.floatVal(ins.Args[0])
		if ins.Result.Type == ir.F64 {
			f.set(ins.Result, math.Float64bits(v))
		} else {
			f.set(ins.Result, uint64(math.Float32bits(float32(v))))
		}

	case ir.OpFAdd:
		f.setFloat(ins.Result, f.floatVal(ins.Args[0])+f.floatVal(ins.Args[1]))
	case ir.OpFSub:
		f.setFloat(ins.Result, f.floatVal(ins.Args[0])-f.floatVal(ins.Args[1]))
	case ir.OpFMul:
		f.setFloat(ins.Result, f.floatVal(ins.Args[0])*f.floatVal(ins.Args[1]))
	case ir.OpFDiv:
		f.setFloat(ins.Result, f.floatVal(ins.Args[0])/f.floatVal(ins.Args[1]))
	case ir.OpFNeg:
		f.setFloat(ins.Result, -f.floatVal(ins.Args[0]))
	case ir.OpFAbs:
		f.setFloat(ins.Result, math.Abs(f.floatVal(ins.Args[0])))
	case ir.OpFSqrt:
		f.setFloat(ins.Result, math.Sqrt(f.floatVal(ins.Args[0])))
	case ir.OpFMac:
		v := f.floatVal(ins.Args[0])*f.floatVal(ins.Args[1]) + f.floatVal(ins.Args[2])
		f.setFloat(ins.Result, v)

	case ir.OpCmpEq:
		f.set(ins.Result, boolBits(f.val(ins.Args[0]) == f.val(ins.Args[1])))
	case ir.OpCmpNe:
		f.set(ins.Result, boolBits(f.val(ins.Args[0]) != f.val(ins.Args[1])))
	case ir.OpCmpLtU:
		t := ins.Args[0].Type
		f.set(ins.Result, boolBits(maskWidth(t, f.val(ins.Args[0])) < maskWidth(t, f.val(ins.Args[1]))))
	case ir.OpCmpLtS:
		t := ins.Args[0].Type
		f.set(ins.Result, boolBits(signExtend(t, f.val(ins.Args[0])) < signExtend(t, f.val(ins.Args[1]))))
	case ir.OpCmpGeU:
		t := ins.Args[0].Type
		f.set(ins.Result, boolBits(maskWidth(t, f.val(ins.Args[0])) >= maskWidth(t, f.val(ins.Args[1]))))
	case ir.OpCmpGeS:
		t := ins.Args[0].Type
		f.set(ins.Result, boolBits(signExtend(t, f.val(ins.Args[0])) >= signExtend(t, f.val(ins.Args[1]))))
	case ir.OpFCmpEq:
		f.set(ins.Result, boolBits(f.floatVal(ins.Args[0]) == f.floatVal(ins.Args[1])))
	case ir.OpFCmpGt:
		f.set(ins.Result, boolBits(f.floatVal(ins.Args[0]) > f.floatVal(ins.Args[1])))

	case ir.OpLoad:
		addr := uint32(f.val(ins.Args[0]))
		f.set(ins.Result, f.loadMem(addr, ins.Result.Type))
	case ir.OpStore:
		addr := uint32(f.val(ins.Args[0]))
		f.storeMem(addr, ins.Args[1].Type, f.val(ins.Args[1]))

	case ir.OpLoadContext:
		off := uint32(f.val(ins.Args[0]))
		f.set(ins.Result, f.loadContext(off, ins.Result.Type))
	case ir.OpStoreContext:
		off := uint32(f.val(ins.Args[0]))
		f.storeContext(off, ins.Args[1].Type, f.val(ins.Args[1]))

	case ir.OpCallExternal:
		id := uint32(f.val(ins.Args[0]))
		a0 := uint32(f.val(ins.Args[1]))
		a1 := uint32(f.val(ins.Args[2]))
		if cb := f.cbs[id]; cb != nil {
			cb(f.ctx, f.mem, a0, a1)
		}

	default:
		panic("interp: unhandled opcode " + ins.Op.String())
	}
}

func (f *frame) floatVal(v *ir.Value) float64 {
	bits := f.val(v)
	if v.Type == ir.F64 {
		return math.Float64frombits(bits)
	}
	return float64(math.Float32frombits(uint32(bits)))
}

func (f *frame) setFloat(v *ir.Value, x float64) {
	if v.Type == ir.F64 {
		f.set(v, math.Float64bits(x))
	} else {
		f.set(v, uint64(math.Float32bits(float32(x))))
	}
}

func boolBits(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

func widthBits(t ir.Type) int {
	switch t {
	case ir.I8:
		return 8
	case ir.I16:
		return 16
	case ir.I32, ir.F32:
		return 32
	default:
		return 64
	}
}

func maskWidth(t ir.Type, x uint64) uint64 {
	switch t {
	case ir.I8:
		return x & 0xff
	case ir.I16:
		return x & 0xffff
	case ir.I32, ir.F32:
		return x & 0xffffffff
	default:
		return x
	}
}

func signExtend(t ir.Type, x uint64) int64 {
	switch t {
	case ir.I8:
		return int64(int8(uint8(x)))
	case ir.I16:
		return int64(int16(uint16(x)))
	case ir.I32:
		return int64(int32(uint32(x)))
	default:
		return int64(x)
	}
}

// umulHi/smulHi are unreachable from the current frontend (every
// widening multiply it emits widens operands to I64 and shifts, see
// frontend's dmulu.l/dmuls.l), kept for opcode completeness against
// ir.Opcode's full set.
func umulHi(t ir.Type, a, b uint64) uint64 {
	if t == ir.I64 {
		hi, _ := bits.Mul64(a, b)
		return hi
	}
	w := widthBits(t)
	return maskWidth(t, (maskWidth(t, a)*maskWidth(t, b))>>uint(w))
}

func smulHi(t ir.Type, a, b uint64) uint64 {
	sa, sb := signExtend(t, a), signExtend(t, b)
	w := widthBits(t)
	if t == ir.I64 {
		prod := sa * sb // approximate: true 64x64 signed high half needs 128-bit math
		return uint64(prod >> 32)
	}
	return maskWidth(t, uint64(sa*sb)>>uint(w))
}

func (f *frame) loadMem(addr uint32, t ir.Type) uint64 {
	switch t {
	case ir.I8:
		return uint64(f.mem.Read8(addr))
	case ir.I16:
		return uint64(f.mem.Read16(addr))
	case ir.I32, ir.F32:
		return uint64(f.mem.Read32(addr))
	default:
		return f.mem.Read64(addr)
	}
}

func (f *frame) storeMem(addr uint32, t ir.Type, v uint64) {
	switch t {
	case ir.I8:
		f.mem.Write8(addr, uint8(v))
	case ir.I16:
		f.mem.Write16(addr, uint16(v))
	case ir.I32, ir.F32:
		f.mem.Write32(addr, uint32(v))
	default:
		f.mem.Write64(addr, v)
	}
}
