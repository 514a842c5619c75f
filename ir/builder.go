package ir

// Builder owns every Block, Instr, and Value created for one
// compilation unit (one guest block, spec.md §3) and is discarded
// whole once the backend has consumed it -- nothing inside an IRBuilder
// outlives the Compile call that created it.
type Builder struct {
	blocks []*Block
	cur    *Block

	// constants dedupes identical (Type, bits) constants within this
	// unit so optimizer passes comparing Value pointers for equality
	// (e.g. common-subexpression-adjacent checks in constant
	// propagation) see one shared node, not N copies.
	constants map[constKey]*Value
}

type constKey struct {
	t    Type
	bits uint64
}

// NewBuilder starts a fresh unit with one entry block already current.
func NewBuilder() *Builder {
	b := &Builder{constants: make(map[constKey]*Value)}
	b.cur = b.NewBlock()
	return b
}

// NewBlock allocates a new, empty block not yet linked to any other
// block's CFG edges; callers wire Preds/Succs via AddSucc.
func (b *Builder) NewBlock() *Block {
	blk := newBlock(len(b.blocks))
	b.blocks = append(b.blocks, blk)
	return blk
}

// Blocks returns every block created in this unit, in creation order
// (not necessarily reverse postorder until the optimizer's
// control-flow-analysis pass runs).
func (b *Builder) Blocks() []*Block { return b.blocks }

// EntryBlock is the unit's sole entry point.
func (b *Builder) EntryBlock() *Block { return b.blocks[0] }

// SetCurrent redirects subsequent Emit calls to append to blk.
func (b *Builder) SetCurrent(blk *Block) { b.cur = blk }

// Current returns the block Emit currently appends to.
func (b *Builder) Current() *Block { return b.cur }

// Emit appends a new instruction of the given opcode and result type to
// the current block and binds its arguments, returning the
// instruction's Result (nil if resultType is -1, e.g. OpStore/OpJump).
func (b *Builder) Emit(op Opcode, resultType Type, args ...*Value) *Value {
	ins := NewInstr(op, resultType)
	for i, a := range args {
		ins.SetArg(i, a)
	}
	b.cur.pushBack(ins)
	return ins.Result
}

// EmitInstr appends a fully-constructed instruction (built via NewInstr
// + SetArg by a caller that needs the Instr itself, e.g. to set
// GuestPC) to the current block.
func (b *Builder) EmitInstr(ins *Instr) {
	b.cur.pushBack(ins)
}

// Const returns a shared constant Value of type t holding bits,
// creating one if this unit hasn't seen that (t, bits) pair yet.
func (b *Builder) Const(t Type, bits uint64) *Value {
	key := constKey{t, bits}
	if v, ok := b.constants[key]; ok {
		return v
	}
	v := newValue(t)
	v.IsConst = true
	v.constBits = bits
	b.constants[key] = v
	return v
}

func (b *Builder) ConstI8(n uint8) *Value   { return b.Const(I8, uint64(n)) }
func (b *Builder) ConstI16(n uint16) *Value { return b.Const(I16, uint64(n)) }
func (b *Builder) ConstI32(n uint32) *Value { return b.Const(I32, uint64(n)) }
func (b *Builder) ConstI64(n uint64) *Value { return b.Const(I64, n) }
func (b *Builder) ConstF32(f float32) *Value { return b.Const(F32, uint64(f32ToBits(f))) }
func (b *Builder) ConstF64(f float64) *Value { return b.Const(F64, f64ToBits(f)) }

// LoadContext emits a read of the SH4Context field at byte offset
// off, of width t (see context.go's ContextOffset* constants).
func (b *Builder) LoadContext(off uint32, t Type) *Value {
	return b.Emit(OpLoadContext, t, b.ConstI32(off))
}

// StoreContext emits a write of val to the SH4Context field at byte
// offset off.
func (b *Builder) StoreContext(off uint32, val *Value) {
	b.Emit(OpStoreContext, -1, b.ConstI32(off), val)
}

// Load emits a guest memory read of width t at address addr.
func (b *Builder) Load(addr *Value, t Type) *Value {
	return b.Emit(OpLoad, t, addr)
}

// Store emits a guest memory write of val at address addr.
func (b *Builder) Store(addr, val *Value) {
	b.Emit(OpStore, -1, addr, val)
}

// Jump terminates the current block with an unconditional branch to
// target, wiring the CFG edge.
func (b *Builder) Jump(target *Block) {
	cur := b.cur
	ins := NewInstr(OpJump, -1)
	cur.pushBack(ins)
	cur.AddSucc(target)
}

// ExitToPC terminates the current block by returning a dynamic guest
// PC (a register or computed value) out of the compiled unit, e.g. for
// RTS/JMP/BRAF whose target isn't known at compile time; there is no
// CFG successor.
func (b *Builder) ExitToPC(pc *Value) {
	b.Emit(OpJump, I32, pc)
}

// BranchIf terminates the current block with a conditional branch,
// wiring both CFG edges.
func (b *Builder) BranchIf(cond *Value, ifTrue, ifFalse *Block) {
	cur := b.cur
	ins := NewInstr(OpBranchIf, -1)
	ins.SetArg(0, cond)
	cur.pushBack(ins)
	cur.AddSucc(ifTrue)
	cur.AddSucc(ifFalse)
}

// CallExternal emits a call to backend callback id, passing extra
// scalar arguments (rare; most external calls take only the context,
// implicit on every backend). Marked FlagInvalidatesContext so
// load/store elimination flushes cached context values across it.
func (b *Builder) CallExternal(id uint32, resultType Type, extra ...*Value) *Value {
	ins := NewInstr(OpCallExternal, resultType)
	ins.Flags |= FlagInvalidatesContext
	ins.SetArg(0, b.ConstI32(id))
	for i, a := range extra {
		if i+1 >= len(ins.Args) {
			break
		}
		ins.SetArg(i+1, a)
	}
	b.cur.pushBack(ins)
	return ins.Result
}
