package ir

// Instr is a single three-address-ish operation: up to three argument
// Values and at most one result Value, threaded into its owning
// Block's instruction list via prev/next (spec.md §3's intrusive
// doubly-linked list, so passes can splice without rebuilding a slice).
type Instr struct {
	Op     Opcode
	Args   [3]*Value
	Result *Value
	Flags  Flag

	// argRefs backs Args' entries on their source Value's use list; kept
	// parallel to Args so SetArg can maintain both without a linear scan.
	argRefs [3]*ValueRef

	Block *Block
	prev, next *Instr

	// GuestPC is the originating SH4 instruction's address, used for
	// fault-site attribution and debugging; 0 for instructions the
	// optimizer synthesizes.
	GuestPC uint32
}

// NewInstr allocates a detached instruction; Builder.EmitInstr inserts
// it into a block.
func NewInstr(op Opcode, resultType Type) *Instr {
	ins := &Instr{Op: op, Flags: flagsFor(op)}
	if resultType != -1 {
		v := newValue(resultType)
		v.Def = ins
		ins.Result = v
	}
	return ins
}

func flagsFor(op Opcode) Flag {
	var f Flag
	if op.IsTerminator() {
		f |= FlagTerminator
	}
	if op.HasSideEffect() {
		f |= FlagHasSideEffect
	}
	return f
}

// SetArg binds operand slot i to v, unlinking any previous use and
// registering a new one on v's use list.
func (ins *Instr) SetArg(i int, v *Value) {
	if old := ins.Args[i]; old != nil && ins.argRefs[i] != nil {
		removeUse(old, ins.argRefs[i])
		ins.argRefs[i] = nil
	}
	ins.Args[i] = v
	if v == nil {
		return
	}
	ref := &ValueRef{Instr: ins, argSlot: i}
	v.addUse(ref)
	ins.argRefs[i] = ref
}

// Unlink removes ins from its block's instruction list and drops its
// use of every argument, without touching ins.Result's own use list
// (callers who are deleting ins entirely should first ensure
// ins.Result has no remaining uses, e.g. via ReplaceAllUses).
func (ins *Instr) Unlink() {
	for i := range ins.Args {
		ins.SetArg(i, nil)
	}
	b := ins.Block
	if b == nil {
		return
	}
	if ins.prev != nil {
		ins.prev.next = ins.next
	} else {
		b.first = ins.next
	}
	if ins.next != nil {
		ins.next.prev = ins.prev
	} else {
		b.last = ins.prev
	}
	ins.prev, ins.next, ins.Block = nil, nil, nil
}

// Prev/Next expose the intrusive list for pass iteration.
func (ins *Instr) Prev() *Instr { return ins.prev }
func (ins *Instr) Next() *Instr { return ins.next }
