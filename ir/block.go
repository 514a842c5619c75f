package ir

// Block is a basic block: a straight-line instruction list ending in
// exactly one terminator, plus the CFG edges the control-flow-analysis
// pass derives from that terminator (spec.md §3).
type Block struct {
	ID int

	first, last *Instr

	Preds []*Block
	Succs []*Block

	// RPOIndex is this block's position in reverse postorder, filled in
	// by the optimizer's control-flow-analysis pass; -1 until then.
	RPOIndex int
	// RPONext chains blocks in reverse-postorder for single-pass
	// forward sweeps (load/store elimination, constant propagation);
	// nil until control-flow analysis runs, and for the last block.
	RPONext *Block

	// Label is an opaque slot the backend uses to record where this
	// block's code begins once emitted, e.g. a host code offset.
	Label int

	// EntryPC/ExitPC bound the guest addresses this block covers when
	// it corresponds 1:1 to a contiguous instruction run (the common
	// case); a block synthesized for a delay slot or optimizer split
	// may leave these zero.
	EntryPC, ExitPC uint32
}

func newBlock(id int) *Block {
	return &Block{ID: id, RPOIndex: -1}
}

// Instrs returns the block's instructions head to tail. Cheap to call
// repeatedly; does not allocate beyond the returned slice.
func (b *Block) Instrs() []*Instr {
	var out []*Instr
	for i := b.first; i != nil; i = i.Next() {
		out = append(out, i)
	}
	return out
}

func (b *Block) First() *Instr { return b.first }
func (b *Block) Last() *Instr  { return b.last }

// Terminator returns the block's last instruction if it is a
// terminator, else nil (true mid-build, before the frontend has closed
// the block out).
func (b *Block) Terminator() *Instr {
	if b.last != nil && b.last.Flags&FlagTerminator != 0 {
		return b.last
	}
	return nil
}

// pushBack appends ins as the block's new last instruction.
func (b *Block) pushBack(ins *Instr) {
	ins.Block = b
	ins.prev = b.last
	ins.next = nil
	if b.last != nil {
		b.last.next = ins
	} else {
		b.first = ins
	}
	b.last = ins
}

// insertBefore splices ins immediately before at, both already/about to
// be members of b.
func (b *Block) insertBefore(at, ins *Instr) {
	ins.Block = b
	ins.next = at
	ins.prev = at.prev
	if at.prev != nil {
		at.prev.next = ins
	} else {
		b.first = ins
	}
	at.prev = ins
}

// AddSucc records a directed edge b->to, and the matching predecessor
// edge on to. Idempotent.
func (b *Block) AddSucc(to *Block) {
	for _, s := range b.Succs {
		if s == to {
			return
		}
	}
	b.Succs = append(b.Succs, to)
	to.Preds = append(to.Preds, b)
}
