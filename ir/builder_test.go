// builder_test.go - tests for Builder and the intrusive value/instr lists.

package ir

import "testing"

func TestBuilder_ConstSharing(t *testing.T) {
	b := NewBuilder()

	a := b.ConstI32(42)
	c := b.ConstI32(42)
	if a != c {
		t.Error("identical constants should share one Value")
	}

	d := b.ConstI32(7)
	if a == d {
		t.Error("distinct constants should not share a Value")
	}
}

func TestBuilder_EmitAppendsToCurrentBlock(t *testing.T) {
	b := NewBuilder()

	v1 := b.ConstI32(1)
	v2 := b.ConstI32(2)
	sum := b.Emit(OpAdd, I32, v1, v2)

	if sum == nil {
		t.Fatal("OpAdd should produce a result")
	}
	instrs := b.Current().Instrs()
	if len(instrs) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(instrs))
	}
	if instrs[0].Op != OpAdd {
		t.Errorf("expected OpAdd, got %s", instrs[0].Op)
	}
	if instrs[0].Args[0] != v1 || instrs[0].Args[1] != v2 {
		t.Error("instruction args not bound to the values passed to Emit")
	}
}

func TestValue_ReplaceAllUses(t *testing.T) {
	b := NewBuilder()

	orig := b.ConstI32(10)
	repl := b.ConstI32(20)

	add := NewInstr(OpAdd, I32)
	add.SetArg(0, orig)
	add.SetArg(1, orig)
	b.EmitInstr(add)

	if orig.NumUses() != 2 {
		t.Fatalf("expected 2 uses of orig before replace, got %d", orig.NumUses())
	}

	orig.ReplaceAllUses(repl)

	if orig.NumUses() != 0 {
		t.Errorf("expected 0 uses of orig after replace, got %d", orig.NumUses())
	}
	if repl.NumUses() != 2 {
		t.Errorf("expected 2 uses of repl after replace, got %d", repl.NumUses())
	}
	if add.Args[0] != repl || add.Args[1] != repl {
		t.Error("instruction args should now point at repl")
	}
}

func TestInstr_Unlink(t *testing.T) {
	b := NewBuilder()

	v1 := b.ConstI32(1)
	v2 := b.ConstI32(2)
	sum := b.Emit(OpAdd, I32, v1, v2)
	_ = b.Emit(OpNeg, I32, sum)

	blk := b.Current()
	if len(blk.Instrs()) != 2 {
		t.Fatalf("expected 2 instructions before unlink, got %d", len(blk.Instrs()))
	}

	first := blk.First()
	first.Unlink()

	if len(blk.Instrs()) != 1 {
		t.Errorf("expected 1 instruction after unlink, got %d", len(blk.Instrs()))
	}
	if v1.NumUses() != 0 || v2.NumUses() != 0 {
		t.Error("unlinking an instruction should drop its argument uses")
	}
}

func TestBlock_AddSuccIsIdempotent(t *testing.T) {
	b := NewBuilder()
	a := b.NewBlock()
	c := b.NewBlock()

	a.AddSucc(c)
	a.AddSucc(c)

	if len(a.Succs) != 1 {
		t.Errorf("expected 1 successor, got %d", len(a.Succs))
	}
	if len(c.Preds) != 1 {
		t.Errorf("expected 1 predecessor, got %d", len(c.Preds))
	}
}

func TestBuilder_BranchIfWiresBothEdges(t *testing.T) {
	b := NewBuilder()
	entry := b.Current()
	ifTrue := b.NewBlock()
	ifFalse := b.NewBlock()

	cond := b.ConstI8(1)
	b.BranchIf(cond, ifTrue, ifFalse)

	if len(entry.Succs) != 2 {
		t.Fatalf("expected 2 successors, got %d", len(entry.Succs))
	}
	term := entry.Terminator()
	if term == nil || term.Op != OpBranchIf {
		t.Fatal("block should end in OpBranchIf")
	}
}
