package frontend

import (
	"testing"

	"github.com/sh4jit/core"
	"github.com/sh4jit/core/ir"
)

// fakeMem is a flat little-endian-free word array: SH4 is big-endian but
// the frontend only cares about 16-bit instruction words, so tests index
// it directly by halfword.
type fakeMem struct {
	words map[uint32]uint16
}

func (m *fakeMem) Read16(addr uint32) uint16 { return m.words[addr] }

func TestBuildBlock_StraightLineFallsThrough(t *testing.T) {
	mem := &fakeMem{words: map[uint32]uint16{
		0x1000: 0xE005, // MOV #5,R0
		0x1002: 0xE103, // MOV #3,R1
	}}
	b, size, err := BuildBlock(mem, 0x1000, 2, core.CompileFlags{})
	if err != nil {
		t.Fatalf("BuildBlock: %v", err)
	}
	if size != 4 {
		t.Errorf("size = %d, want 4 (ran out of budget after 2 instrs)", size)
	}
	entry := b.EntryBlock()
	term := entry.Terminator()
	if term == nil {
		t.Fatal("expected a synthesized fallthrough terminator")
	}
	if term.Op != ir.OpJump {
		t.Errorf("terminator op = %v, want OpJump", term.Op)
	}
	if !term.Args[0].IsConst || term.Args[0].ConstI32() != 0x1004 {
		t.Errorf("fallthrough target = %v, want const 0x1004", term.Args[0])
	}
}

func TestBuildBlock_RTSTerminatesWithDelaySlot(t *testing.T) {
	mem := &fakeMem{words: map[uint32]uint16{
		0x2000: 0x000B, // RTS
		0x2002: 0xE007, // MOV #7,R0 (delay slot)
	}}
	b, size, err := BuildBlock(mem, 0x2000, 16, core.CompileFlags{})
	if err != nil {
		t.Fatalf("BuildBlock: %v", err)
	}
	if size != 4 {
		t.Errorf("size = %d, want 4 (RTS + delay slot)", size)
	}
	entry := b.EntryBlock()
	term := entry.Terminator()
	if term == nil || term.Op != ir.OpJump {
		t.Fatalf("expected RTS to terminate with OpJump, got %v", term)
	}
	// The delay slot's MOV should appear before RTS's own jump in the
	// instruction stream.
	var sawStoreContext bool
	for i := entry.First(); i != nil; i = i.Next() {
		if i.Op == ir.OpStoreContext {
			sawStoreContext = true
		}
		if i.Op == ir.OpJump && !sawStoreContext {
			t.Fatal("RTS's jump appeared before its delay slot's store")
		}
	}
	if !sawStoreContext {
		t.Error("delay slot instruction never emitted a context store")
	}
}

func TestBuildBlock_InvalidOpcodeHaltsBlock(t *testing.T) {
	mem := &fakeMem{words: map[uint32]uint16{
		0x3000: 0xFFFF, // unassigned
	}}
	b, _, err := BuildBlock(mem, 0x3000, 16, core.CompileFlags{})
	if err != nil {
		t.Fatalf("BuildBlock: %v", err)
	}
	entry := b.EntryBlock()
	var sawCallExternal bool
	for i := entry.First(); i != nil; i = i.Next() {
		if i.Op == ir.OpCallExternal {
			sawCallExternal = true
		}
	}
	if !sawCallExternal {
		t.Error("invalid opcode should lower to a CallExternal callback")
	}
}

func TestBuildBlock_BranchIfWiresTwoExitBlocks(t *testing.T) {
	mem := &fakeMem{words: map[uint32]uint16{
		0x4000: 0x8900 | 0x02, // BT disp=2
	}}
	b, _, err := BuildBlock(mem, 0x4000, 16, core.CompileFlags{})
	if err != nil {
		t.Fatalf("BuildBlock: %v", err)
	}
	blocks := b.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("expected entry + taken + not-taken blocks, got %d", len(blocks))
	}
	entry := blocks[0]
	if entry.Terminator() == nil || entry.Terminator().Op != ir.OpBranchIf {
		t.Fatalf("entry block should terminate in OpBranchIf, got %v", entry.Terminator())
	}
	if len(entry.Succs) != 2 {
		t.Errorf("entry block should have 2 successors, got %d", len(entry.Succs))
	}
}
