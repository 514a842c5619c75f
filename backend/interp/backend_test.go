package interp

import (
	"testing"

	"github.com/sh4jit/core"
)

// newTestCPU builds a real CPU over a slowmem address space (no mmap,
// so this runs in any sandbox) with no external MMIO handlers: only the
// RAM/on-chip ranges this package's tests ever touch are exercised.
func newTestCPU(t *testing.T, backend core.Backend) *core.CPU {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Fastmem = false
	cpu, err := core.NewCPU(cfg, backend, core.SH4Handlers{})
	if err != nil {
		t.Fatalf("NewCPU: %v", err)
	}
	t.Cleanup(func() { _ = cpu.Close() })
	return cpu
}

func TestBackendCompile_MovImmediateThenFallsThrough(t *testing.T) {
	backend := New(1) // one instruction per block, forcing a synthesized fallthrough
	cpu := newTestCPU(t, backend)

	const pc = 0x8c010000
	cpu.Mem.AS.Write16(pc, 0xE005) // MOV #5,R0

	block, err := backend.Compile(cpu, pc, core.CompileFlags{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if block.GuestAddr != pc {
		t.Errorf("GuestAddr = %#x, want %#x", block.GuestAddr, pc)
	}

	next := block.Code(cpu.Ctx, cpu.Mem.AS)
	if next != pc+2 {
		t.Errorf("next pc = %#x, want %#x", next, pc+2)
	}
	if cpu.Ctx.R[0] != 5 {
		t.Errorf("R0 = %d, want 5", cpu.Ctx.R[0])
	}
}

func TestBackendCompile_AddThenRTS(t *testing.T) {
	backend := New(16)
	cpu := newTestCPU(t, backend)

	const pc = 0x8c020000
	cpu.Ctx.PR = 0x8c0f0000
	cpu.Mem.AS.Write16(pc+0, 0xE105) // MOV #5,R1
	cpu.Mem.AS.Write16(pc+2, 0x000B) // RTS
	cpu.Mem.AS.Write16(pc+4, 0x6013) // MOV R1,R0 (delay slot)

	block, err := backend.Compile(cpu, pc, core.CompileFlags{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	next := block.Code(cpu.Ctx, cpu.Mem.AS)
	if next != cpu.Ctx.PR {
		t.Errorf("RTS: next pc = %#x, want PR = %#x", next, cpu.Ctx.PR)
	}
	if cpu.Ctx.R[0] != 5 {
		t.Errorf("R0 after delay slot MOV R1,R0 = %d, want 5", cpu.Ctx.R[0])
	}
}
