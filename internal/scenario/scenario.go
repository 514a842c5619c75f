// Package scenario assembles the six self-contained guest programs
// spec.md §8 names under "End-to-end scenarios" and checks their
// post-states against an interpreter-backed core.CPU. cmd/sh4harness
// and the root package's TestEndToEnd* tests both drive these through
// RunOne, so the guest code and its expected outcome are defined exactly
// once.
package scenario

import (
	"fmt"

	"github.com/sh4jit/core"
	"github.com/sh4jit/core/backend/interp"
)

// Base is the guest load address spec.md §8 fixes for every scenario.
const Base uint32 = 0x8c010000

// physAddr masks a guest virtual address down to the physical address
// the block cache actually keys blocks by (execute.go's maskPC), needed
// whenever a harness calls cpu.InvalidateCode directly instead of
// letting a guest cache-control write do it.
func physAddr(addr uint32) uint32 { return addr & 0x1fffffff }

// Scenario is one spec.md §8 end-to-end case: build guest state, run
// it to completion, then check the post-state the spec documents.
// MaxBlockInstrs and Area0 configure the CPU NewCPUFor builds for it;
// most scenarios leave Area0 nil.
type Scenario struct {
	Name           string
	MaxBlockInstrs int
	Area0          core.MMIOHandler
	Setup          func(cpu *core.CPU) error
	Run            func(cpu *core.CPU)
	Check          func(cpu *core.CPU) error
}

// All returns the six scenarios in spec.md §8's order.
func All() []Scenario {
	return []Scenario{
		addTFlag(),
		delayedBranch(),
		pairedFMove(),
		fastmemMMIOTrap(),
		smcInvalidation(),
		interruptPriority(),
	}
}

// NewCPUFor builds the interpreter-backed CPU s needs: fastmem off
// (backend/interp.Backend.PatchFaultSite always returns false -- it
// never dereferences guest memory through a raw host pointer, so there
// is no fault path for it to patch and no reason to pay for the mmap
// reservation) and s.Area0 wired in if set.
func NewCPUFor(s Scenario) (*core.CPU, error) {
	cfg := core.DefaultConfig()
	cfg.Fastmem = false
	max := s.MaxBlockInstrs
	if max == 0 {
		max = 32
	}
	backend := interp.New(max)
	return core.NewCPU(cfg, backend, core.SH4Handlers{Area0: s.Area0})
}

// RunOne builds a fresh CPU for s, runs it through Setup/Run/Check, and
// closes it before returning -- the single entry point cmd/sh4harness
// and the root package's TestEndToEnd* tests both call.
func RunOne(s Scenario) error {
	cpu, err := NewCPUFor(s)
	if err != nil {
		return fmt.Errorf("%s: building CPU: %w", s.Name, err)
	}
	defer cpu.Close()

	if err := s.Setup(cpu); err != nil {
		return fmt.Errorf("%s: setup: %w", s.Name, err)
	}
	s.Run(cpu)
	if err := s.Check(cpu); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return nil
}

// pvrHandler is a minimal MMIOHandler standing in for the PVR ID
// register scenario 4 reads, the way a real build would wire an actual
// Holly/PVR device model in (spec.md §1 puts peripheral device models
// out of core's scope; something still has to answer the read).
type pvrHandler struct{ val uint32 }

func (h *pvrHandler) Read(addr, mask uint32) uint32 { return h.val & mask }
func (h *pvrHandler) Write(addr, data, mask uint32) {}

// runToHalt runs cpu until it reaches the sentinel stop PC or budget
// guest instructions have retired, whichever comes first.
func runToHalt(cpu *core.CPU, budget int) {
	cpu.Execute(budget)
}

// --- two-pass assembler -----------------------------------------------

// prog accumulates one guest code stream plus any 32-bit literals it
// references via mov.l@pc (fieldD8 can't reach an arbitrary 32-bit
// constant, so literals live in a pool appended right after the code,
// exactly like a real SH4 compiler's per-function literal pool).
type prog struct {
	words   []uint16
	pending []pendingLiteral
}

type pendingLiteral struct {
	idx   int // word index of the mov.l@pc placeholder
	value uint32
}

func (p *prog) emit(w uint16) { p.words = append(p.words, w) }

// movImm -- MOV #imm,Rn (sign-extended 8-bit immediate).
func (p *prog) movImm(n int, imm int8) { p.emit(0xE000 | uint16(n)<<8 | uint16(uint8(imm))) }

// addImm -- ADD #imm,Rn.
func (p *prog) addImm(n int, imm int8) { p.emit(0x7000 | uint16(n)<<8 | uint16(uint8(imm))) }

// add -- ADD Rm,Rn (Rn += Rm).
func (p *prog) add(n, m int) { p.emit(0x3000 | uint16(n)<<8 | uint16(m)<<4 | 0xC) }

// movt -- MOVT Rn (Rn = T ? 1 : 0), the guest-visible way to read T;
// spec.md §8's "STC T,R3" is this core's generic shorthand for it.
func (p *prog) movt(n int) { p.emit(uint16(n)<<8 | 0x29) }

// nop -- NOP.
func (p *prog) nop() { p.emit(0x0009) }

// braRaw -- BRA, taking the already-computed 12-bit signed displacement
// directly; callers compute it from known word offsets rather than
// through the literal-pool mechanism since the target is fixed at
// assembly time, not a runtime value.
func (p *prog) braRaw(disp int) { p.emit(0xA000 | uint16(disp)&0xfff) }

// jmp -- JMP @Rn.
func (p *prog) jmp(n int) { p.emit(0x4000 | uint16(n)<<8 | 0x2B) }

// movLAtReg -- MOV.L @Rm,Rn.
func (p *prog) movLAtReg(n, m int) { p.emit(0x6000 | uint16(n)<<8 | uint16(m)<<4 | 0x2) }

// fmovLoadInc -- FMOV.S @Rm+,FRn (FRn loaded, Rm post-incremented by 4).
func (p *prog) fmovLoadInc(frn, rm int) { p.emit(0xF000 | uint16(frn)<<8 | uint16(rm)<<4 | 0x9) }

// fmovReg -- FMOV FRm,FRn (paired DR move under FPSCR.SZ).
func (p *prog) fmovReg(n, m int) { p.emit(0xF000 | uint16(n)<<8 | uint16(m)<<4 | 0xC) }

// movLPC reserves a mov.l@pc Rn slot loading value, backed by a literal
// finalize appends after the code stream. Always pads to an even word
// index first, so the (pc+4)&^3 rounding finalize relies on is a no-op.
func (p *prog) movLPC(n int, value uint32) {
	if len(p.words)%2 != 0 {
		p.nop()
	}
	idx := len(p.words)
	p.emit(0xD000 | uint16(n)<<8) // disp8 patched in finalize
	p.pending = append(p.pending, pendingLiteral{idx: idx, value: value})
}

// haltSeq appends the standard block-exit-to-sentinel sequence every
// scenario ends with: load 0xdeadbeef into scratch, jump to it. The
// jmp's delay slot is an explicit nop.
func (p *prog) haltSeq(scratch int) {
	p.movLPC(scratch, core.SentinelStopPC)
	p.jmp(scratch)
	p.nop()
}

type literalWrite struct {
	addr  uint32
	value uint32
}

// finalize pads the code stream to an even word count, appends the
// literal pool right after it, and patches every pending mov.l@pc's
// disp8 field. Returns the instruction words and the (addr, value)
// pairs the caller must Write32 into guest memory for the literal pool.
func (p *prog) finalize(base uint32) ([]uint16, []literalWrite) {
	if len(p.words)%2 != 0 {
		p.nop()
	}
	litBase := base + uint32(len(p.words))*2
	writes := make([]literalWrite, len(p.pending))
	for i, pl := range p.pending {
		addr := litBase + uint32(i)*4
		instrPC := base + uint32(pl.idx)*2
		dispBase := instrPC + 4 // idx is always even, so this is already 4-aligned
		disp := (addr - dispBase) / 4
		if disp > 0xff {
			panic(fmt.Sprintf("scenario: literal pool displacement %d overflows mov.l@pc's 8-bit field", disp))
		}
		p.words[pl.idx] |= uint16(disp)
		writes[i] = literalWrite{addr: addr, value: pl.value}
	}
	return p.words, writes
}

// load writes the assembled program into cpu's address space starting
// at base.
func (p *prog) load(cpu *core.CPU, base uint32) {
	words, literals := p.finalize(base)
	for i, w := range words {
		cpu.Mem.AS.Write16(base+uint32(i*2), w)
	}
	for _, lw := range literals {
		cpu.Mem.AS.Write32(lw.addr, lw.value)
	}
}

// --- scenario 1: ADD T-flag --------------------------------------------

func addTFlag() Scenario {
	return Scenario{
		Name: "add_t_flag",
		Setup: func(cpu *core.CPU) error {
			p := &prog{}
			p.movLPC(1, 0x7fffffff) // R1 = 0x7fffffff
			p.movImm(2, 1)          // R2 = 1
			p.add(2, 1)             // R2 += R1 -> 0x80000000
			p.movt(3)               // R3 = T (plain ADD never touches T)
			p.haltSeq(4)
			p.load(cpu, Base)
			cpu.SetPC(Base)
			return nil
		},
		Run: func(cpu *core.CPU) { runToHalt(cpu, 64) },
		Check: func(cpu *core.CPU) error {
			if cpu.Ctx.R[2] != 0x80000000 {
				return fmt.Errorf("R2 = %#x, want 0x80000000", cpu.Ctx.R[2])
			}
			if cpu.Ctx.R[3] != 0 {
				return fmt.Errorf("R3 = %#x, want 0 (ADD must not touch T)", cpu.Ctx.R[3])
			}
			return nil
		},
	}
}

// --- scenario 2: delayed branch -----------------------------------------

func delayedBranch() Scenario {
	return Scenario{
		Name: "delayed_branch",
		Setup: func(cpu *core.CPU) error {
			p := &prog{}
			p.movImm(0, 1) // word 0: R0 = 1
			// word 1: BRA target, target = word 4 ("/*next*/ ADD #10,R0").
			// disp = (target_addr - (bra_addr+4)) / 2 = ((Base+8)-(Base+6))/2 = 1
			p.braRaw(1)
			p.addImm(0, 1) // word 2: delay slot, always executes: R0 += 1
			p.addImm(0, 1) // word 3: skipped -- the branch target is word 4, not here
			p.addImm(0, 10) // word 4: "/*next*/", the branch target: R0 += 10
			p.haltSeq(4)
			p.load(cpu, Base)
			cpu.SetPC(Base)
			return nil
		},
		Run: func(cpu *core.CPU) { runToHalt(cpu, 64) },
		Check: func(cpu *core.CPU) error {
			if cpu.Ctx.R[0] != 12 {
				return fmt.Errorf("R0 = %d, want 12 (1 initial + 1 delay slot + 10 at target)", cpu.Ctx.R[0])
			}
			return nil
		},
	}
}

// --- scenario 3: paired-single FMOV -------------------------------------

// fpscrBitSZ mirrors context.go's unexported fpscrBit{SZ}; spec.md §6
// documents FPSCR's layout and this bit's position is stable across the
// core, but only context.go exports accessors for reading it, not for
// a caller outside the package to set it directly.
const fpscrBitSZ = 20

func pairedFMove() Scenario {
	const scratch uint32 = Base + 0x1000
	return Scenario{
		Name: "paired_fmov",
		Setup: func(cpu *core.CPU) error {
			// FPSCR.SZ must already be set before the block containing FMOV
			// is first compiled: PairedFMove is snapshotted into
			// CompileFlags at compile time (spec.md §4.6), not re-read per
			// instruction.
			cpu.Ctx.FPSCR |= 1 << fpscrBitSZ

			cpu.Mem.AS.Write32(scratch, 0x3f800000)   // 1.0f
			cpu.Mem.AS.Write32(scratch+4, 0x40000000) // 2.0f

			p := &prog{}
			p.movLPC(4, scratch)   // R4 = &scratch
			p.fmovLoadInc(0, 4)    // FR0 = *R4++  (1.0)
			p.fmovLoadInc(1, 4)    // FR1 = *R4++  (2.0)
			p.fmovReg(2, 0)        // DR2 = DR0 (paired: FR2<-FR0, FR3<-FR1)
			p.haltSeq(5)
			p.load(cpu, Base)
			cpu.SetPC(Base)
			return nil
		},
		Run: func(cpu *core.CPU) { runToHalt(cpu, 64) },
		Check: func(cpu *core.CPU) error {
			if cpu.Ctx.Fr[2] != 1.0 {
				return fmt.Errorf("FR2 = %v, want 1.0", cpu.Ctx.Fr[2])
			}
			if cpu.Ctx.Fr[3] != 2.0 {
				return fmt.Errorf("FR3 = %v, want 2.0", cpu.Ctx.Fr[3])
			}
			return nil
		},
	}
}

// --- scenario 4: fastmem MMIO trap ---------------------------------------

// fastmemMMIOTrap adapts spec.md §8's literal narrative (a fastmem
// SIGSEGV recompiled with BF_SLOWMEM) to this delivery's interpreter
// backend: backend/interp.Backend.PatchFaultSite always returns false
// because the interpreter never dereferences guest memory through a
// raw host pointer in the first place, so it can never produce the
// described segfault. What's still testable, and what this checks, is
// the scenario's externally-visible guarantee -- a guest load from a
// device register reaches the MMIO handler and the value lands in the
// destination register without ever escaping to a host fault.
func fastmemMMIOTrap() Scenario {
	const pvrAddr uint32 = 0x005f8000
	const pvrVal uint32 = 0xcafebabe
	return Scenario{
		Name:  "fastmem_mmio_trap",
		Area0: &pvrHandler{val: pvrVal},
		Setup: func(cpu *core.CPU) error {
			p := &prog{}
			p.movLPC(0, pvrAddr) // R0 = PVR register address
			p.movLAtReg(1, 0)    // R1 = MOV.L @R0
			p.haltSeq(2)
			p.load(cpu, Base)
			cpu.SetPC(Base)
			return nil
		},
		Run: func(cpu *core.CPU) { runToHalt(cpu, 64) },
		Check: func(cpu *core.CPU) error {
			if cpu.Ctx.R[1] != pvrVal {
				return fmt.Errorf("R1 = %#x, want MMIO handler value %#x", cpu.Ctx.R[1], pvrVal)
			}
			return nil
		},
	}
}

// --- scenario 5: SMC invalidation -----------------------------------------

func smcInvalidation() Scenario {
	return Scenario{
		Name: "smc_invalidation",
		Setup: func(cpu *core.CPU) error {
			p := &prog{}
			p.movImm(0, 1) // word 0 (Base+0): R0 = 1
			p.nop()        // word 1 (Base+2): overwritten below
			p.haltSeq(4)
			p.load(cpu, Base)
			cpu.SetPC(Base)
			return nil
		},
		Run: func(cpu *core.CPU) {
			runToHalt(cpu, 64) // first compile+run: R0 == 1

			// Self-modify the second instruction word in place.
			cpu.Mem.AS.Write16(Base+2, 0xE002) // MOV #2,R0

			// Stand in for the guest cache-maintenance instruction (or a
			// DMA write-watch) that would trigger this in a real build;
			// cpu.go's InvalidateCode doc comment names exactly this path.
			cpu.InvalidateCode(physAddr(Base + 2))

			cpu.SetPC(Base)
			runToHalt(cpu, 64) // second compile+run must observe the new word
		},
		Check: func(cpu *core.CPU) error {
			if cpu.Ctx.R[0] != 2 {
				return fmt.Errorf("R0 = %d, want 2 (recompile must see the self-modified word)", cpu.Ctx.R[0])
			}
			return nil
		},
	}
}

// --- scenario 6: interrupt priority ---------------------------------------

// interruptPriority uses maxBlockInstrs=1 so the first compiled block
// covers exactly the one guest instruction at Base and falls through
// (frontend.BuildBlock's out-of-budget path), letting Execute(1) spend
// its entire cycle budget on that single instruction and call
// checkPendingInterrupts exactly once right after -- "the moment of
// acceptance" spec.md §8 names, with no further block compiled past it.
func interruptPriority() Scenario {
	const (
		regIPRA  = 0x1fd00004
		vbr      = uint32(0x8c100000)
		srBLMask = uint32(1) << 28
		imaskOff = ^(uint32(0xf) << 4)
	)
	return Scenario{
		Name:           "interrupt_priority",
		MaxBlockInstrs: 1,
		Setup: func(cpu *core.CPU) error {
			p := &prog{}
			p.nop() // word 0 (Base): the one instruction this block runs
			p.load(cpu, Base)
			cpu.SetPC(Base)
			cpu.Ctx.VBR = vbr

			// IPRA bits [15:12]=TMU0, [11:8]=TMU1, [7:4]=TMU2: 0x8800 gives
			// TMU0 and TMU1 both priority 8, TMU2 priority 0.
			cpu.Mem.AS.Write32(regIPRA, 0x8800)

			cpu.Ctx.SR &^= srBLMask // unmask: accept interrupts
			cpu.Ctx.SR &= imaskOff  // IMASK = 0

			cpu.RequestInterrupt(0) // TMU0
			cpu.RequestInterrupt(1) // TMU1
			return nil
		},
		Run: func(cpu *core.CPU) { cpu.Execute(1) },
		Check: func(cpu *core.CPU) error {
			if cpu.Ctx.SPC != Base+2 {
				return fmt.Errorf("SPC = %#x, want %#x (PC at the moment of acceptance)", cpu.Ctx.SPC, Base+2)
			}
			if cpu.Ctx.SR&srBLMask == 0 {
				return fmt.Errorf("SR.BL not set after interrupt acceptance")
			}
			if cpu.Ctx.PC != vbr+0x600 {
				return fmt.Errorf("PC = %#x, want VBR+0x600 = %#x", cpu.Ctx.PC, vbr+0x600)
			}
			const regINTEVT = 0x1f000028
			const tuni0 = 0x400
			if got := cpu.Mem.AS.Read32(regINTEVT); got != tuni0 {
				return fmt.Errorf("INTEVT = %#x, want %#x (TMU0 wins the priority-8 tie over TMU1)", got, tuni0)
			}
			return nil
		},
	}
}
