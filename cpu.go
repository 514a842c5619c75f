// cpu.go - the public surface spec.md §6 closes the core's API down to:
// Execute, SetPC, RequestInterrupt, UnrequestInterrupt, DDT,
// InvalidateCode. Everything else in this package is an implementation
// detail reached only through a CPU value.
package core

import "log/slog"

// CPU ties together one guest CPU's context, memory, interrupts,
// backend and block cache, and drives the execution loop.
type CPU struct {
	Ctx        *SH4Context
	Mem        *SH4Memory
	Interrupts *Interrupts
	BlockCache *BlockCache
	Backend    Backend

	cfg Config
	log *slog.Logger

	Stats Stats
}

// NewCPU wires a CPU from its parts. backend is injected so core never
// imports a concrete compiler package (see Backend's doc comment in
// blockcache.go).
func NewCPU(cfg Config, backend Backend, ext SH4Handlers) (*CPU, error) {
	log := cfg.logger()
	interrupts := NewInterrupts()
	blockCache := NewBlockCache(cfg, backend, log)

	mem, err := NewSH4Memory(cfg, log, ext, interrupts, blockCache)
	if err != nil {
		return nil, err
	}

	ctx := NewSH4Context()
	ctx.Interrupts = interrupts
	ctx.Log = log
	mem.OnChip.SetContext(ctx)
	mem.SQ.SetSink(func(addr uint32, words [8]uint32) {
		for i, w := range words {
			mem.AS.Write32(addr+uint32(i*4), w)
		}
	})

	cpu := &CPU{
		Ctx:        ctx,
		Mem:        mem,
		Interrupts: interrupts,
		BlockCache: blockCache,
		Backend:    backend,
		cfg:        cfg,
		log:        log,
	}
	return cpu, nil
}

func (cpu *CPU) Close() error { return cpu.Mem.Close() }

// SetPC sets the next instruction to execute, e.g. after guest reset or
// for a debugger's "run from here".
func (cpu *CPU) SetPC(pc uint32) { cpu.Ctx.PC = pc }

// RequestInterrupt raises interrupt source id's request line.
func (cpu *CPU) RequestInterrupt(id int) { cpu.Interrupts.Request(id) }

// UnrequestInterrupt lowers interrupt source id's request line.
func (cpu *CPU) UnrequestInterrupt(id int) { cpu.Interrupts.Unrequest(id) }

// InvalidateCode removes every compiled block overlapping guestPC,
// forcing the next dispatch through it to recompile. Callers wire this
// to a write-watch on RAM pages or to specific MMIO writes (e.g. CCR's
// ICI bit, handled internally) per spec.md §4.6.
func (cpu *CPU) InvalidateCode(guestPC uint32) {
	cpu.BlockCache.RemoveBlocks(guestPC)
}

// compileFlagsAt snapshots FPSCR.PR/SZ, which are baked into the
// generated code and therefore part of the compile-time key (spec.md
// §4.6).
func (cpu *CPU) compileFlagsAt(slowmem bool) CompileFlags {
	return CompileFlags{
		Slowmem:     slowmem || !cpu.Mem.AS.FastmemEnabled(),
		DoublePrec:  cpu.Ctx.FPSCRDouble(),
		PairedFMove: cpu.Ctx.FPSCRPaired(),
	}
}
