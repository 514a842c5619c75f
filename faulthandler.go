// faulthandler.go - resolves a host access violation inside compiled
// fastmem code into a patched, slower MMIO call site, per spec.md §4.2.
package core

import "github.com/sh4jit/core/internal/faultutil"

// cpuFaultHandler adapts one CPU into a faultutil.Handler. Installed
// process-wide by CPU.InstallFaultHandler; CPU has no uninstall method,
// only faultutil.Teardown drops the whole handler chain (or never, for
// the lifetime of a process
// that owns exactly one CPU, which is this core's stated non-goal of
// "running two guests concurrently" notwithstanding -- multiple CPUs on
// different address spaces, e.g. SH4 and ARM7, each install their own
// handler and faultutil tries them in registration order).
type cpuFaultHandler struct {
	cpu *CPU
}

func (h *cpuFaultHandler) HandleFault(info faultutil.Info, regs *faultutil.Registers) faultutil.Verdict {
	block := h.cpu.BlockCache.LookupByHost(info.FaultPC)
	if block == nil {
		return faultutil.PropagateToNext
	}
	h.cpu.Stats.Faults++

	if !h.cpu.Backend.PatchFaultSite(info.FaultPC) {
		return faultutil.PropagateToNext
	}

	// The patched site now calls the MMIO dispatcher instead of
	// dereferencing fastmem directly; unlink this entry so the *next*
	// compile of this guest PC (triggered the next time its dispatch
	// slot is consulted, i.e. the next loop iteration after this block
	// returns) picks up BF_SLOWMEM for the whole block. The currently
	// executing frame keeps running against the freshly patched site
	// and its own already-compiled code, unaffected by the unlink.
	h.cpu.BlockCache.UnlinkOne(block)
	h.cpu.Stats.FaultsHandled++
	return faultutil.Handled
}

// InstallFaultHandler registers this CPU's fault handler into the
// process-wide chain. Call once per CPU; safe to call for more than one
// CPU sharing a process (e.g. SH4 and ARM7), each with its own
// BlockCache/Backend.
func (cpu *CPU) InstallFaultHandler() error {
	return faultutil.Install(&cpuFaultHandler{cpu: cpu})
}
