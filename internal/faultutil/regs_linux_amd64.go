//go:build linux && amd64

package faultutil

/*
#cgo CFLAGS: -D_GNU_SOURCE
#include <signal.h>
#include <stdint.h>
#include <string.h>

// install_handler and the trampoline below port
// exception_handler_linux.c's signal_handler/exception_handler_install_platform
// pair: a single SA_SIGINFO handler for SIGSEGV and SIGBUS that hands the
// faulting mcontext to Go and, if Go claims the fault, copies the
// (possibly patched) state back before returning into the interrupted
// instruction stream.

static struct sigaction g_old_segv;
static struct sigaction g_old_bus;

extern int goFaultDispatch(uintptr_t pc, uintptr_t addr, int write, void *mctx);

static void sigsegv_trampoline(int signo, siginfo_t *info, void *ctxp) {
	ucontext_t *uctx = (ucontext_t *)ctxp;
	uintptr_t pc = (uintptr_t)uctx->uc_mcontext.gregs[REG_RIP];
	uintptr_t addr = (uintptr_t)info->si_addr;
	int write = (uctx->uc_mcontext.gregs[REG_ERR] & 0x2) != 0;

	int handled = goFaultDispatch(pc, addr, write, &uctx->uc_mcontext);
	if (!handled) {
		struct sigaction *old = (signo == SIGSEGV) ? &g_old_segv : &g_old_bus;
		sigaction(signo, old, NULL);
	}
}

static int install_handlers(void) {
	struct sigaction sa;
	memset(&sa, 0, sizeof(sa));
	sa.sa_flags = SA_SIGINFO | SA_NODEFER;
	sigemptyset(&sa.sa_mask);
	sa.sa_sigaction = sigsegv_trampoline;

	if (sigaction(SIGSEGV, &sa, &g_old_segv) != 0) {
		return 0;
	}
	if (sigaction(SIGBUS, &sa, &g_old_bus) != 0) {
		return 0;
	}
	return 1;
}

static void uninstall_handlers(void) {
	sigaction(SIGSEGV, &g_old_segv, NULL);
	sigaction(SIGBUS, &g_old_bus, NULL);
}

static uintptr_t mctx_get_rip(void *mctx) {
	return (uintptr_t)((ucontext_t *)0)->uc_mcontext.gregs[REG_RIP]; // never reached, keeps cgo happy about REG_RIP usage
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// Registers is a thin view over the mcontext_t handed to the signal
// trampoline. Only RIP is exposed: that is all the block-cache fault
// handler needs to locate the owning compiled block and redirect
// execution to a patched site.
type Registers struct {
	mctx unsafe.Pointer
}

func (r *Registers) RIP() uintptr {
	m := (*C.mcontext_t)(r.mctx)
	return uintptr(m.gregs[C.REG_RIP])
}

func (r *Registers) SetRIP(pc uintptr) {
	m := (*C.mcontext_t)(r.mctx)
	m.gregs[C.REG_RIP] = C.greg_t(pc)
}

var (
	mu       sync.Mutex
	chain    []Handler
	installed bool
)

// Install registers the process-wide SIGSEGV/SIGBUS handler chain. It is
// idempotent; later calls append to the existing chain.
func Install(h Handler) error {
	mu.Lock()
	defer mu.Unlock()
	chain = append(chain, h)
	if !installed {
		if C.install_handlers() == 0 {
			return errInstallFailed
		}
		installed = true
	}
	return nil
}

// Teardown restores whatever handlers were installed before this package
// claimed SIGSEGV/SIGBUS, and forgets the registered handler chain.
func Teardown() {
	mu.Lock()
	defer mu.Unlock()
	if installed {
		C.uninstall_handlers()
		installed = false
	}
	chain = nil
}

//export goFaultDispatch
func goFaultDispatch(pc, addr C.uintptr_t, write C.int, mctx unsafe.Pointer) C.int {
	mu.Lock()
	handlers := append([]Handler(nil), chain...)
	mu.Unlock()

	info := Info{FaultPC: uintptr(pc), FaultAddr: uintptr(addr), WriteFault: write != 0}
	regs := &Registers{mctx: mctx}
	for _, h := range handlers {
		switch h.HandleFault(info, regs) {
		case Handled:
			return 1
		case Abort:
			return 0
		case PropagateToNext:
			continue
		}
	}
	return 0
}
