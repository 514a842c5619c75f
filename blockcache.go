// blockcache.go - maps guest PC to compiled host code, tolerating guest
// self-modification and the currently-executing block being
// invalidated mid-run. spec.md §4.6.
package core

import (
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// BlockFlags are per-compiled-block flags; currently only BF_SLOWMEM.
type BlockFlags uint32

const (
	BlockFlagSlowmem BlockFlags = 1 << iota
)

// CompileFlags are passed into the frontend/backend pipeline; BF_SLOWMEM
// forces callback-based memory ops instead of fastmem, and the FPSCR
// snapshot at compile time is baked into the generated code (spec.md
// §4.6: "FPSCR.PR and FPSCR.SZ at guest_pc are part of the compile-time
// context").
type CompileFlags struct {
	Slowmem     bool
	DoublePrec  bool // FPSCR.PR at compile time
	PairedFMove bool // FPSCR.SZ at compile time
}

// CompiledFunc is a compiled block's entry point: runs until its
// terminator and returns the next guest PC.
type CompiledFunc func(ctx *SH4Context, mem *AddressSpace) uint32

// CompiledBlock is one block-cache entry, matching spec.md §3's
// "{ host_addr, host_size, guest_addr, guest_size, flags }".
type CompiledBlock struct {
	Code      CompiledFunc
	HostAddr  uintptr
	HostSize  uintptr
	GuestAddr uint32
	GuestSize uint32
	Flags     BlockFlags
}

func (b *CompiledBlock) containsGuest(addr uint32) bool {
	return addr >= b.GuestAddr && addr < b.GuestAddr+b.GuestSize
}

func (b *CompiledBlock) containsHost(pc uintptr) bool {
	return pc >= b.HostAddr && pc < b.HostAddr+b.HostSize
}

// Backend is what the block cache asks to turn a guest PC into a
// CompiledBlock. core never imports a concrete backend package;
// frontend/optimizer/backend/* implement this interface and import
// core, not the reverse.
type Backend interface {
	// Compile builds and emits a block starting at pc. Returning
	// (nil, ErrCodeBufferFull) tells the cache to clear everything and
	// retry once, per spec.md §4.5's overflow handling.
	Compile(cpu *CPU, pc uint32, flags CompileFlags) (*CompiledBlock, error)
	// PatchFaultSite rewrites the compiled instruction at hostPC (found
	// to be the site of a fastmem MMIO fault) to call the MMIO
	// dispatcher instead, returning true if the patch was applied.
	PatchFaultSite(hostPC uintptr) bool
	// Reset discards any state tied to a code buffer generation (called
	// after ClearBlocks).
	Reset()
}

// ErrCodeBufferFull is returned by a Backend when its code buffer
// overflowed mid-assembly.
var ErrCodeBufferFull = &codeBufferFullError{}

type codeBufferFullError struct{}

func (*codeBufferFullError) Error() string { return "backend: code buffer full" }

// dispatchSlot is one dispatch-array entry. A nil block stands for the
// trampoline: the next GetOrCompile through that slot compiles the
// block and re-enters it, per spec.md §3/§4.6.
type dispatchSlot struct {
	block *CompiledBlock // nil means "uncompiled, use the trampoline"
}

// BlockCache binds compiled host code to guest addresses.
type BlockCache struct {
	log     *slog.Logger
	backend Backend

	mu         sync.Mutex
	byGuest    []*CompiledBlock // sorted by GuestAddr
	byHost     []*CompiledBlock // sorted by HostAddr
	dispatch   []dispatchSlot   // indexed by guest PC >> 1 (SH4 instructions are 2 bytes)
	maxBlocks  int

	group singleflight.Group // see SPEC_FULL.md §4.6: guards concurrent get_or_compile callers

	Stats Stats
}

// NewBlockCache builds an empty cache sized for cfg.CodeRegionSize>>1
// dispatch slots.
func NewBlockCache(cfg Config, backend Backend, log *slog.Logger) *BlockCache {
	max := cfg.CodeRegionSize >> 1
	return &BlockCache{
		log:       log,
		backend:   backend,
		dispatch:  make([]dispatchSlot, max),
		maxBlocks: max,
	}
}

func (bc *BlockCache) slotIndex(pc uint32) int {
	idx := int(pc >> 1)
	if idx < 0 {
		idx = 0
	}
	if idx >= bc.maxBlocks {
		idx %= bc.maxBlocks
	}
	return idx
}

// GetOrCompile returns the compiled block at pc, compiling it first if
// the dispatch slot still holds the trampoline.
func (bc *BlockCache) GetOrCompile(cpu *CPU, pc uint32, flags CompileFlags) (*CompiledBlock, error) {
	bc.mu.Lock()
	idx := bc.slotIndex(pc)
	if b := bc.dispatch[idx].block; b != nil && b.GuestAddr == pc {
		bc.mu.Unlock()
		return b, nil
	}
	bc.mu.Unlock()

	v, err, _ := bc.group.Do(groupKey(pc), func() (interface{}, error) {
		return bc.compileAndInsert(cpu, pc, flags)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CompiledBlock), nil
}

func groupKey(pc uint32) string {
	// a fixed-width hex key keeps singleflight's map from growing
	// unboundedly differently-shaped for the same pc
	const hexdigits = "0123456789abcdef"
	buf := [10]byte{'0', 'x', 0, 0, 0, 0, 0, 0, 0, 0}
	for i := 0; i < 8; i++ {
		buf[9-i] = hexdigits[(pc>>(4*i))&0xf]
	}
	return string(buf[:])
}

func (bc *BlockCache) compileAndInsert(cpu *CPU, pc uint32, flags CompileFlags) (*CompiledBlock, error) {
	// Another singleflight caller may have compiled this while we waited
	// for the lock.
	bc.mu.Lock()
	idx := bc.slotIndex(pc)
	if b := bc.dispatch[idx].block; b != nil && b.GuestAddr == pc {
		bc.mu.Unlock()
		return b, nil
	}
	bc.mu.Unlock()

	block, err := bc.backend.Compile(cpu, pc, flags)
	if err == ErrCodeBufferFull {
		bc.log.Warn("code buffer overflow, clearing block cache and retrying", "pc", pc)
		bc.ClearBlocks()
		bc.backend.Reset()
		block, err = bc.backend.Compile(cpu, pc, flags)
		if err != nil {
			return nil, err // fatal: a single block larger than the code buffer is a bug
		}
	} else if err != nil {
		return nil, err
	}

	bc.mu.Lock()
	bc.insertLocked(block)
	bc.Stats.BlocksCompiled++
	bc.mu.Unlock()
	return block, nil
}

func (bc *BlockCache) insertLocked(b *CompiledBlock) {
	idx := bc.slotIndex(b.GuestAddr)
	bc.dispatch[idx].block = b

	gi := sort.Search(len(bc.byGuest), func(i int) bool { return bc.byGuest[i].GuestAddr >= b.GuestAddr })
	bc.byGuest = append(bc.byGuest, nil)
	copy(bc.byGuest[gi+1:], bc.byGuest[gi:])
	bc.byGuest[gi] = b

	hi := sort.Search(len(bc.byHost), func(i int) bool { return bc.byHost[i].HostAddr >= b.HostAddr })
	bc.byHost = append(bc.byHost, nil)
	copy(bc.byHost[hi+1:], bc.byHost[hi:])
	bc.byHost[hi] = b
}

func (bc *BlockCache) removeLocked(i int) {
	b := bc.byGuest[i]
	idx := bc.slotIndex(b.GuestAddr)
	if bc.dispatch[idx].block == b {
		bc.dispatch[idx].block = nil
	}
	bc.byGuest = append(bc.byGuest[:i], bc.byGuest[i+1:]...)
	for j, hb := range bc.byHost {
		if hb == b {
			bc.byHost = append(bc.byHost[:j], bc.byHost[j+1:]...)
			break
		}
	}
}

// LookupByGuest returns the block at exactly guestPC, or nil.
func (bc *BlockCache) LookupByGuest(guestPC uint32) *CompiledBlock {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	idx := bc.slotIndex(guestPC)
	if b := bc.dispatch[idx].block; b != nil && b.GuestAddr == guestPC {
		return b
	}
	return nil
}

// LookupByHost returns the block containing host PC hostPC, or nil --
// used by the fault handler.
func (bc *BlockCache) LookupByHost(hostPC uintptr) *CompiledBlock {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	i := sort.Search(len(bc.byHost), func(i int) bool { return bc.byHost[i].HostAddr > hostPC }) - 1
	if i < 0 || i >= len(bc.byHost) {
		return nil
	}
	b := bc.byHost[i]
	if b.containsHost(hostPC) {
		return b
	}
	return nil
}

// RemoveBlocks removes every block whose guest range contains addr,
// resetting its dispatch slot to the trampoline. This resolves spec.md
// §9's open question in favor of the "remove every overlapping block"
// semantics: a single SH4 instruction write can straddle (or a wider
// flush, such as the CCR.ICI path, can cover) more than one compiled
// block, and leaving any of them live would let stale host code run
// against addresses the guest believes it just rewrote. In the
// "a block-by-block paging BIOS" case spec.md names, each
// individual 2-or-4-byte poke only ever overlaps the one block covering
// it, so the loop-until-none-overlap behavior is observationally
// identical to "remove one block" in that case, while still being
// correct for a multi-instruction store or memset that spans blocks.
func (bc *BlockCache) RemoveBlocks(addr uint32) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for {
		removedAny := false
		for i, b := range bc.byGuest {
			if b.containsGuest(addr) {
				bc.removeLocked(i)
				removedAny = true
				bc.Stats.BlocksInvalidated++
				break
			}
		}
		if !removedAny {
			return
		}
	}
}

// RemoveBlocksOverlapping removes every block overlapping
// [addr, addr+size), for wider invalidation triggers (a DMA write, a
// multi-byte guest memcpy).
func (bc *BlockCache) RemoveBlocksOverlapping(addr, size uint32) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for {
		removedAny := false
		for i, b := range bc.byGuest {
			if b.GuestAddr < addr+size && addr < b.GuestAddr+b.GuestSize {
				bc.removeLocked(i)
				removedAny = true
				bc.Stats.BlocksInvalidated++
				break
			}
		}
		if !removedAny {
			return
		}
	}
}

// UnlinkBlocks resets every dispatch slot to the trampoline without
// removing map entries, so a block currently executing (whose frame
// will complete through its epilog normally) is safe to unlink: the
// next dispatch through that PC recompiles, but LookupByHost still
// finds the running frame's owning entry until the frame returns.
func (bc *BlockCache) UnlinkBlocks() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for i := range bc.dispatch {
		bc.dispatch[i].block = nil
	}
}

// UnlinkOne unlinks a single block's dispatch slot without touching the
// maps -- used by the fault handler when it needs to force a single
// guest PC to recompile (e.g. with BF_SLOWMEM) without disturbing every
// other resident block.
func (bc *BlockCache) UnlinkOne(b *CompiledBlock) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	idx := bc.slotIndex(b.GuestAddr)
	if bc.dispatch[idx].block == b {
		bc.dispatch[idx].block = nil
	}
}

// ClearBlocks fully resets the cache; only safe when no block is
// currently executing (spec.md §4.6).
func (bc *BlockCache) ClearBlocks() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for i := range bc.dispatch {
		bc.dispatch[i].block = nil
	}
	bc.byGuest = nil
	bc.byHost = nil
	bc.Stats.CacheClears++
}
