// addrspace.go - a guest address space: page table plus (optionally) a
// host fastmem region, tying pageEntry lookups to either a direct
// pointer or an MMIO handler's Read/Write. spec.md §4.1.
package core

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/sh4jit/core/internal/fastmem"
)

// Backing is a shared-memory object a range of guest pages can be
// mapped from; several guest ranges mapping the same Backing at the
// same offset observe each other's writes (the "mirror" requirement of
// spec.md §6).
type Backing struct {
	obj fastmem.SharedBacking
}

// AllocBacking reserves a size-byte shared-memory-object-backed buffer
// (RAM, VRAM or ARAM's physical storage).
func AllocBacking(size uint32) (*Backing, error) {
	obj, err := fastmem.NewSharedBacking(uintptr(size))
	if err != nil {
		return nil, err
	}
	return &Backing{obj: obj}, nil
}

func (b *Backing) Bytes() []byte { return b.obj.Bytes() }
func (b *Backing) Close() error  { return b.obj.Close() }

// AddressSpace is one guest CPU's view of memory: a page table plus,
// when fastmem is enabled, the host VA reservation fastmem page
// protection operates on.
type AddressSpace struct {
	cfg    Config
	pt     *PageTable
	region fastmem.Region // nil when cfg.Fastmem is false
	log    *slog.Logger

	backings []*Backing // kept alive for the lifetime of the address space
}

// NewAddressSpace reserves the host VA region (if fastmem is enabled)
// and returns an address space with every page unmapped (lookups on an
// unmapped page are treated as MMIO returning zero/ignoring writes,
// matching spec.md §7's "invalid MMIO" handling).
func NewAddressSpace(cfg Config, log *slog.Logger) (*AddressSpace, error) {
	as := &AddressSpace{cfg: cfg, pt: newPageTable(cfg), log: log}
	if cfg.Fastmem {
		size := uintptr(cfg.MaxPages) * uintptr(cfg.PageSize)
		region, err := fastmem.NewRegion(size)
		if err != nil {
			as.log.Warn("fastmem unavailable, falling back to slowmem", "err", err)
			as.cfg.Fastmem = false
		} else {
			as.region = region
		}
	}
	return as, nil
}

func (as *AddressSpace) Close() error {
	var firstErr error
	if as.region != nil {
		if err := as.region.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, b := range as.backings {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Base returns the host pointer guest address 0 maps to, for compiled
// fastmem code to add the guest address onto. Returns 0 when fastmem is
// disabled; the backend must check this and compile slowmem accesses
// instead (BF_SLOWMEM is forced block-wide in that configuration).
func (as *AddressSpace) Base() uintptr {
	if as.region == nil {
		return 0
	}
	return as.region.Base()
}

func (as *AddressSpace) FastmemEnabled() bool { return as.cfg.Fastmem }

// MapRange installs begin..begin+size as kind, backed by backing at
// backingOffset (ignored for PageMMIO). begin and size must be
// page-aligned.
func (as *AddressSpace) MapRange(begin, size uint32, kind PageKind, backing *Backing, backingOffset uint32) error {
	first, last, err := as.pt.pagesFor(begin, size)
	if err != nil {
		return err
	}
	if kind == PageMMIO {
		return fmt.Errorf("MapRange: PageMMIO requires MapMMIO (needs a handler)")
	}
	if backing == nil {
		return fmt.Errorf("MapRange: %s range requires a backing", kind)
	}
	pageSize := as.cfg.PageSize
	for i, idx := 0, first; idx <= last; i, idx = i+1, idx+1 {
		off := backingOffset + uint32(i)*pageSize
		if uint64(off)+uint64(pageSize) > uint64(len(backing.Bytes())) {
			return fmt.Errorf("MapRange: backing too small for page %d of range [%#x,+%#x)", i, begin, size)
		}
		page := backing.Bytes()[off : off+pageSize]
		as.pt.setRAMPage(idx, kind, page)
		if as.region != nil {
			guestOff := uintptr(begin) + uintptr(i)*uintptr(pageSize)
			if err := as.region.MapShared(backing.obj.Fd(), int64(off), guestOff, uintptr(pageSize), fastmem.ProtRead|fastmem.ProtWrite); err != nil {
				return err
			}
		}
	}
	as.rememberBacking(backing)
	return nil
}

func (as *AddressSpace) rememberBacking(b *Backing) {
	for _, existing := range as.backings {
		if existing == b {
			return
		}
	}
	as.backings = append(as.backings, b)
}

// MapMMIO installs begin..begin+size as an MMIO range dispatching to
// handler. In fastmem builds the range is PROT_NONE, so any direct
// access from compiled fastmem code faults and is routed through the
// fault handler (spec.md §4.2).
func (as *AddressSpace) MapMMIO(begin, size uint32, handler MMIOHandler) error {
	first, last, err := as.pt.pagesFor(begin, size)
	if err != nil {
		return err
	}
	for idx := first; idx <= last; idx++ {
		as.pt.setMMIOPage(idx, handler)
	}
	if as.region != nil {
		if err := as.region.Protect(uintptr(begin), uintptr(size), fastmem.ProtNone); err != nil {
			return err
		}
	}
	return nil
}

func (as *AddressSpace) Read8(addr uint32) uint8 {
	e, err := as.pt.lookup(addr)
	if err != nil {
		as.log.Warn("read8 out of range", "addr", fmt.Sprintf("%#08x", addr))
		return 0
	}
	if e.ptr != nil {
		return e.ptr[as.pt.pageOffset(addr)]
	}
	if e.handler != nil {
		return uint8(e.handler.Read(addr, 0xff))
	}
	return 0
}

func (as *AddressSpace) Write8(addr uint32, v uint8) {
	e, err := as.pt.lookup(addr)
	if err != nil {
		as.log.Warn("write8 out of range", "addr", fmt.Sprintf("%#08x", addr))
		return
	}
	if e.ptr != nil {
		e.ptr[as.pt.pageOffset(addr)] = v
		return
	}
	if e.handler != nil {
		e.handler.Write(addr, uint32(v), 0xff)
	}
}

func (as *AddressSpace) Read16(addr uint32) uint16 {
	e, err := as.pt.lookup(addr)
	if err != nil {
		return 0
	}
	if e.ptr != nil {
		off := as.pt.pageOffset(addr)
		if off+1 < uint32(len(e.ptr)) {
			return binary.LittleEndian.Uint16(e.ptr[off:])
		}
		// unaligned access crossing a page boundary: best-effort byte loop (spec.md §7)
		return uint16(as.Read8(addr)) | uint16(as.Read8(addr+1))<<8
	}
	if e.handler != nil {
		return uint16(e.handler.Read(addr, 0xffff))
	}
	return 0
}

func (as *AddressSpace) Write16(addr uint32, v uint16) {
	e, err := as.pt.lookup(addr)
	if err != nil {
		return
	}
	if e.ptr != nil {
		off := as.pt.pageOffset(addr)
		if off+1 < uint32(len(e.ptr)) {
			binary.LittleEndian.PutUint16(e.ptr[off:], v)
			return
		}
		as.Write8(addr, uint8(v))
		as.Write8(addr+1, uint8(v>>8))
		return
	}
	if e.handler != nil {
		e.handler.Write(addr, uint32(v), 0xffff)
	}
}

func (as *AddressSpace) Read32(addr uint32) uint32 {
	e, err := as.pt.lookup(addr)
	if err != nil {
		return 0
	}
	if e.ptr != nil {
		off := as.pt.pageOffset(addr)
		if off+3 < uint32(len(e.ptr)) {
			return binary.LittleEndian.Uint32(e.ptr[off:])
		}
		var v uint32
		for i := uint32(0); i < 4; i++ {
			v |= uint32(as.Read8(addr+i)) << (8 * i)
		}
		return v
	}
	if e.handler != nil {
		return e.handler.Read(addr, 0xffffffff)
	}
	return 0
}

func (as *AddressSpace) Write32(addr uint32, v uint32) {
	e, err := as.pt.lookup(addr)
	if err != nil {
		return
	}
	if e.ptr != nil {
		off := as.pt.pageOffset(addr)
		if off+3 < uint32(len(e.ptr)) {
			binary.LittleEndian.PutUint32(e.ptr[off:], v)
			return
		}
		for i := uint32(0); i < 4; i++ {
			as.Write8(addr+i, uint8(v>>(8*i)))
		}
		return
	}
	if e.handler != nil {
		e.handler.Write(addr, v, 0xffffffff)
	}
}

func (as *AddressSpace) Read64(addr uint32) uint64 {
	lo := uint64(as.Read32(addr))
	hi := uint64(as.Read32(addr + 4))
	return lo | hi<<32
}

func (as *AddressSpace) Write64(addr uint32, v uint64) {
	as.Write32(addr, uint32(v))
	as.Write32(addr+4, uint32(v>>32))
}

// MemcpyToGuest copies from a host slice into the guest address space,
// dispatching per page and falling back to a byte loop across MMIO
// boundaries.
func (as *AddressSpace) MemcpyToGuest(dstAddr uint32, src []byte) {
	for i, b := range src {
		as.Write8(dstAddr+uint32(i), b)
	}
}

// MemcpyToHost copies from the guest address space into a host slice.
func (as *AddressSpace) MemcpyToHost(dst []byte, srcAddr uint32) {
	for i := range dst {
		dst[i] = as.Read8(srcAddr + uint32(i))
	}
}

// MemcpyGuestToGuest copies within the guest address space.
func (as *AddressSpace) MemcpyGuestToGuest(dstAddr, srcAddr uint32, n uint32) {
	// Byte-wise to stay correct across overlapping/MMIO ranges; this is
	// not a hot path (spec.md characterizes DDT, not general copies, as
	// the performance-sensitive bulk-transfer case, and DDT uses its own
	// loop in dma.go).
	if dstAddr == srcAddr {
		return
	}
	if dstAddr < srcAddr {
		for i := uint32(0); i < n; i++ {
			as.Write8(dstAddr+i, as.Read8(srcAddr+i))
		}
	} else {
		for i := n; i > 0; i-- {
			as.Write8(dstAddr+i-1, as.Read8(srcAddr+i-1))
		}
	}
}
