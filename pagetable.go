// pagetable.go - the single-level page table backing one guest address
// space (SH4 or ARM7). Each entry covers Config.PageSize bytes and is
// either a direct host pointer or an MMIO callback pair; slots are
// immutable after MapRange for this core (the guest OS never enables
// its MMU, per spec.md's Non-goals).
package core

import "fmt"

// PageKind selects how MapRange backs a range of guest addresses.
type PageKind int

const (
	PageRAM PageKind = iota
	PageVRAM
	PageARAM
	PageMMIO
)

func (k PageKind) String() string {
	switch k {
	case PageRAM:
		return "RAM"
	case PageVRAM:
		return "VRAM"
	case PageARAM:
		return "ARAM"
	case PageMMIO:
		return "MMIO"
	default:
		return "?"
	}
}

// MMIOHandler is the interface every peripheral device model presents
// to the core, per spec.md §1's "deliberately out of scope" collaborator
// contract: a read returning the masked value and a write receiving the
// masked data.
type MMIOHandler interface {
	Read(addr uint32, mask uint32) uint32
	Write(addr uint32, data uint32, mask uint32)
}

// pageEntry is one page-table slot. kind and either ptr or handler are
// set by MapRange; ptr is nil for MMIO pages.
type pageEntry struct {
	kind    PageKind
	ptr     []byte // len == Config.PageSize, nil for MMIO pages
	handler MMIOHandler
}

// PageTable is the fixed MaxPages-entry table for one address space.
type PageTable struct {
	pageSize uint32
	entries  []pageEntry
}

func newPageTable(cfg Config) *PageTable {
	return &PageTable{
		pageSize: cfg.PageSize,
		entries:  make([]pageEntry, cfg.MaxPages),
	}
}

func (pt *PageTable) pageIndex(addr uint32) int {
	return int(addr / pt.pageSize)
}

func (pt *PageTable) pageOffset(addr uint32) uint32 {
	return addr % pt.pageSize
}

// lookup returns the entry covering addr, or an error if addr falls
// outside the table.
func (pt *PageTable) lookup(addr uint32) (*pageEntry, error) {
	idx := pt.pageIndex(addr)
	if idx < 0 || idx >= len(pt.entries) {
		return nil, fmt.Errorf("pagetable: address %#08x out of range", addr)
	}
	return &pt.entries[idx], nil
}

// setRAMPage installs a direct host-backed page. backing must be
// exactly pageSize bytes.
func (pt *PageTable) setRAMPage(idx int, kind PageKind, backing []byte) {
	pt.entries[idx] = pageEntry{kind: kind, ptr: backing}
}

// setMMIOPage installs a callback page.
func (pt *PageTable) setMMIOPage(idx int, handler MMIOHandler) {
	pt.entries[idx] = pageEntry{kind: PageMMIO, handler: handler}
}

// pagesFor returns [firstPage, lastPage] (inclusive) covering [begin,begin+size).
func (pt *PageTable) pagesFor(begin, size uint32) (int, int, error) {
	if pt.pageSize == 0 {
		return 0, 0, fmt.Errorf("pagetable: page size not initialized")
	}
	if begin%pt.pageSize != 0 || size%pt.pageSize != 0 {
		return 0, 0, fmt.Errorf("pagetable: range [%#x,+%#x) is not page-aligned (page size %#x)", begin, size, pt.pageSize)
	}
	first := pt.pageIndex(begin)
	last := pt.pageIndex(begin+size-1)
	if first < 0 || last >= len(pt.entries) {
		return 0, 0, fmt.Errorf("pagetable: range [%#x,+%#x) out of table bounds", begin, size)
	}
	return first, last, nil
}
