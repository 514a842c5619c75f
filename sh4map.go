// sh4map.go - the SH4 guest memory map of spec.md §4.1/§6: area
// boundaries, the P0-P4 mirror set, and the compressed on-chip-register
// addressing formula.
package core

import "log/slog"

// Area boundaries within the masked 29-bit physical range.
const (
	Area0Begin = 0x00000000
	Area0End   = 0x01ffffff // BIOS/flash/registers MMIO, except the AICA RAM hole below
	AramBegin  = 0x00800000
	AramEnd    = 0x009fffff // AICA audio RAM, inside area 0
	Area1Begin = 0x04000000
	Area1End   = 0x07ffffff // VRAM, dispatched via an MMIO handler
	Area3Begin = 0x0c000000
	Area3End   = 0x0fffffff // main RAM, 4x 16 MiB mirrors within this range
	Area4Begin = 0x10000000
	Area4End   = 0x13ffffff // TA FIFO, write-string only
	Area7Begin = 0x1c000000
	Area7End   = 0x1fffffff // SH4 on-chip registers
)

// addrMask29 masks a guest address down to its physical (area 0-7)
// address; P0-P3 are all simple repeats of the same 29-bit physical
// space at 0x20000000 boundaries, matching spec.md §8's mirror property
// for offsets 0, 0x20000000, ... 0xa0000000 (and, by the same rule,
// 0xc0000000 for P3).
const addrMask29 uint32 = 0x1fffffff

// mirrorOffsets enumerates every guest base this core installs the
// area0-7 map at. P4 (0xe0000000+) is handled separately: most of it
// aliases the same physical space too ("the regions between P4 internal
// areas alias the external address space", spec.md §4.1), but its
// store-queue and cache-control sub-areas are P4-exclusive and are
// mapped once, not mirrored.
var mirrorOffsets = [...]uint32{0x00000000, 0x20000000, 0x40000000, 0x60000000, 0x80000000, 0xa0000000, 0xc0000000}

const (
	StoreQueueBegin = 0xe0000000
	StoreQueueEnd   = 0xe3ffffff
	P4ControlBegin  = 0xf0000000 // icache/operand-cache/TLB/utility-cache address windows
	P4ControlEnd    = 0xffffffff
)

// OnChipRegOffset computes the compressed on-chip-register addressing
// formula of spec.md §6, mapping a 0x1c000000-0x1fffffff address into a
// small dense index. OnChipRegisters does not use it: it keys its
// storage by full address.
func OnChipRegOffset(addr uint32) uint32 {
	return ((addr & 0x01fe0000) >> 11) | ((addr & 0xfc) >> 2)
}

// SH4Handlers bundles the externally-supplied (out-of-core, per spec.md
// §1) MMIO handlers this map wires in.
type SH4Handlers struct {
	// Area0 serves BIOS/flash/holly registers outside the AICA RAM hole.
	Area0 MMIOHandler
	// Area1 serves VRAM accesses (spec.md lists VRAM itself as MMIO,
	// "dispatched via area 0 handler" in the original, modeled here as
	// its own handler for clarity).
	Area1 MMIOHandler
	// Area4 serves the tile-accelerator FIFO (write-string only; reads
	// are not meaningful on real hardware and this handler may ignore
	// them).
	Area4 MMIOHandler
}

// SH4Memory owns the SH4 address space plus the RAM/ARAM backings and
// the core-owned handlers (on-chip registers, store queue) installed
// into it.
type SH4Memory struct {
	AS       *AddressSpace
	RAM      *Backing
	ARAM     *Backing
	OnChip   *OnChipRegisters
	SQ       *StoreQueue
	bytesRAM uint32
	bytesARAM uint32
}

const (
	ramSize  = 16 * 1024 * 1024
	aramSize = AramEnd - AramBegin + 1
)

// NewSH4Memory builds the complete SH4 address space: RAM and ARAM
// backings, every area0-7 mirror, the on-chip register block and the
// store queue, wiring ext into the area0/area1/area4 MMIO ranges.
func NewSH4Memory(cfg Config, log *slog.Logger, ext SH4Handlers, interrupts *Interrupts, blockCache *BlockCache) (*SH4Memory, error) {
	as, err := NewAddressSpace(cfg, log)
	if err != nil {
		return nil, err
	}
	ram, err := AllocBacking(ramSize)
	if err != nil {
		return nil, err
	}
	aram, err := AllocBacking(aramSize)
	if err != nil {
		return nil, err
	}

	onChip := newOnChipRegisters(log, interrupts, blockCache)
	sq := newStoreQueue(onChip)

	m := &SH4Memory{AS: as, RAM: ram, ARAM: aram, OnChip: onChip, SQ: sq, bytesRAM: ramSize, bytesARAM: aramSize}

	for _, mirror := range mirrorOffsets {
		if err := m.installArea0(mirror, ext); err != nil {
			return nil, err
		}
		if ext.Area1 != nil {
			if err := as.MapMMIO(mirror+Area1Begin, Area1End-Area1Begin+1, ext.Area1); err != nil {
				return nil, err
			}
		}
		if err := m.installRAMMirrors(mirror); err != nil {
			return nil, err
		}
		if ext.Area4 != nil {
			if err := as.MapMMIO(mirror+Area4Begin, Area4End-Area4Begin+1, ext.Area4); err != nil {
				return nil, err
			}
		}
		if err := as.MapMMIO(mirror+Area7Begin, Area7End-Area7Begin+1, onChip); err != nil {
			return nil, err
		}
	}

	if err := as.MapMMIO(StoreQueueBegin, StoreQueueEnd-StoreQueueBegin+1, sq); err != nil {
		return nil, err
	}
	if err := as.MapMMIO(P4ControlBegin, uint32(P4ControlEnd-P4ControlBegin+1), noopMMIO{}); err != nil {
		return nil, err
	}

	return m, nil
}

// installArea0 splits area 0 into the AICA RAM hole (ARAM, direct) and
// the rest (MMIO via ext.Area0).
func (m *SH4Memory) installArea0(mirror uint32, ext SH4Handlers) error {
	if ext.Area0 != nil {
		if err := m.AS.MapMMIO(mirror+Area0Begin, AramBegin-Area0Begin, ext.Area0); err != nil {
			return err
		}
		if err := m.AS.MapMMIO(mirror+AramEnd+1, Area0End-AramEnd, ext.Area0); err != nil {
			return err
		}
	}
	return m.AS.MapRange(mirror+AramBegin, aramSize, PageARAM, m.ARAM, 0)
}

// installRAMMirrors installs the four 16 MiB mirrors of main RAM within
// one P-region's area 3 window.
func (m *SH4Memory) installRAMMirrors(mirror uint32) error {
	const windowMirrors = (Area3End - Area3Begin + 1) / ramSize
	for i := uint32(0); i < windowMirrors; i++ {
		begin := mirror + Area3Begin + i*ramSize
		if err := m.AS.MapRange(begin, ramSize, PageRAM, m.RAM, 0); err != nil {
			return err
		}
	}
	return nil
}

func (m *SH4Memory) Close() error {
	err := m.AS.Close()
	if e := m.RAM.Close(); err == nil {
		err = e
	}
	if e := m.ARAM.Close(); err == nil {
		err = e
	}
	return err
}

type noopMMIO struct{}

func (noopMMIO) Read(addr, mask uint32) uint32   { return 0 }
func (noopMMIO) Write(addr, data, mask uint32)    {}
