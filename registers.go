// registers.go - the SH4 on-chip register block (area 7, spec.md §6)
// and the store-queue MMIO handler. Both are core-owned: unlike the
// peripheral device models spec.md §1 excludes, these registers drive
// core behavior directly (interrupt priorities, block-cache flushes,
// the MMU-disabled invariant), so they live in this package rather than
// behind an external MMIOHandler.
package core

import "log/slog"

// On-chip register addresses within area 7. Real SH7750 addresses
// differ in detail; spec.md §6 notes offsets are implementation-defined
// as long as they're stable, so these are chosen to fit this core's
// simplified area7 window rather than copied from a datasheet.
const (
	regCCR     = 0x1f00001c
	regMMUCR   = 0x1f000010
	regINTEVT  = 0x1f000028
	regQACR0   = 0x1f000038
	regQACR1   = 0x1f00003c
	regPCTRA   = 0x1f80002c
	regPDTRA   = 0x1f800030
	regIPRA    = 0x1fd00004
	regIPRB    = 0x1fd00008
	regIPRC    = 0x1fd0000c
	regTSTR    = 0x1fd80004
	regTCOR0   = 0x1fd80008
	regTCNT0   = 0x1fd8000c
	regTCR0    = 0x1fd80010
	regTCOR1   = 0x1fd80014
	regTCNT1   = 0x1fd80018
	regTCR1    = 0x1fd8001c
	regTCOR2   = 0x1fd80020
	regTCNT2   = 0x1fd80024
	regTCR2    = 0x1fd80028
	regSAR2    = 0x1fa00020
	regDAR2    = 0x1fa00024
	regDMATCR2 = 0x1fa00028
	regCHCR2   = 0x1fa0002c
)

const ccrICIBit = 1 << 3 // instruction cache invalidate: on write, flush the block cache

// OnChipRegisters implements MMIOHandler for area 7.
type OnChipRegisters struct {
	log        *slog.Logger
	interrupts *Interrupts
	blockCache *BlockCache
	ctx        *SH4Context // set via SetContext once the owning CPU exists

	raw map[uint32]uint32 // fallback generic storage for registers not given explicit semantics

	ipra, iprb, iprc uint16
	pctra            uint32
	qacr0, qacr1     uint32
	intevt           uint32
	sar2, dar2       uint32
	dmatcr2          uint32
	chcr2            uint32
}

func newOnChipRegisters(log *slog.Logger, interrupts *Interrupts, blockCache *BlockCache) *OnChipRegisters {
	return &OnChipRegisters{log: log, interrupts: interrupts, blockCache: blockCache, raw: map[uint32]uint32{}}
}

// SetContext wires the owning CPU's context in, so MMUCR can halt it.
func (r *OnChipRegisters) SetContext(ctx *SH4Context) { r.ctx = ctx }

// LatchIntEvt records the INTEVT code for the interrupt the core just
// accepted, readable by the guest's exception handler at regINTEVT.
func (r *OnChipRegisters) LatchIntEvt(code uint32) { r.intevt = code }

// StoreQueueExternal returns the external address fields QACR0/1
// program, used by StoreQueue to know where a queue drain lands.
func (r *OnChipRegisters) StoreQueueExternal() (uint32, uint32) {
	return (r.qacr0 & 0x1c) << 24, (r.qacr1 & 0x1c) << 24
}

// CableType synthesizes the PDTRA cable-detect read value from the
// current PCTRA direction bits, mirroring the known BIOS probe sequence
// (spec.md §6).
func (r *OnChipRegisters) CableType() uint32 {
	switch r.pctra & 0xf {
	case 0x3:
		return 0 // VGA
	case 0xc:
		return 2 // composite/RGB
	default:
		return 3 // unknown/no cable
	}
}

func (r *OnChipRegisters) Read(addr, mask uint32) uint32 {
	switch addr &^ 0 {
	case regTSTR:
		return boolBits(r.interrupts.timers[0].Started, 0) | boolBits(r.interrupts.timers[1].Started, 1) | boolBits(r.interrupts.timers[2].Started, 2)
	case regTCOR0:
		return r.interrupts.timers[0].TCOR
	case regTCNT0:
		return r.interrupts.timers[0].TCNT
	case regTCR0:
		return uint32(r.interrupts.timers[0].TCR)
	case regTCOR1:
		return r.interrupts.timers[1].TCOR
	case regTCNT1:
		return r.interrupts.timers[1].TCNT
	case regTCR1:
		return uint32(r.interrupts.timers[1].TCR)
	case regTCOR2:
		return r.interrupts.timers[2].TCOR
	case regTCNT2:
		return r.interrupts.timers[2].TCNT
	case regTCR2:
		return uint32(r.interrupts.timers[2].TCR)
	case regIPRA:
		return uint32(r.ipra)
	case regIPRB:
		return uint32(r.iprb)
	case regIPRC:
		return uint32(r.iprc)
	case regPCTRA:
		return r.pctra
	case regPDTRA:
		return r.CableType()
	case regQACR0:
		return r.qacr0
	case regQACR1:
		return r.qacr1
	case regINTEVT:
		return r.intevt
	case regSAR2:
		return r.sar2
	case regDAR2:
		return r.dar2
	case regDMATCR2:
		return r.dmatcr2
	case regCHCR2:
		return r.chcr2
	case regMMUCR:
		return 0
	case regCCR:
		return r.raw[addr]
	default:
		return r.raw[addr]
	}
}

func (r *OnChipRegisters) Write(addr, data, mask uint32) {
	switch addr {
	case regCCR:
		r.raw[addr] = data
		if data&ccrICIBit != 0 && r.blockCache != nil {
			r.blockCache.ClearBlocks()
		}
		return
	case regMMUCR:
		if data != 0 && r.ctx != nil {
			r.log.Error("guest enabled the MMU, which this core does not implement", "mmucr", data)
			haltCPU(r.ctx, "MMUCR write with MMU enable bit set")
		}
		return
	case regTSTR:
		r.interrupts.timers[0].Started = data&1 != 0
		r.interrupts.timers[1].Started = data&2 != 0
		r.interrupts.timers[2].Started = data&4 != 0
		return
	case regTCOR0:
		r.interrupts.timers[0].TCOR = data
		return
	case regTCNT0:
		r.interrupts.timers[0].TCNT = data
		return
	case regTCR0:
		r.interrupts.timers[0].TCR = uint16(data)
		return
	case regTCOR1:
		r.interrupts.timers[1].TCOR = data
		return
	case regTCNT1:
		r.interrupts.timers[1].TCNT = data
		return
	case regTCR1:
		r.interrupts.timers[1].TCR = uint16(data)
		return
	case regTCOR2:
		r.interrupts.timers[2].TCOR = data
		return
	case regTCNT2:
		r.interrupts.timers[2].TCNT = data
		return
	case regTCR2:
		r.interrupts.timers[2].TCR = uint16(data)
		return
	case regIPRA:
		r.ipra = uint16(data)
		r.interrupts.SetIPR(srcTMU0, int((data>>12)&0xf))
		r.interrupts.SetIPR(srcTMU1, int((data>>8)&0xf))
		r.interrupts.SetIPR(srcTMU2, int((data>>4)&0xf))
		return
	case regIPRB:
		r.iprb = uint16(data)
		r.interrupts.SetIPR(srcSCI, int((data>>12)&0xf))
		return
	case regIPRC:
		r.iprc = uint16(data)
		r.interrupts.SetIPR(srcRTC, int((data>>12)&0xf))
		r.interrupts.SetIPR(srcWDT, int((data>>8)&0xf))
		return
	case regPCTRA:
		r.pctra = data
		return
	case regPDTRA:
		return // read-only cable detect in this model
	case regQACR0:
		r.qacr0 = data
		return
	case regQACR1:
		r.qacr1 = data
		return
	case regINTEVT:
		r.intevt = data
		return
	case regSAR2:
		r.sar2 = data
		return
	case regDAR2:
		r.dar2 = data
		return
	case regDMATCR2:
		r.dmatcr2 = data
		return
	case regCHCR2:
		r.chcr2 = data
		return
	default:
		r.raw[addr] = data
	}
}

func boolBits(v bool, bit uint) uint32 {
	if v {
		return 1 << bit
	}
	return 0
}

// haltCPU is the single funnel every internally-fatal condition goes
// through (spec.md §7's "(added)" note): it never panics or exits the
// process, since this core is an embeddable library, not a standalone
// program.
func haltCPU(ctx *SH4Context, reason string) {
	if ctx.Log != nil {
		ctx.Log.Error("cpu halted", "reason", reason, "pc", ctx.PC)
	}
	ctx.PC = SentinelStopPC
}

// StoreQueue implements the P4 store-queue MMIO range (0xe0000000-
// 0xe3ffffff): writes accumulate into one of two 8-word queues; Write
// only stores the word, and Drain bursts a queue out to the external
// address QACR{0,1} programs, into the address space the queue's owner
// exposes via SetSink.
type StoreQueue struct {
	onChip *OnChipRegisters
	queues [2][8]uint32
	sink   func(addr uint32, words [8]uint32)
}

func newStoreQueue(onChip *OnChipRegisters) *StoreQueue {
	return &StoreQueue{onChip: onChip}
}

// SetSink installs the callback invoked when a queue drains; normally
// this writes the 8 words into guest RAM/VRAM via the owning CPU's
// AddressSpace.
func (sq *StoreQueue) SetSink(fn func(addr uint32, words [8]uint32)) { sq.sink = fn }

func (sq *StoreQueue) Read(addr, mask uint32) uint32 {
	idx := (addr >> 5) & 1
	word := (addr >> 2) & 7
	return sq.queues[idx][word]
}

func (sq *StoreQueue) Write(addr, data, mask uint32) {
	idx := (addr >> 5) & 1
	word := (addr >> 2) & 7
	sq.queues[idx][word] = data
}

// Drain flushes queue idx to its programmed external address. The
// frontend does not translate PREF, so nothing in this module calls it.
func (sq *StoreQueue) Drain(idx int, sourceAddr uint32) {
	if sq.sink == nil {
		return
	}
	qacr0, qacr1 := sq.onChip.StoreQueueExternal()
	base := qacr0
	if idx == 1 {
		base = qacr1
	}
	dest := base | (sourceAddr & 0x03ffffe0)
	sq.sink(dest, sq.queues[idx])
}
