// interrupts.go - the 64 sorted SH4 interrupt sources, their priority
// bitmasks, and the three-channel TMU countdown that is their most
// common source in practice. spec.md §4.7.
package core

import "sort"

// InterruptSource is one of the 64 fixed interrupt sources. Priority
// ranges 0-15 (0 = never fires); priority is recomputed from IPRA/B/C on
// every write to those registers.
type InterruptSource struct {
	ID       int
	Name     string
	IntEvt   uint32 // INTEVT code latched on acceptance
	priority int
}

// Interrupts tracks every source's current priority, keeps them sorted
// into a bit-position table, and answers "what's pending" against the
// running SR.IMASK.
type Interrupts struct {
	sources []InterruptSource // fixed 64 entries, by ID

	sortedByPriority []int // sources[sortedByPriority[bit]] owns bit `bit`; higher bit = higher priority
	priorityMask     [16]uint64

	requested uint64 // bitmask in sortedByPriority bit positions

	timers [3]Timer
}

// Timer models one TMU channel: TCNT counts down from TCOR at the
// peripheral clock (cycles>>2 per spec.md §4.7); on underflow it reloads
// from TCOR and, if TCR's UNIE bit is set, requests its interrupt.
type Timer struct {
	TCNT, TCOR uint32
	TCR        uint16 // bit 8 = UNF (underflow flag), bit 5 = UNIE
	Started    bool
	sourceID   int
}

const (
	tcrUNF  = 1 << 8
	tcrUNIE = 1 << 5
)

// NewInterrupts builds the fixed 64-source table with the canonical SH4
// priority defaults (TMU0-2, then the rest); IPRA/B/C writes reorder
// bit positions via Recompute, they never change the source table
// itself.
func NewInterrupts() *Interrupts {
	ir := &Interrupts{}
	ir.sources = defaultSH4Sources()
	ir.timers[0].sourceID = srcTMU0
	ir.timers[1].sourceID = srcTMU1
	ir.timers[2].sourceID = srcTMU2
	ir.Recompute(0)
	return ir
}

// Request raises source id's request line.
func (ir *Interrupts) Request(id int) {
	bit := ir.bitFor(id)
	if bit >= 0 {
		ir.requested |= 1 << uint(bit)
	}
}

// Unrequest lowers source id's request line.
func (ir *Interrupts) Unrequest(id int) {
	bit := ir.bitFor(id)
	if bit >= 0 {
		ir.requested &^= 1 << uint(bit)
	}
}

func (ir *Interrupts) bitFor(id int) int {
	for bit, sid := range ir.sortedByPriority {
		if sid == id {
			return bit
		}
	}
	return -1
}

// Pending returns the bitmask of sources requested and not masked by
// sr's IMASK, empty whenever SR.BL is set (spec.md §4.7).
func (ir *Interrupts) Pending(sr uint32) uint64 {
	if sr&(1<<srBitBL) != 0 {
		return 0
	}
	imask := (sr & srMaskIMASK) >> srBitIMASK
	return ir.requested &^ ir.priorityMask[imask]
}

// Highest returns the source ID of the highest-priority pending
// interrupt and true, or (0,false) if none is pending. Ties (equal
// priority) are broken in favor of the lower source index, per spec.md
// §8 scenario 6.
func (ir *Interrupts) Highest(sr uint32) (InterruptSource, bool) {
	pending := ir.Pending(sr)
	if pending == 0 {
		return InterruptSource{}, false
	}
	bestBit := -1
	for bit := 63; bit >= 0; bit-- {
		if pending&(1<<uint(bit)) == 0 {
			continue
		}
		if bestBit == -1 {
			bestBit = bit
			continue
		}
		// equal priority: compare source ids, lower wins
		if ir.sources[ir.sortedByPriority[bit]].priority == ir.sources[ir.sortedByPriority[bestBit]].priority {
			if ir.sortedByPriority[bit] < ir.sortedByPriority[bestBit] {
				bestBit = bit
			}
		}
	}
	return ir.sources[ir.sortedByPriority[bestBit]], true
}

// Recompute resorts the 64 sources by current priority into
// sortedByPriority (bit N = sortedByPriority[N]) and rebuilds
// priorityMask. Called whenever SR or IPRA/B/C changes; sr is passed
// through unused today but kept for parity with spec.md's "on any write
// to SR or IPRA/B/C, sources are resorted" wording (SR itself doesn't
// change priorities, only IMASK interpretation, which Pending handles).
func (ir *Interrupts) Recompute(sr uint32) {
	order := make([]int, len(ir.sources))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		// Stable sort ascending by priority; bit N is order[N], so equal
		// priorities occupy adjacent bits in ascending ID order. Highest
		// breaks ties by comparing IDs explicitly ("lower id wins"), so
		// this ordering only needs to group equal priorities together.
		return ir.sources[order[i]].priority < ir.sources[order[j]].priority
	})
	ir.sortedByPriority = order

	var masks [16]uint64
	for bit, sid := range order {
		p := ir.sources[sid].priority
		for level := 0; level <= 15; level++ {
			if p <= level {
				masks[level] |= 1 << uint(bit)
			}
		}
	}
	ir.priorityMask = masks
}

// SetIPR updates one source's priority (from an IPRA/B/C field write)
// and resorts.
func (ir *Interrupts) SetIPR(id int, priority int) {
	ir.sources[id].priority = priority
	ir.Recompute(0)
}

// RunTimers advances all three TMU channels by cycles>>2 peripheral
// ticks, reloading from TCOR and requesting TUNI0-2 on underflow when
// UNIE is set (spec.md §4.7's "(added) TMU detail").
func (ir *Interrupts) RunTimers(cycles int) {
	ticks := uint32(cycles >> 2)
	if ticks == 0 {
		return
	}
	for i := range ir.timers {
		t := &ir.timers[i]
		if !t.Started {
			continue
		}
		if uint64(t.TCNT) >= uint64(ticks) {
			t.TCNT -= ticks
			continue
		}
		remaining := uint64(ticks) - uint64(t.TCNT)
		t.TCNT = 0
		t.TCR |= tcrUNF
		if t.TCR&tcrUNIE != 0 {
			ir.Request(t.sourceID)
		}
		if t.TCOR == 0 {
			continue
		}
		// reload and continue consuming any remaining ticks across
		// further underflows, matching a free-running down-counter
		for remaining > 0 {
			if remaining < uint64(t.TCOR)+1 {
				t.TCNT = t.TCOR - uint32(remaining)
				break
			}
			remaining -= uint64(t.TCOR) + 1
			t.TCR |= tcrUNF
			if t.TCR&tcrUNIE != 0 {
				ir.Request(t.sourceID)
			}
		}
	}
}

// Known source IDs (subset; the remaining slots up to 64 are reserved
// for peripherals this core doesn't own, e.g. GD-ROM or maple DMA
// completion, which an embedder requests via the public Request API).
const (
	srcTMU0 = iota
	srcTMU1
	srcTMU2
	srcRTC
	srcSCI
	srcWDT
	srcRefresh
	numKnownSources
)

func defaultSH4Sources() []InterruptSource {
	const total = 64
	srcs := make([]InterruptSource, total)
	names := map[int]struct {
		name   string
		intevt uint32
	}{
		srcTMU0:    {"TUNI0", 0x400},
		srcTMU1:    {"TUNI1", 0x420},
		srcTMU2:    {"TUNI2", 0x440},
		srcRTC:     {"RTC", 0x480},
		srcSCI:     {"SCI", 0x4a0},
		srcWDT:     {"WDT", 0x560},
		srcRefresh: {"REF", 0x580},
	}
	for i := 0; i < total; i++ {
		if meta, ok := names[i]; ok {
			srcs[i] = InterruptSource{ID: i, Name: meta.name, IntEvt: meta.intevt}
		} else {
			srcs[i] = InterruptSource{ID: i, Name: "RESERVED", IntEvt: 0}
		}
	}
	return srcs
}
