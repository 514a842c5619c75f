// dma.go - the minimal DDT (direct data transfer) entry point, spec.md
// §4.7/§6: a channel-2 byte-wise transfer serviced while the CPU is
// paused, driven by an external device (the tile accelerator, per
// spec.md's glossary) through the core's public DDT method.
package core

// DDTDirection selects which way a DDT transfer moves bytes.
type DDTDirection int

const (
	DDTRead  DDTDirection = iota // device reads from guest memory at addr
	DDTWrite                     // device writes to guest memory at addr
)

// DDT services one direct-data-transfer burst on channel 2: dir
// determines whether bytes move from guest memory into buf (DDTRead) or
// from buf into guest memory (DDTWrite), starting at addr. Length is
// len(buf). This does not touch SAR2/DAR2/DMATCR2/CHCR2 -- those are
// read/write as ordinary on-chip registers; an external device model
// (holly, out of this core's scope) decides when and how much to
// transfer and calls DDT accordingly.
func (cpu *CPU) DDT(channel int, dir DDTDirection, addr uint32, buf []byte) {
	if channel != 2 {
		cpu.log.Warn("DDT on unsupported channel", "channel", channel)
		return
	}
	switch dir {
	case DDTRead:
		cpu.Mem.AS.MemcpyToHost(buf, addr)
	case DDTWrite:
		cpu.Mem.AS.MemcpyToGuest(addr, buf)
		// a DDT write into RAM can overwrite compiled code; invalidate
		// the whole transferred range, not just its first word
		cpu.BlockCache.RemoveBlocksOverlapping(addr, uint32(len(buf)))
	}
}
