package core

import "log/slog"

// Config carries the tunables spec.md otherwise leaves as prose
// constants, so tests and cmd/sh4harness can select an interpreter-only,
// no-mmap configuration without editing source.
type Config struct {
	// MaxPages is the page-table size; each entry covers PageSize bytes
	// of guest address space. spec.md §1 specifies 2048 entries of 2 MiB
	// each, covering the 32-bit guest space's low 4 GiB... actually 2048
	// * 2MiB = 4 GiB exactly.
	MaxPages int
	// PageSize is the size in bytes each page-table entry covers.
	PageSize uint32
	// CodeRegionSize bounds the backend's code buffer; the block cache's
	// dispatch array is sized code_region_size>>1 per spec.md §3.
	CodeRegionSize int
	// Fastmem selects whether the address space reserves a host mmap
	// region and protects MMIO pages PROT_NONE (true), or falls back to
	// explicit bounds-checked dispatch on every access (false). When the
	// host region cannot be reserved (e.g. off Linux), NewAddressSpace
	// clears it with a warning so portable tests still run.
	Fastmem bool
	// MaxBlockInstrs bounds how many guest instructions the frontend
	// will decode into one block before emitting a synthetic terminator.
	MaxBlockInstrs int

	Log *slog.Logger
}

// DefaultConfig matches spec.md's stated shapes: 2048 pages of 2 MiB,
// a 2 MiB * 2048 = 4 GiB page table, fastmem on, blocks capped at the
// same default redream builds with (32 instructions).
func DefaultConfig() Config {
	return Config{
		MaxPages:       2048,
		PageSize:       2 * 1024 * 1024,
		CodeRegionSize: 16 * 1024 * 1024,
		Fastmem:        true,
		MaxBlockInstrs: 32,
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
