//go:build !linux

package fastmem

import "errors"

func pageSize() uintptr { return 4096 }

// NewRegion is unavailable off Linux; callers fall back to
// Config.Fastmem=false (a plain Go byte slice with MMIO resolved by
// explicit bounds checks rather than a protection fault).
func NewRegion(size uintptr) (Region, error) {
	return nil, errors.New("fastmem: mmap-backed regions are only implemented on linux")
}

type sliceBacking struct{ data []byte }

// NewSharedBacking falls back to a plain heap slice: mirroring is still
// correct (every page-table slot for a mirrored range points at the same
// underlying slice), it just isn't backed by a kernel shared-memory
// object, which only matters if a second process needs to observe it.
func NewSharedBacking(size uintptr) (SharedBacking, error) {
	return &sliceBacking{data: make([]byte, size)}, nil
}

func (s *sliceBacking) Fd() uintptr   { return 0 }
func (s *sliceBacking) Size() uintptr { return uintptr(len(s.data)) }
func (s *sliceBacking) Bytes() []byte { return s.data }
func (s *sliceBacking) Close() error  { return nil }
