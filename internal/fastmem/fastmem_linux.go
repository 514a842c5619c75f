//go:build linux

package fastmem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func pageSize() uintptr {
	return uintptr(unix.Getpagesize())
}

// mmapRegion backs a Region with a single anonymous mmap reservation,
// mirroring the "host 4 GiB virtual region... mmap-backed by a
// shared-memory object" design of spec.md §2. The shared-memory-object
// aspect (so RAM/VRAM/ARAM appear identically at every guest mirror) is
// layered on top by the core package, which maps the same underlying
// file descriptor's pages at each mirror's page-table offset; this type
// only owns the reservation and its protection bits.
type mmapRegion struct {
	base uintptr
	size uintptr
	data []byte
}

// NewRegion reserves size bytes of host virtual address space, entirely
// PROT_NONE until the caller calls Protect on the sub-ranges it wants to
// use. size is rounded up to the host page size.
func NewRegion(size uintptr) (Region, error) {
	size = AlignUp(size, pageSize())
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("fastmem: reserve %d bytes: %w", size, err)
	}
	return &mmapRegion{
		base: uintptr(unsafe.Pointer(&data[0])),
		size: size,
		data: data,
	}, nil
}

func (r *mmapRegion) Base() uintptr { return r.base }
func (r *mmapRegion) Size() uintptr { return r.size }

func (r *mmapRegion) Protect(offset, length uintptr, prot Prot) error {
	if offset+length > r.size {
		return fmt.Errorf("fastmem: protect range [%#x,%#x) exceeds region size %#x", offset, offset+length, r.size)
	}
	var native int
	if prot&ProtRead != 0 {
		native |= unix.PROT_READ
	}
	if prot&ProtWrite != 0 {
		native |= unix.PROT_WRITE
	}
	return unix.Mprotect(r.data[offset:offset+length], native)
}

func (r *mmapRegion) Close() error {
	return unix.Munmap(r.data)
}

// MapShared replaces the PROT_NONE anonymous mapping at
// [regionOff, regionOff+length) with a MAP_FIXED|MAP_SHARED mapping of
// the same range of fd, so all regionOff ranges sharing a given fileOff
// range observe each other's writes -- the "mirror" requirement of
// spec.md §6.
func (r *mmapRegion) MapShared(fd uintptr, fileOff int64, regionOff, length uintptr, prot Prot) error {
	if regionOff+length > r.size {
		return fmt.Errorf("fastmem: MapShared range [%#x,%#x) exceeds region size %#x", regionOff, regionOff+length, r.size)
	}
	var native int
	if prot&ProtRead != 0 {
		native |= unix.PROT_READ
	}
	if prot&ProtWrite != 0 {
		native |= unix.PROT_WRITE
	}
	addr := r.base + regionOff
	_, _, errno := unix.Syscall6(
		unix.SYS_MMAP,
		addr,
		length,
		uintptr(native),
		uintptr(unix.MAP_FIXED|unix.MAP_SHARED),
		fd,
		uintptr(fileOff),
	)
	if errno != 0 {
		return fmt.Errorf("fastmem: MapShared at %#x: %w", addr, errno)
	}
	return nil
}

// memfdBacking is a SharedBacking backed by Linux memfd_create, used as
// the "shared-memory object" spec.md §2 calls for.
type memfdBacking struct {
	fd   int
	size uintptr
	data []byte
}

func NewSharedBacking(size uintptr) (SharedBacking, error) {
	size = AlignUp(size, pageSize())
	fd, err := unix.MemfdCreate("sh4jit-physmem", 0)
	if err != nil {
		return nil, fmt.Errorf("fastmem: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("fastmem: ftruncate memfd: %w", err)
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("fastmem: mmap memfd: %w", err)
	}
	return &memfdBacking{fd: fd, size: size, data: data}, nil
}

func (m *memfdBacking) Fd() uintptr   { return uintptr(m.fd) }
func (m *memfdBacking) Size() uintptr { return m.size }
func (m *memfdBacking) Bytes() []byte { return m.data }

func (m *memfdBacking) Close() error {
	if err := unix.Munmap(m.data); err != nil {
		return err
	}
	return unix.Close(m.fd)
}
