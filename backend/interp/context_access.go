package interp

import (
	"unsafe"

	"github.com/sh4jit/core"
	"github.com/sh4jit/core/ir"
)

// loadContext/storeContext read and write SH4Context exactly the way
// compiled x64 code would, through a raw byte offset rather than a
// field switch: context.go documents these offsets as part of the
// ABI every backend embeds as immediates, so the interpreter reaches
// into the struct the same way instead of keeping a second,
// duplicated field table in sync with it.
func (f *frame) loadContext(off uint32, t ir.Type) uint64 {
	p := contextFieldPtr(f.ctx, off)
	switch t {
	case ir.I8:
		return uint64(*(*uint8)(p))
	case ir.I16:
		return uint64(*(*uint16)(p))
	case ir.I32:
		return uint64(*(*uint32)(p))
	case ir.F32:
		return uint64(*(*uint32)(p))
	case ir.F64:
		return *(*uint64)(p)
	default:
		return *(*uint64)(p)
	}
}

func (f *frame) storeContext(off uint32, t ir.Type, v uint64) {
	p := contextFieldPtr(f.ctx, off)
	switch t {
	case ir.I8:
		*(*uint8)(p) = uint8(v)
	case ir.I16:
		*(*uint16)(p) = uint16(v)
	case ir.I32, ir.F32:
		*(*uint32)(p) = uint32(v)
	default:
		*(*uint64)(p) = v
	}
}

func contextFieldPtr(ctx *core.SH4Context, off uint32) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(ctx), off)
}
