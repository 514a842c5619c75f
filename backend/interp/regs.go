// Package interp is a Backend that never emits host machine code: it
// runs the optimizer's IR directly, value by value. It exists as the
// oracle backend/x64 is checked against and as a portable fallback on
// platforms fastmem/x64 codegen doesn't support.
package interp

import "github.com/sh4jit/core/ir"

// virtualRegs satisfies optimizer.RegisterFile without describing any
// real register file: every Value "fits" in an arbitrarily large set of
// registers, so the allocator's spill path (allocBlocked) never
// triggers. The interpreter ignores Value.Reg entirely and evaluates
// each ir.Value directly, so what the allocator assigns here is never
// read -- this exists only because optimizer.NewDefaultRunner requires
// a RegisterFile to build its pipeline.
type virtualRegs struct{}

func (virtualRegs) NumRegisters() int                 { return 4096 }
func (virtualRegs) CanHold(reg int, t ir.Type) bool    { return true }
