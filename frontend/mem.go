package frontend

import "github.com/sh4jit/core/ir"

// loadSExt loads t-wide value at addr and sign-extends it to I32,
// matching every SH4 MOV.B/MOV.W load (MOV.L needs no extension).
func (tr *Translator) loadSExt(addr *ir.Value, t ir.Type) *ir.Value {
	v := tr.B.Load(addr, t)
	if t == ir.I32 {
		return v
	}
	return tr.B.Emit(ir.OpSExt, ir.I32, v)
}

// storeTrunc truncates a 32-bit register value down to t before
// storing, matching every SH4 MOV.B/MOV.W store.
func (tr *Translator) storeTrunc(addr, val *ir.Value, t ir.Type) {
	if t != ir.I32 {
		val = tr.B.Emit(ir.OpTrunc, t, val)
	}
	tr.B.Store(addr, val)
}
