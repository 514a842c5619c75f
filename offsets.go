// offsets.go - indexed SH4Context field offset helpers, used by the
// frontend to address R0-R15 and FR0-FR15 generically instead of
// hand-enumerating sixteen constants each.
package core

// ContextOffsetRn returns R[n]'s byte offset, n in [0,15].
func ContextOffsetRn(n int) uint32 { return ContextOffsetR + uint32(n)*4 }

// ContextOffsetFrn returns Fr[n]'s byte offset, n in [0,15].
func ContextOffsetFrn(n int) uint32 { return ContextOffsetFr + uint32(n)*4 }

// ContextOffsetXfn returns Xf[n]'s byte offset, n in [0,15].
func ContextOffsetXfn(n int) uint32 { return ContextOffsetXf + uint32(n)*4 }

// ContextOffsetRaltn returns Ralt[n]'s byte offset, n in [0,7].
func ContextOffsetRaltn(n int) uint32 { return ContextOffsetRalt + uint32(n)*4 }
