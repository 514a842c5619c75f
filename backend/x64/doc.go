// Package x64 is reserved for an x86-64 host-code-emitting core.Backend.
// It is intentionally empty: see DESIGN.md's "Scope: interpreter-only,
// no backend/x64" entry for why. backend/interp implements the
// core.Backend contract this package would otherwise satisfy.
package x64
