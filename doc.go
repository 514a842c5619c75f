// Package core implements the dynamic-recompilation pipeline that turns
// guest SH4 instructions into executable host code, the guest address
// space / page table / MMIO dispatch it rests on, and the block cache
// that binds compiled host code to guest addresses.
//
// Layering (leaves first): page table -> address space -> fault handler
// -> block cache -> execution loop. The frontend decoder, optimizer
// passes and backend code generators live in sibling packages (frontend,
// optimizer, backend/x64, backend/interp) and depend on this package,
// never the reverse -- core knows only the Backend interface, never a
// concrete compiler.
//
// Everything here is single-threaded-cooperative: exactly one goroutine
// runs compiled guest code at a time and every mutation of the block
// cache happens on that same goroutine, except where noted (see
// BlockCache's use of singleflight).
package core
