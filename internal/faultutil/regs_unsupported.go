//go:build !(linux && amd64)

package faultutil

import "errors"

// Registers is a no-op stand-in on platforms without the cgo sigaction
// trampoline. Fastmem is disabled on these platforms (see Config.Fastmem
// and internal/fastmem's fallback region), so this path is never hit.
type Registers struct{}

func (r *Registers) RIP() uintptr       { return 0 }
func (r *Registers) SetRIP(pc uintptr) {}

func Install(h Handler) error {
	return errors.New("faultutil: host fault interception not supported on this platform")
}

func Teardown() {}
