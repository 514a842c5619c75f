package frontend

import "github.com/sh4jit/core"

// Short local aliases for the SH4Context offsets translator functions
// reference by name instead of repeating the core.ContextOffset*
// prefix throughout every translate_*.go file.
const (
	gbrOffset   = core.ContextOffsetGBR
	vbrOffset   = core.ContextOffsetVBR
	srOffset    = core.ContextOffsetSR
	fpscrOffset = core.ContextOffsetFPSCR
	fpulOffset  = core.ContextOffsetFPUL
	machOffset  = core.ContextOffsetMACH
	maclOffset  = core.ContextOffsetMACL
	prOffset    = core.ContextOffsetPR
	ssrOffset   = core.ContextOffsetSSR
	spcOffset   = core.ContextOffsetSPC
	sgrOffset   = core.ContextOffsetSGR
	dbrOffset   = core.ContextOffsetDBR
	pcOffset    = core.ContextOffsetPC
)
