package frontend

import (
	"github.com/sh4jit/core"
	"github.com/sh4jit/core/ir"
)

// MemReader is the minimal guest-memory view the frontend needs to
// fetch instruction words; *core.AddressSpace satisfies it via its
// Read16 method.
type MemReader interface {
	Read16(addr uint32) uint16
}

// Translator carries per-block decode state across translator calls:
// the builder being filled in, the instruction currently being
// decoded, and whether a delayed branch has just consumed its slot.
type Translator struct {
	B   *ir.Builder
	Mem MemReader

	PC           uint32 // address of the instruction currently being translated
	cfg          core.CompileFlags
	consumedSlot bool
	terminated   bool

	// invalidOpHook lets tests observe decode failures without a real
	// CPU to call_external into.
	invalidOpHook func(pc uint32, op uint16)
}

// BuildBlock decodes SH4 instructions starting at startPC until a
// terminating instruction is translated or maxInstrs is reached,
// returning the filled-in IR unit and the number of guest bytes it
// covers (spec.md §4.3).
func BuildBlock(mem MemReader, startPC uint32, maxInstrs int, flags core.CompileFlags) (*ir.Builder, uint32, error) {
	b := ir.NewBuilder()
	tr := &Translator{B: b, Mem: mem, cfg: flags}

	pc := startPC
	count := 0
	for count < maxInstrs {
		op := mem.Read16(pc)
		info := Decode(op)
		tr.PC = pc
		tr.consumedSlot = false

		if info == nil {
			emitInvalidInstruction(tr, op)
			tr.terminated = true
			pc += 2
			count++
			break
		}

		info.Translate(tr, op)
		pc += 2
		count++

		if tr.consumedSlot {
			pc += 2
			count++
		}
		if tr.terminated {
			break
		}
	}

	if !tr.terminated {
		// Ran out of budget without hitting a branch: fall through to the
		// next instruction, exactly as if an implicit unconditional jump
		// to pc had been decoded.
		tr.B.ExitToPC(tr.B.ConstI32(pc))
	}

	return b, pc - startPC, nil
}

// emitInvalidInstruction lowers an unrecognized opcode to the
// call_external sequence spec.md §7 specifies: logged and halted via
// the sentinel PC, never propagated as a Go error across the ABI.
func emitInvalidInstruction(tr *Translator, op uint16) {
	if tr.invalidOpHook != nil {
		tr.invalidOpHook(tr.PC, op)
	}
	tr.B.CallExternal(callInvalidInstruction, -1, tr.B.ConstI32(tr.PC), tr.B.ConstI32(uint32(op)))
	tr.B.ExitToPC(tr.B.ConstI32(core.SentinelStopPC))
}

// Callback IDs for OpCallExternal; the backend resolves these to Go
// function pointers (see backend/interp's external call table).
const (
	callInvalidInstruction uint32 = iota
	callLdcSR
	callLdcFPSCR
	callTrapa
	callRte
	callSleep
	callMacL
	callMacW
	callDiv1
	numCallbacks
)

// Exported aliases of the callback IDs above, for backend packages that
// need to build an external-call dispatch table keyed the same way the
// frontend emits OpCallExternal instructions.
const (
	CallInvalidInstruction = callInvalidInstruction
	CallLdcSR              = callLdcSR
	CallLdcFPSCR           = callLdcFPSCR
	CallTrapa              = callTrapa
	CallRte                = callRte
	CallSleep              = callSleep
	CallMacL               = callMacL
	CallMacW               = callMacW
	CallDiv1               = callDiv1
	NumCallbacks           = numCallbacks
)

// delaySlot translates the instruction immediately following the
// current one in place (in the same IR block, before any jump the
// caller emits afterward), per spec.md §4.3: delayed branches emit the
// slot's IR before the branch's IR, but callers must snapshot any
// register value the branch target depends on *before* calling this,
// since the slot may overwrite it.
func (tr *Translator) delaySlot() {
	slotPC := tr.PC + 2
	op := tr.Mem.Read16(slotPC)
	info := Decode(op)

	savedPC := tr.PC
	tr.PC = slotPC
	if info == nil {
		emitInvalidInstruction(tr, op)
	} else {
		info.Translate(tr, op)
	}
	tr.PC = savedPC
	tr.consumedSlot = true
}

// terminate marks the block as closed; called by every translator that
// emits a block-ending Jump/BranchIf.
func (tr *Translator) terminate() { tr.terminated = true }

func (tr *Translator) loadReg(n int) *ir.Value {
	return tr.B.LoadContext(core.ContextOffsetRn(n), ir.I32)
}

func (tr *Translator) storeReg(n int, v *ir.Value) {
	tr.B.StoreContext(core.ContextOffsetRn(n), v)
}

func (tr *Translator) loadFReg(n int) *ir.Value {
	return tr.B.LoadContext(core.ContextOffsetFrn(n), ir.F32)
}

func (tr *Translator) storeFReg(n int, v *ir.Value) {
	tr.B.StoreContext(core.ContextOffsetFrn(n), v)
}

func (tr *Translator) loadT() *ir.Value {
	sr := tr.B.LoadContext(core.ContextOffsetSR, ir.I32)
	return tr.B.Emit(ir.OpAnd, ir.I32, sr, tr.B.ConstI32(1))
}

func (tr *Translator) storeT(v *ir.Value) { tr.setSRBit(core.SRBitT, v) }
func (tr *Translator) setQ(v *ir.Value)   { tr.setSRBit(core.SRBitQ, v) }
func (tr *Translator) setM(v *ir.Value)   { tr.setSRBit(core.SRBitM, v) }

// setSRBit merges I8 0/1 value v into SR bit position pos, leaving
// every other bit untouched.
func (tr *Translator) setSRBit(pos int, v *ir.Value) {
	sr := tr.B.LoadContext(core.ContextOffsetSR, ir.I32)
	cleared := tr.B.Emit(ir.OpAnd, ir.I32, sr, tr.B.ConstI32(^(uint32(1) << uint(pos))))
	bit := tr.B.Emit(ir.OpShl, ir.I32, tr.B.Emit(ir.OpZExt, ir.I32, v), tr.B.ConstI32(uint32(pos)))
	merged := tr.B.Emit(ir.OpOr, ir.I32, cleared, bit)
	tr.B.StoreContext(core.ContextOffsetSR, merged)
}

func (tr *Translator) nextPC() uint32 { return tr.PC + 2 }
