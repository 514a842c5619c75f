// Package optimizer runs a fixed pipeline of IR-to-IR passes over a
// freshly built ir.Builder before a backend assembles it: validation,
// control-flow analysis, load/store elimination, constant propagation,
// and register allocation, in that order (spec.md §3, grounded on the
// dreavm jit/ir/passes pipeline wired up in its code cache).
package optimizer

import "github.com/sh4jit/core/ir"

// Pass transforms one compilation unit in place.
type Pass interface {
	Name() string
	Run(b *ir.Builder) error
}

// Runner owns an ordered pass list and runs them in sequence.
type Runner struct {
	passes []Pass
}

// NewDefaultRunner builds the standard pipeline: validate, CFG
// analysis, load/store elimination, constant propagation, then
// register allocation against regs.
func NewDefaultRunner(regs RegisterFile) *Runner {
	return &Runner{passes: []Pass{
		&ValidatePass{},
		&ControlFlowAnalysisPass{},
		&LoadStoreEliminationPass{},
		&ConstantPropagationPass{},
		NewRegisterAllocationPass(regs),
	}}
}

// AddPass appends an additional pass to the end of the pipeline, e.g. a
// debug-only guard-insertion pass used by backend/interp.
func (r *Runner) AddPass(p Pass) { r.passes = append(r.passes, p) }

func (r *Runner) Run(b *ir.Builder) error {
	for _, p := range r.passes {
		if err := p.Run(b); err != nil {
			return &PassError{Pass: p.Name(), Err: err}
		}
	}
	return nil
}

// PassError reports which pass in the pipeline failed.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string { return e.Pass + ": " + e.Err.Error() }
func (e *PassError) Unwrap() error { return e.Err }
