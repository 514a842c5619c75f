package core_test

import (
	"testing"

	"github.com/sh4jit/core/internal/scenario"
)

// These mirror the six end-to-end scenarios spec.md §8 calls out, run
// against backend/interp (see SPEC_FULL.md §4.5 on why this delivery
// verifies the pipeline through the interpreter rather than a
// hand-written, never-assembled x86-64 backend). cmd/sh4harness runs
// the same scenario.All() list for interactive/CLI use.

func TestEndToEnd1_AddWithTFlag(t *testing.T) {
	if err := scenario.RunOne(scenario.All()[0]); err != nil {
		t.Fatal(err)
	}
}

func TestEndToEnd2_DelayedBranch(t *testing.T) {
	if err := scenario.RunOne(scenario.All()[1]); err != nil {
		t.Fatal(err)
	}
}

func TestEndToEnd3_PairedFMove(t *testing.T) {
	if err := scenario.RunOne(scenario.All()[2]); err != nil {
		t.Fatal(err)
	}
}

func TestEndToEnd4_FastmemMMIOTrap(t *testing.T) {
	if err := scenario.RunOne(scenario.All()[3]); err != nil {
		t.Fatal(err)
	}
}

func TestEndToEnd5_SelfModifyingCodeInvalidation(t *testing.T) {
	if err := scenario.RunOne(scenario.All()[4]); err != nil {
		t.Fatal(err)
	}
}

func TestEndToEnd6_InterruptPriority(t *testing.T) {
	if err := scenario.RunOne(scenario.All()[5]); err != nil {
		t.Fatal(err)
	}
}

func TestEndToEnd_AllScenariosRunByName(t *testing.T) {
	for _, s := range scenario.All() {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			if err := scenario.RunOne(s); err != nil {
				t.Fatal(err)
			}
		})
	}
}
