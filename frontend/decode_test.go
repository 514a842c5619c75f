package frontend

import "testing"

func TestDecode_KnownMnemonics(t *testing.T) {
	cases := []struct {
		op       uint16
		mnemonic string
	}{
		{0x6003, "mov"},      // MOV R0,R0
		{0xE012, "mov.imm"},  // MOV #0x12,R0
		{0x300C, "add"},      // ADD R0,R0
		{0x4001, "shlr"},     // SHLR R0
		{0x4021, "shar"},     // SHAR R0
		{0x000B, "rts"},      // RTS
		{0x002B, "rte"},      // RTE
		{0xF000, "fadd"},     // FADD FR0,FR0
	}
	for _, c := range cases {
		info := Decode(c.op)
		if info == nil {
			t.Fatalf("opcode %#04x: expected decode, got nil", c.op)
		}
		if info.Mnemonic != c.mnemonic {
			t.Errorf("opcode %#04x: mnemonic = %q, want %q", c.op, info.Mnemonic, c.mnemonic)
		}
	}
}

func TestDecode_UnknownOpcodeIsNil(t *testing.T) {
	// 0xFFFF does not match any registered pattern.
	if info := Decode(0xFFFF); info != nil {
		t.Errorf("expected nil for unassigned opcode, got %q", info.Mnemonic)
	}
}

func TestDecode_NoOverlappingPatterns(t *testing.T) {
	// register() panics at init time on overlap; reaching this test at
	// all means the whole table loaded without panicking. Spot-check the
	// shift family, whose encodings all share the 0100nnnn prefix and are
	// the most likely place for a transposed bit to go unnoticed.
	shiftOps := map[uint16]string{
		0x4000: "shll", 0x4001: "shlr", 0x4020: "shal", 0x4021: "shar",
		0x4004: "rotl", 0x4005: "rotr", 0x4024: "rotcl", 0x4025: "rotcr",
	}
	for op, want := range shiftOps {
		info := Decode(op)
		if info == nil {
			t.Fatalf("opcode %#04x: expected a shift-family decode", op)
		}
		if info.Mnemonic != want {
			t.Errorf("opcode %#04x: mnemonic = %q, want %q", op, info.Mnemonic, want)
		}
	}
}
