package disasm

import "testing"

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		word     uint32
		text     string
		mnemonic string
		category Category
	}{
		{"add", EncodeR(1, 2, 3, 0, 0x20), "add $3, $1, $2", "add", CategoryCode},
		{"sub", EncodeR(4, 5, 6, 0, 0x22), "sub $6, $4, $5", "sub", CategoryCode},
		{"slt", EncodeR(1, 2, 3, 0, 0x2A), "slt $3, $1, $2", "slt", CategoryCode},
		{"sltu", EncodeR(1, 2, 3, 0, 0x2B), "sltu $3, $1, $2", "sltu", CategoryCode},
		{"mult", EncodeR(7, 8, 0, 0, 0x18), "mult $7, $8", "mult", CategoryCode},
		{"multu", EncodeR(7, 8, 0, 0, 0x19), "multu $7, $8", "multu", CategoryCode},
		{"div", EncodeR(7, 8, 0, 0, 0x1A), "div $7, $8", "div", CategoryCode},
		{"divu", EncodeR(7, 8, 0, 0, 0x1B), "divu $7, $8", "divu", CategoryCode},
		{"mfhi", EncodeR(0, 0, 9, 0, 0x10), "mfhi $9", "mfhi", CategoryCode},
		{"mflo", EncodeR(0, 0, 9, 0, 0x12), "mflo $9", "mflo", CategoryCode},
		{"lis", EncodeR(0, 0, 4, 0, 0x14), "lis $4", "lis", CategoryCode},
		{"jr", 0x03E00008, "jr $31", "jr", CategoryCode},
		{"jalr", EncodeR(5, 0, 0, 0, 0x09), "jalr $5", "jalr", CategoryCode},
		{"beq backwards", EncodeI(0x04, 1, 2, -3), "beq $1, $2, -3", "beq", CategoryCode},
		{"bne", EncodeI(0x05, 3, 0, 7), "bne $3, $0, 7", "bne", CategoryCode},
		{"addi", EncodeI(0x08, 1, 2, -1), "addi $2, $1, -1", "addi", CategoryCode},
		{"slti", EncodeI(0x0A, 1, 2, 10), "slti $2, $1, 10", "slti", CategoryCode},
		{"sltiu", EncodeI(0x0B, 1, 2, 10), "sltiu $2, $1, 10", "sltiu", CategoryCode},
		{"lw", EncodeI(0x23, 30, 3, -4), "lw $3, -4($30)", "lw", CategoryCode},
		{"sw", EncodeI(0x2B, 30, 31, 8), "sw $31, 8($30)", "sw", CategoryCode},
		{"unknown funct", 0x0022083F, ".word 0x0022083F", ".word", CategoryData},
		{"unknown opcode", 0xFC000000, ".word 0xFC000000", ".word", CategoryData},
		{"zero", 0, ".word 0x00000000", ".word", CategoryData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := Decode(tt.word)
			if got := inst.String(); got != tt.text {
				t.Errorf("String() = %q, want %q", got, tt.text)
			}
			if got := inst.Mnemonic(); got != tt.mnemonic {
				t.Errorf("Mnemonic() = %q, want %q", got, tt.mnemonic)
			}
			if got := inst.Category(); got != tt.category {
				t.Errorf("Category() = %v, want %v", got, tt.category)
			}
			if got := inst.Encode(); got != tt.word {
				t.Errorf("Encode() = 0x%08X, want 0x%08X", got, tt.word)
			}
		})
	}
}

func TestAddRoundTrip(t *testing.T) {
	w := EncodeR(1, 2, 3, 0, 0x20)
	if w != 0x00221820 {
		t.Fatalf("EncodeR(add $3,$1,$2) = 0x%08X, want 0x00221820", w)
	}

	r, ok := Decode(w).(RType)
	if !ok {
		t.Fatalf("Decode(0x%08X) = %T, want RType", w, Decode(w))
	}
	if r.Rs != 1 || r.Rt != 2 || r.Rd != 3 || r.Funct != 0x20 {
		t.Errorf("fields = %+v", r)
	}
	if r.Description() != "Add" {
		t.Errorf("Description() = %q", r.Description())
	}
}

func TestSignExtension(t *testing.T) {
	tests := []struct {
		word uint32
		want int16
	}{
		{0x00007FFF, 32767},
		{0x00008000, -32768},
		{0x0000FFFF, -1},
		{0x10220000, 0},
	}
	for _, tt := range tests {
		if got := Imm(tt.word); got != tt.want {
			t.Errorf("Imm(0x%08X) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestDecodeNeverPanics(t *testing.T) {
	// Walk every opcode/funct combination with noisy register fields.
	for op := uint32(0); op < 64; op++ {
		for funct := uint32(0); funct < 64; funct++ {
			w := op<<26 | 0x03FFF7C0 | funct
			inst := Decode(w)
			if inst.String() == "" || inst.Mnemonic() == "" {
				t.Fatalf("Decode(0x%08X) rendered empty", w)
			}
		}
	}
}
