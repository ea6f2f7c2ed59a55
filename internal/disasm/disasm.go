// Package disasm decodes the MIPS subset that MERL modules contain.
//
// Decoding is total: every 32-bit word maps to an Instruction, and encodings
// outside the subset come back as a Word directive rather than an error.
package disasm

import "fmt"

// Category is the coarse classification of a decoded word.
type Category int

const (
	CategoryCode Category = iota
	CategoryData
)

func (c Category) String() string {
	if c == CategoryData {
		return "Data"
	}
	return "Code"
}

// Instruction is one of RType, IType or Word.
type Instruction interface {
	// Mnemonic is the lowercase opcode name, ".word" for directives.
	Mnemonic() string
	// Description is a fixed human-readable name of the operation.
	Description() string
	// Category reports whether the word decoded as code or data.
	Category() Category
	// Encode packs the instruction back into its word.
	Encode() uint32
	// String renders the instruction with operands.
	String() string

	isInstruction()
}

// Operand layouts.
type syntax int

const (
	syntaxRdRsRt syntax = iota // add $rd, $rs, $rt
	syntaxRsRt                 // mult $rs, $rt
	syntaxRd                   // mfhi $rd
	syntaxRs                   // jr $rs
	syntaxMem                  // lw $rt, imm($rs)
	syntaxBranch               // beq $rs, $rt, imm
	syntaxRtRsImm              // addi $rt, $rs, imm
)

type opInfo struct {
	mnemonic    string
	description string
	syntax      syntax
}

// rTypes is keyed by funct for opcode 0.
var rTypes = map[uint8]opInfo{
	0x20: {"add", "Add", syntaxRdRsRt},
	0x22: {"sub", "Subtract", syntaxRdRsRt},
	0x18: {"mult", "Multiply", syntaxRsRt},
	0x19: {"multu", "Multiply Unsigned", syntaxRsRt},
	0x1A: {"div", "Divide", syntaxRsRt},
	0x1B: {"divu", "Divide Unsigned", syntaxRsRt},
	0x10: {"mfhi", "Move From High", syntaxRd},
	0x12: {"mflo", "Move From Low", syntaxRd},
	0x14: {"lis", "Load Immediate And Skip", syntaxRd},
	0x2A: {"slt", "Set Less Than", syntaxRdRsRt},
	0x2B: {"sltu", "Set Less Than Unsigned", syntaxRdRsRt},
	0x08: {"jr", "Jump Register", syntaxRs},
	0x09: {"jalr", "Jump And Link Register", syntaxRs},
}

// iTypes is keyed by opcode.
var iTypes = map[uint8]opInfo{
	0x04: {"beq", "Branch On Equal", syntaxBranch},
	0x05: {"bne", "Branch On Not Equal", syntaxBranch},
	0x08: {"addi", "Add Immediate", syntaxRtRsImm},
	0x0A: {"slti", "Set Less Than Immediate", syntaxRtRsImm},
	0x0B: {"sltiu", "Set Less Than Immediate Unsigned", syntaxRtRsImm},
	0x23: {"lw", "Load Word", syntaxMem},
	0x2B: {"sw", "Store Word", syntaxMem},
}

// Field accessors.
func Opcode(w uint32) uint8 { return uint8(w >> 26 & 0x3F) }
func Rs(w uint32) uint8     { return uint8(w >> 21 & 0x1F) }
func Rt(w uint32) uint8     { return uint8(w >> 16 & 0x1F) }
func Rd(w uint32) uint8     { return uint8(w >> 11 & 0x1F) }
func Shamt(w uint32) uint8  { return uint8(w >> 6 & 0x1F) }
func Funct(w uint32) uint8  { return uint8(w & 0x3F) }

// Imm returns the sign-extended 16-bit immediate.
func Imm(w uint32) int16 { return int16(uint16(w)) }

// RType is an opcode-0 register instruction.
type RType struct {
	Rs, Rt, Rd, Shamt, Funct uint8
	info                     opInfo
}

// IType is an immediate instruction.
type IType struct {
	Opcode, Rs, Rt uint8
	Immediate      int16
	info           opInfo
}

// Word is a raw word that is not part of the instruction subset.
type Word struct {
	Value uint32
}

// Decode maps a word to its instruction. It never fails.
func Decode(w uint32) Instruction {
	op := Opcode(w)
	if op == 0 {
		info, ok := rTypes[Funct(w)]
		if !ok {
			return Word{Value: w}
		}
		return RType{Rs: Rs(w), Rt: Rt(w), Rd: Rd(w), Shamt: Shamt(w), Funct: Funct(w), info: info}
	}
	info, ok := iTypes[op]
	if !ok {
		return Word{Value: w}
	}
	return IType{Opcode: op, Rs: Rs(w), Rt: Rt(w), Immediate: Imm(w), info: info}
}

// EncodeR packs an R-type word.
func EncodeR(rs, rt, rd, shamt, funct uint8) uint32 {
	return uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(rd&0x1F)<<11 |
		uint32(shamt&0x1F)<<6 | uint32(funct&0x3F)
}

// EncodeI packs an I-type word.
func EncodeI(opcode, rs, rt uint8, imm int16) uint32 {
	return uint32(opcode&0x3F)<<26 | uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(uint16(imm))
}

func (RType) isInstruction() {}
func (IType) isInstruction() {}
func (Word) isInstruction()  {}

func (r RType) Mnemonic() string    { return r.info.mnemonic }
func (r RType) Description() string { return r.info.description }
func (r RType) Category() Category  { return CategoryCode }
func (r RType) Encode() uint32      { return EncodeR(r.Rs, r.Rt, r.Rd, r.Shamt, r.Funct) }

func (r RType) String() string {
	switch r.info.syntax {
	case syntaxRsRt:
		return fmt.Sprintf("%s $%d, $%d", r.info.mnemonic, r.Rs, r.Rt)
	case syntaxRd:
		return fmt.Sprintf("%s $%d", r.info.mnemonic, r.Rd)
	case syntaxRs:
		return fmt.Sprintf("%s $%d", r.info.mnemonic, r.Rs)
	default:
		return fmt.Sprintf("%s $%d, $%d, $%d", r.info.mnemonic, r.Rd, r.Rs, r.Rt)
	}
}

func (i IType) Mnemonic() string    { return i.info.mnemonic }
func (i IType) Description() string { return i.info.description }
func (i IType) Category() Category  { return CategoryCode }
func (i IType) Encode() uint32      { return EncodeI(i.Opcode, i.Rs, i.Rt, i.Immediate) }

func (i IType) String() string {
	switch i.info.syntax {
	case syntaxMem:
		return fmt.Sprintf("%s $%d, %d($%d)", i.info.mnemonic, i.Rt, i.Immediate, i.Rs)
	case syntaxBranch:
		return fmt.Sprintf("%s $%d, $%d, %d", i.info.mnemonic, i.Rs, i.Rt, i.Immediate)
	default:
		return fmt.Sprintf("%s $%d, $%d, %d", i.info.mnemonic, i.Rt, i.Rs, i.Immediate)
	}
}

func (Word) Mnemonic() string    { return ".word" }
func (Word) Description() string { return "Word Directive" }
func (Word) Category() Category  { return CategoryData }
func (d Word) Encode() uint32    { return d.Value }
func (d Word) String() string    { return FormatWord(d.Value) }

// FormatWord renders a .word directive for w.
func FormatWord(w uint32) string {
	return fmt.Sprintf(".word 0x%08X", w)
}
