package cpu

import (
	"fmt"
	"strings"
)

// Opcode is an instruction opcode.
type Opcode Word

const (
	OP_HALT = Opcode(0)  // HLT
	OP_SET  = Opcode(1)  // SET
	OP_PUSH = Opcode(2)  // PUSH
	OP_POP  = Opcode(3)  // POP
	OP_EQ   = Opcode(4)  // EQ
	OP_GT   = Opcode(5)  // GT
	OP_JMP  = Opcode(6)  // JMP
	OP_JT   = Opcode(7)  // JT
	OP_JF   = Opcode(8)  // JF
	OP_ADD  = Opcode(9)  // ADD
	OP_MULT = Opcode(10) // MULT
	OP_MOD  = Opcode(11) // MOD
	OP_AND  = Opcode(12) // AND
	OP_OR   = Opcode(13) // OR
	OP_NOT  = Opcode(14) // NOT
	OP_RMEM = Opcode(15) // RMEM
	OP_WMEM = Opcode(16) // WMEM
	OP_CALL = Opcode(17) // CALL
	OP_RET  = Opcode(18) // RET
	OP_OUT  = Opcode(19) // OUT
	OP_IN   = Opcode(20) // IN
	OP_NOOP = Opcode(21) // NOOP
)

// opcodeInfo is the instruction set table; arity counts the opcode word.
var opcodeInfo = [...]struct {
	mnemonic string
	arity    int
}{
	OP_HALT: {"HLT", 1},
	OP_SET:  {"SET", 3},
	OP_PUSH: {"PUSH", 2},
	OP_POP:  {"POP", 2},
	OP_EQ:   {"EQ", 4},
	OP_GT:   {"GT", 4},
	OP_JMP:  {"JMP", 2},
	OP_JT:   {"JT", 3},
	OP_JF:   {"JF", 3},
	OP_ADD:  {"ADD", 4},
	OP_MULT: {"MULT", 4},
	OP_MOD:  {"MOD", 4},
	OP_AND:  {"AND", 4},
	OP_OR:   {"OR", 4},
	OP_NOT:  {"NOT", 3},
	OP_RMEM: {"RMEM", 3},
	OP_WMEM: {"WMEM", 3},
	OP_CALL: {"CALL", 2},
	OP_RET:  {"RET", 1},
	OP_OUT:  {"OUT", 2},
	OP_IN:   {"IN", 2},
	OP_NOOP: {"NOOP", 1},
}

// OPCODE_COUNT is the number of defined opcodes.
const OPCODE_COUNT = len(opcodeInfo)

// Valid returns true if the opcode is defined.
func (op Opcode) Valid() bool {
	return int(op) < OPCODE_COUNT
}

// Arity returns the instruction length in words, including the opcode
// itself, or zero for an undefined opcode.
func (op Opcode) Arity() int {
	if !op.Valid() {
		return 0
	}
	return opcodeInfo[op].arity
}

// Operands returns the number of operand words following the opcode.
func (op Opcode) Operands() int {
	if !op.Valid() {
		return 0
	}
	return opcodeInfo[op].arity - 1
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint16(op))
	}
	return opcodeInfo[op].mnemonic
}

// LookupOpcode finds an opcode by its mnemonic, ignoring case.
func LookupOpcode(mnemonic string) (op Opcode, ok bool) {
	for n, info := range opcodeInfo {
		if strings.EqualFold(info.mnemonic, mnemonic) {
			return Opcode(n), true
		}
	}
	return
}

// Code is a decoded instruction.
type Code struct {
	Ip      Word       // Address of the opcode word.
	Op      Opcode     // Opcode.
	Operand [3]Operand // Raw operands; only Op.Operands() are meaningful.
}

// Decode fetches the instruction at ip. Operand addresses wrap modulo the
// memory size. An undefined opcode decodes with ok false.
func Decode(memory []Word, ip Word) (code Code, ok bool) {
	ip &= WORD_MASK
	code.Ip = ip
	code.Op = Opcode(memory[ip])
	if !code.Op.Valid() {
		return
	}

	for n := range code.Op.Operands() {
		code.Operand[n] = Operand(memory[(int(ip)+1+n)&WORD_MASK])
	}

	ok = true
	return
}

// Args returns the meaningful operands of the instruction.
func (code Code) Args() []Operand {
	return code.Operand[:code.Op.Operands()]
}

// String returns the assembly language representation of the instruction.
func (code Code) String() string {
	var sb strings.Builder
	sb.WriteString(code.Op.String())
	for _, arg := range code.Args() {
		sb.WriteByte(' ')
		sb.WriteString(arg.String())
	}
	return sb.String()
}
