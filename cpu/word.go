package cpu

import (
	"fmt"
)

// Machine geometry.
const (
	WORD_MASK      = 0x7fff // Mask of the 15 value bits of a Word.
	MEMORY_SIZE    = 32768  // Words of memory.
	REGISTER_COUNT = 8      // Number of registers.
	REGISTER_BASE  = 32768  // Operand value naming r0.
	OPERAND_LIMIT  = REGISTER_BASE + REGISTER_COUNT
	IMAGE_LIMIT    = MEMORY_SIZE * 2 // Largest loadable image, in bytes.
)

// Word is a machine value. Arithmetic results are reduced modulo 32768.
type Word uint16

// Operand is the raw value of an instruction word following the opcode.
type Operand uint16

// OperandKind is the classification of an Operand.
type OperandKind int

const (
	OPERAND_LITERAL  = OperandKind(0) // literal
	OPERAND_REGISTER = OperandKind(1) // register
	OPERAND_INVALID  = OperandKind(2) // invalid
)

func (kind OperandKind) String() string {
	switch kind {
	case OPERAND_LITERAL:
		return "literal"
	case OPERAND_REGISTER:
		return "register"
	}
	return "invalid"
}

// Kind classifies the operand.
func (op Operand) Kind() OperandKind {
	switch {
	case op < REGISTER_BASE:
		return OPERAND_LITERAL
	case op < OPERAND_LIMIT:
		return OPERAND_REGISTER
	}
	return OPERAND_INVALID
}

// Register returns the register index named by the operand.
func (op Operand) Register() (index int, ok bool) {
	if op.Kind() != OPERAND_REGISTER {
		return
	}
	return int(op - REGISTER_BASE), true
}

// String renders the operand as the disassembler does: literals in
// hexadecimal, registers by name.
func (op Operand) String() string {
	switch op.Kind() {
	case OPERAND_LITERAL:
		return fmt.Sprintf("%04X", uint16(op))
	case OPERAND_REGISTER:
		return fmt.Sprintf("r%d", op-REGISTER_BASE)
	}
	return fmt.Sprintf("?%04X", uint16(op))
}

// RegisterOperand returns the operand naming register index.
func RegisterOperand(index int) Operand {
	return Operand(REGISTER_BASE + index)
}
