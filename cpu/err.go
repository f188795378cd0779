package cpu

import (
	"errors"

	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrInvalidOperand = errors.New(f("invalid operand"))
	ErrStackUnderflow = errors.New(f("stack underflow"))
	ErrOpcodeInvalid  = errors.New(f("opcode invalid"))
	ErrDivideByZero   = errors.New(f("divide by zero"))

	// Image errors
	ErrImageTooLarge  = errors.New(f("image too large"))
	ErrImageMalformed = errors.New(f("image malformed"))
	ErrPatchInvalid   = errors.New(f("patch invalid"))

	// Disassembler errors
	ErrDecode = errors.New(f("decode"))

	// Assembler errors
	ErrEquateSyntax     = errors.New(f(".equ syntax"))
	ErrEquateDuplicate  = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate   = errors.New(f("label duplicated"))
	ErrLabelSyntax      = errors.New(f("label syntax"))
	ErrMnemonicInvalid  = errors.New(f("mnemonic invalid"))
	ErrOperandCount     = errors.New(f("operand count"))
	ErrDirectiveInvalid = errors.New(f("directive invalid"))
	ErrStringSyntax     = errors.New(f("string syntax"))
	ErrProgramTooLarge  = errors.New(f("program too large"))
)

// ErrOperand reports an operand outside of the literal and register ranges.
type ErrOperand Operand

func (eo ErrOperand) Error() string {
	return f("invalid operand 0x%04x", uint16(eo))
}

func (eo ErrOperand) Is(err error) (ok bool) {
	if err == ErrInvalidOperand {
		return true
	}
	_, ok = err.(ErrOperand)
	return
}

// ErrOpcode reports an undefined opcode met by the CPU.
type ErrOpcode Word

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%04x", uint16(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	if err == ErrOpcodeInvalid {
		return true
	}
	_, ok = err.(ErrOpcode)
	return
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrStep locates the instruction that faulted the CPU.
type ErrStep struct {
	Code Code
	Err  error
}

func (err *ErrStep) Error() string {
	return f("%04x: %v: %v", uint16(err.Code.Ip), err.Code.String(), err.Err)
}

func (err *ErrStep) Unwrap() error {
	return err.Err
}
