package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"unicode"
)

// Line is a single disassembled instruction, or a raw data word.
type Line struct {
	Ip   Word   // Address of the first word.
	Size int    // Words covered.
	Data bool   // Set when the word is shown as raw data.
	Code Code   // Decoded instruction, unless Data.
	Text string // Listing text.
	Err  error  // Why an opcode was shown as data, if it was.
}

func (line Line) String() string {
	return line.Text
}

// DisassembleAt decodes the instruction at ip. Words that are not opcodes,
// or instructions with an undecodable operand, become one word data lines.
func DisassembleAt(memory []Word, ip Word) (line Line) {
	line = Line{Ip: ip, Size: 1}
	if int(ip) >= len(memory) {
		line.Data = true
		line.Err = ErrDecode
		line.Text = fmt.Sprintf("%04X: ----", uint16(ip))
		return
	}

	word := memory[ip]
	op := Opcode(word)

	text, err := renderInstruction(memory, ip, op)
	if err != nil {
		line.Data = true
		line.Err = err
		line.Text = fmt.Sprintf("%04X: %04X", uint16(ip), uint16(word))
		return
	}

	line.Size = op.Arity()
	line.Code = Code{Ip: ip, Op: op}
	for n := range op.Operands() {
		line.Code.Operand[n] = Operand(memory[int(ip)+1+n])
	}
	line.Text = text
	return
}

// renderInstruction renders the listing text of the instruction at ip.
func renderInstruction(memory []Word, ip Word, op Opcode) (text string, err error) {
	if !op.Valid() {
		err = ErrOpcode(op)
		return
	}

	arity := op.Arity()
	if int(ip)+arity > len(memory) {
		err = ErrDecode
		return
	}

	words := make([]string, arity)
	args := make([]string, 0, arity)
	args = append(args, op.String())
	for n := range arity {
		value := memory[int(ip)+n]
		words[n] = fmt.Sprintf("%04X", uint16(value))
		if n == 0 {
			continue
		}
		var arg string
		arg, err = renderOperand(op, Operand(value))
		if err != nil {
			return
		}
		args = append(args, arg)
	}

	text = fmt.Sprintf("%04X: %-20s%s", uint16(ip), strings.Join(words, " "), strings.Join(args, " "))
	return
}

// renderOperand renders an operand: characters for OUT, hexadecimal
// literals, and register names.
func renderOperand(op Opcode, arg Operand) (text string, err error) {
	switch arg.Kind() {
	case OPERAND_LITERAL:
		if op == OP_OUT {
			text = renderChar(rune(arg))
		} else {
			text = arg.String()
		}
	case OPERAND_REGISTER:
		text = arg.String()
	default:
		err = errors.Join(ErrDecode, ErrOperand(arg))
	}
	return
}

// renderChar keeps a listing line on one line for unprintable characters.
func renderChar(r rune) string {
	if unicode.IsPrint(r) {
		return string(r)
	}
	quoted := strconv.QuoteRune(r)
	return quoted[1 : len(quoted)-1]
}

// Lines iterates over the full listing of memory in address order.
func Lines(memory []Word) iter.Seq[Line] {
	return func(yield func(line Line) bool) {
		for ip := 0; ip < len(memory); {
			line := DisassembleAt(memory, Word(ip))
			if !yield(line) {
				return
			}
			ip += line.Size
		}
	}
}

// Disassemble writes the listing of memory to w, one line per instruction
// or data word.
func Disassemble(w io.Writer, memory []Word) (err error) {
	out := bufio.NewWriter(w)
	for line := range Lines(memory) {
		_, err = fmt.Fprintln(out, line.Text)
		if err != nil {
			return
		}
	}

	err = out.Flush()
	return
}
