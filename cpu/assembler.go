// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"MEMORY_SIZE":   fmt.Sprintf("%d", MEMORY_SIZE),
	"REGISTER_BASE": fmt.Sprintf("%d", REGISTER_BASE),
	"WORD_MASK":     fmt.Sprintf("%#x", WORD_MASK),
}

// equateDepth limits chains of equates naming other equates.
const equateDepth = 8

var nameRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Assembler is a two pass assembler for the synacor instruction set.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Statement []Statement // List of generated statements.

	predefine  map[string]string // Predefines
	evaluating bool              // Set while inside a $(...) evaluation.
	Label      map[string]int    // Map of labels to addresses.
	Equate     map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// registerOf returns the operand of a register name r0..r7.
func registerOf(word string) (op Operand, ok bool) {
	if len(word) != 2 || word[0] != 'r' || word[1] < '0' || word[1] > '7' {
		return
	}
	return RegisterOperand(int(word[1] - '0')), true
}

// validName returns true if word can name a label or equate.
func validName(word string) bool {
	if _, is_reg := registerOf(word); is_reg {
		return false
	}
	return nameRegexp.MatchString(word)
}

// splitQuoted walks text, calling fn for every rune outside of quotes.
// Returning false from fn stops the walk.
func splitQuoted(text string, fn func(n int, r rune) bool) (quote rune) {
	escaped := false
	for n, r := range text {
		switch {
		case quote != 0:
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		default:
			if !fn(n, r) {
				return
			}
		}
	}
	return
}

// stripComment removes a ';' comment from a line.
func stripComment(text string) string {
	end := len(text)
	splitQuoted(text, func(n int, r rune) bool {
		if r == ';' {
			end = n
			return false
		}
		return true
	})
	return text[:end]
}

// splitWords splits a line on white space, keeping quoted text and $(...)
// expressions as single words.
func splitWords(line string) (words []string, err error) {
	var word strings.Builder
	var quote rune
	depth := 0
	escaped := false

	for _, r := range line + " " {
		switch {
		case quote != 0:
			word.WriteRune(r)
			if escaped {
				escaped = false
			} else if r == '\\' {
				escaped = true
			} else if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			word.WriteRune(r)
		case unicode.IsSpace(r) && depth == 0:
			if word.Len() > 0 {
				words = append(words, word.String())
				word.Reset()
			}
		default:
			switch r {
			case '(':
				depth++
			case ')':
				depth--
			}
			word.WriteRune(r)
		}
	}

	if quote != 0 || depth != 0 {
		err = ErrStringSyntax
	}

	return
}

// valueOf returns the integer value of a number, character, or $(...)
// expression.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	switch {
	case strings.HasPrefix(word, "'"):
		var str string
		str, err = strconv.Unquote(word)
		if err != nil || utf8.RuneCountInString(str) != 1 {
			err = ErrParseValue(word)
			return
		}
		r, _ := utf8.DecodeRuneInString(str)
		value = int64(r)
	case strings.HasPrefix(word, "$(") && strings.HasSuffix(word, ")"):
		value, err = asm.parenEval(word[2 : len(word)-1])
	default:
		value, err = strconv.ParseInt(word, 0, 64)
		if err != nil {
			err = ErrParseValue(word)
		}
	}

	return
}

// resolve finds the value of a word, following equates and labels.
// Register names resolve to their operand value.
func (asm *Assembler) resolve(word string) (value int64, register bool, err error) {
	for range equateDepth {
		equate, ok := asm.Equate[word]
		if !ok {
			break
		}
		word = equate
	}

	if op, ok := registerOf(word); ok {
		value = int64(op)
		register = true
		return
	}

	if ip, ok := asm.Label[word]; ok {
		value = int64(ip)
		return
	}

	if nameRegexp.MatchString(word) {
		err = ErrLabelMissing(word)
		return
	}

	value, err = asm.valueOf(word)
	return
}

// operandOf encodes an instruction operand. Negative literals are reduced
// modulo the word size.
func (asm *Assembler) operandOf(word string) (op Operand, err error) {
	value, register, err := asm.resolve(word)
	if err != nil {
		return
	}

	if register {
		op = Operand(value)
		return
	}

	if value < 0 && value >= -MEMORY_SIZE {
		value += MEMORY_SIZE
	}
	if value < 0 || value >= MEMORY_SIZE {
		err = ErrParseValue(word)
		return
	}

	op = Operand(value)
	return
}

// rawOf encodes a .word value, which may be any 16 bit quantity.
func (asm *Assembler) rawOf(word string) (code Word, err error) {
	value, _, err := asm.resolve(word)
	if err != nil {
		return
	}

	if value < 0 || value > 0xffff {
		err = ErrParseValue(word)
		return
	}

	code = Word(value)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	if asm.evaluating {
		// Expressions do not nest through equates.
		err = ErrParseExpression(expr)
		return
	}
	asm.evaluating = true
	defer func() { asm.evaluating = false }()

	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		var value int64
		var register bool
		value, register, err = asm.resolve(key)
		if err != nil || register {
			// Ignore non-integer equates.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value)
	}
	for key, ip := range asm.Label {
		if _, ok := pred[key]; !ok {
			pred[key] = starlark.MakeInt(ip)
		}
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// sizeOf returns the count of words a statement generates.
func (asm *Assembler) sizeOf(words []string) (size int, err error) {
	switch words[0] {
	case ".word":
		size = len(words) - 1
		if size == 0 {
			err = ErrOperandCount
		}
		return
	case ".string":
		if len(words) != 2 {
			err = ErrOperandCount
			return
		}
		var str string
		str, err = strconv.Unquote(words[1])
		if err != nil {
			err = ErrStringSyntax
			return
		}
		size = len(str)
		return
	}

	if strings.HasPrefix(words[0], ".") {
		err = ErrDirectiveInvalid
		return
	}

	op, ok := LookupOpcode(words[0])
	if !ok {
		err = ErrMnemonicInvalid
		return
	}
	if len(words)-1 != op.Operands() {
		err = ErrOperandCount
		return
	}

	size = op.Arity()
	return
}

// encode generates the words of a statement.
func (asm *Assembler) encode(words []string) (codes []Word, err error) {
	switch words[0] {
	case ".word":
		for _, word := range words[1:] {
			var code Word
			code, err = asm.rawOf(word)
			if err != nil {
				return
			}
			codes = append(codes, code)
		}
		return
	case ".string":
		str, _ := strconv.Unquote(words[1])
		for n := range len(str) {
			codes = append(codes, Word(str[n]))
		}
		return
	}

	op, _ := LookupOpcode(words[0])
	codes = append(codes, Word(op))
	for _, word := range words[1:] {
		var arg Operand
		arg, err = asm.operandOf(word)
		if err != nil {
			return
		}
		codes = append(codes, Word(arg))
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.Statement = asm.Statement[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	// First pass: labels, equates, and statement sizes.
	ip := 0
	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))

		var words []string
		words, err = splitWords(line)
		if err != nil {
			return
		}

		for len(words) > 0 && strings.HasSuffix(words[0], ":") {
			label := strings.TrimSuffix(words[0], ":")
			if !validName(label) {
				err = ErrLabelSyntax
				return
			}
			if _, ok := asm.Label[label]; ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = ip
			words = words[1:]
		}

		if len(words) == 0 {
			continue
		}

		// .equ NAME VALUE
		if words[0] == ".equ" {
			if len(words) != 3 || !validName(words[1]) {
				err = ErrEquateSyntax
				return
			}
			if _, ok := asm.Equate[words[1]]; ok {
				err = ErrEquateDuplicate
				return
			}
			asm.Equate[words[1]] = words[2]
			continue
		}

		var size int
		size, err = asm.sizeOf(words)
		if err != nil {
			return
		}

		asm.Statement = append(asm.Statement, Statement{
			LineNo: lineno,
			Ip:     ip,
			Words:  words,
		})

		ip += size
		if ip > MEMORY_SIZE {
			err = ErrProgramTooLarge
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Second pass: encode, now that all labels are known.
	for n := range asm.Statement {
		st := &asm.Statement[n]
		lineno = st.LineNo
		line = strings.Join(st.Words, " ")

		st.Codes, err = asm.encode(st.Words)
		if err != nil {
			return
		}
	}

	prog = &Program{
		Statements: slices.Clone(asm.Statement),
	}

	return
}

// Defines returns an iterator over the system equates of the assembler.
func Defines() iter.Seq2[string, string] {
	return maps.All(sysEquate)
}
