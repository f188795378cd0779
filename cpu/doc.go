// Package cpu implements the synacor virtual machine, its disassembler and
// a small assembler.
//
// The machine has 32768 words of memory, eight registers (r0-r7) and an
// unbounded stack. Every value is a 15-bit word; instruction operands in
// 32768..32775 name a register instead of a literal. The CPU executes one
// instruction per Step, exposing its state between instructions so a
// caller can observe or modify it mid-run.
//
// The assembler provides a line oriented assembly language for the same
// instruction set, supporting labels, equates, and compile-time Starlark
// expression evaluation.
package cpu
