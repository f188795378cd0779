package cpu

import (
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/synacor/io"
)

// State is the execution state of the CPU.
type State int

const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
	STATE_ERROR   = State(2) // error
)

func (state State) String() string {
	switch state {
	case STATE_RUNNING:
		return "running"
	case STATE_HALTED:
		return "halted"
	case STATE_ERROR:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(state))
}

// Status is the machine state reported after every step.
type Status struct {
	State    State      // Execution state.
	Ip       Word       // Instruction pointer of the next step.
	Register *Registers // Live view of the register bank.
	Err      error      // Fault when State is STATE_ERROR.
}

// Running returns true while further steps will execute.
func (st Status) Running() bool {
	return st.State == STATE_RUNNING
}

// Trace observes each instruction before it executes. It must not modify
// the CPU.
type Trace func(code Code)

// Cpu is the simulation context of one synacor machine. It exclusively
// owns its memory, registers, stack and input.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Store       // Memory and register bank.
	Ip    Word  // Current instruction pointer.
	Stack Stack // Stack simulation.
	State State // Execution state.
	Err   error // Fault, once State is STATE_ERROR.
	Ticks int   // Executed instruction counter.

	Input  io.Input  // Source of IN characters.
	Output io.Output // Sink of OUT characters.
	Trace  Trace     // Optional per-instruction observer.
}

// NewCpu creates a new CPU with zeroed memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}
	return
}

// Load an image and its patches, and reset the execution state.
func (cpu *Cpu) Load(image []byte, patches ...Patch) (err error) {
	err = cpu.Store.Load(image, patches...)
	if err != nil {
		return
	}

	cpu.Reset()

	if cpu.Verbose {
		log.Printf("cpu: loaded %d words, %d patches", len(image)/2, len(patches))
	}

	return
}

// Reset the execution state: ip, stack, state and counters. Memory and
// registers are left as they are.
func (cpu *Cpu) Reset() {
	cpu.Ip = 0
	cpu.Stack.Reset()
	cpu.State = STATE_RUNNING
	cpu.Err = nil
	cpu.Ticks = 0
}

// Status returns the current machine state.
func (cpu *Cpu) Status() Status {
	return Status{
		State:    cpu.State,
		Ip:       cpu.Ip,
		Register: &cpu.Register,
		Err:      cpu.Err,
	}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "IP: %04X\n", uint16(cpu.Ip))
	fmt.Fprintf(&sb, "state: %v\n", cpu.State)
	for n, value := range cpu.Register {
		fmt.Fprintf(&sb, "   r%d: %04X\n", n, uint16(value))
	}
	top, ok := cpu.Stack.Peek()
	if ok {
		fmt.Fprintf(&sb, "stack: %04X (%d)\n", uint16(top), cpu.Stack.Len())
	} else {
		fmt.Fprintf(&sb, "stack: ----\n")
	}
	return sb.String()
}

// Step executes a single instruction, and returns the resulting state.
// Once halted or faulted, Step does nothing.
func (cpu *Cpu) Step() (status Status) {
	if cpu.State == STATE_RUNNING {
		cpu.step()
	}

	return cpu.Status()
}

func (cpu *Cpu) step() {
	ip := cpu.Ip & WORD_MASK

	code, ok := Decode(cpu.Memory[:], ip)
	if !ok {
		cpu.fault(code, ErrOpcode(cpu.Memory[ip]))
		return
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", ip, code)
	}

	if cpu.Trace != nil {
		cpu.Trace(code)
	}

	cpu.Ip = (ip + Word(code.Op.Arity())) & WORD_MASK
	cpu.Ticks++

	halt, err := cpu.Execute(code)
	switch {
	case err != nil:
		cpu.fault(code, err)
	case halt:
		cpu.State = STATE_HALTED
		if cpu.Verbose {
			log.Printf("cpu: halted at %04x", ip)
		}
	}
}

func (cpu *Cpu) fault(code Code, err error) {
	cpu.State = STATE_ERROR
	cpu.Err = &ErrStep{Code: code, Err: err}
	if cpu.Verbose {
		log.Printf("cpu: %v", cpu.Err)
	}
}

// Execute applies a decoded instruction whose ip has already been advanced.
// Effects applied before a failure are kept.
func (cpu *Cpu) Execute(code Code) (halt bool, err error) {
	a, b, c := code.Operand[0], code.Operand[1], code.Operand[2]

	var x, y Word

	// sources resolves two source operands into x and y.
	sources := func(p, q Operand) (err error) {
		x, err = cpu.Source(p)
		if err != nil {
			return
		}
		y, err = cpu.Source(q)
		return
	}

	switch code.Op {
	case OP_HALT:
		halt = true
	case OP_SET:
		x, err = cpu.Source(b)
		if err == nil {
			err = cpu.Set(a, x)
		}
	case OP_PUSH:
		x, err = cpu.Source(a)
		if err == nil {
			cpu.Stack.Push(x)
		}
	case OP_POP:
		var slot *Word
		slot, err = cpu.Destination(a)
		if err != nil {
			return
		}
		var ok bool
		x, ok = cpu.Stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		*slot = x
	case OP_EQ:
		err = sources(b, c)
		if err == nil {
			err = cpu.Set(a, boolWord(x == y))
		}
	case OP_GT:
		err = sources(b, c)
		if err == nil {
			err = cpu.Set(a, boolWord(x > y))
		}
	case OP_JMP:
		x, err = cpu.Source(a)
		if err == nil {
			cpu.Ip = x & WORD_MASK
		}
	case OP_JT, OP_JF:
		x, err = cpu.Source(a)
		if err != nil {
			return
		}
		if (x != 0) == (code.Op == OP_JT) {
			y, err = cpu.Source(b)
			if err == nil {
				cpu.Ip = y & WORD_MASK
			}
		}
	case OP_ADD:
		err = sources(b, c)
		if err == nil {
			err = cpu.Set(a, Word((uint32(x)+uint32(y))%MEMORY_SIZE))
		}
	case OP_MULT:
		err = sources(b, c)
		if err == nil {
			err = cpu.Set(a, Word((uint32(x)*uint32(y))%MEMORY_SIZE))
		}
	case OP_MOD:
		err = sources(b, c)
		if err != nil {
			return
		}
		if y == 0 {
			err = ErrDivideByZero
			return
		}
		err = cpu.Set(a, x%y)
	case OP_AND:
		err = sources(b, c)
		if err == nil {
			err = cpu.Set(a, x&y)
		}
	case OP_OR:
		err = sources(b, c)
		if err == nil {
			err = cpu.Set(a, x|y)
		}
	case OP_NOT:
		x, err = cpu.Source(b)
		if err == nil {
			err = cpu.Set(a, ^x&WORD_MASK)
		}
	case OP_RMEM:
		x, err = cpu.Source(b)
		if err != nil {
			return
		}
		y, err = cpu.Read(x)
		if err == nil {
			err = cpu.Set(a, y)
		}
	case OP_WMEM:
		err = sources(a, b)
		if err == nil {
			err = cpu.Write(x, y)
		}
	case OP_CALL:
		x, err = cpu.Source(a)
		if err == nil {
			cpu.Stack.Push(cpu.Ip)
			cpu.Ip = x & WORD_MASK
		}
	case OP_RET:
		var ok bool
		x, ok = cpu.Stack.Pop()
		if !ok {
			// Returning from an empty stack is a normal exit.
			halt = true
			return
		}
		cpu.Ip = x & WORD_MASK
	case OP_OUT:
		x, err = cpu.Source(a)
		if err == nil && cpu.Output != nil {
			err = cpu.Output.Emit(uint16(x))
		}
	case OP_IN:
		err = cpu.input(a)
	case OP_NOOP:
		// pass
	default:
		err = ErrOpcode(code.Op)
	}

	return
}

// input services the IN instruction.
func (cpu *Cpu) input(a Operand) (err error) {
	slot, err := cpu.Destination(a)
	if err != nil {
		return
	}

	if cpu.Input == nil {
		err = io.ErrInputClosed
		return
	}

	char, ok, err := cpu.Input.Fetch()
	if err != nil || !ok {
		return
	}

	*slot = Word(char) & WORD_MASK
	return
}

func boolWord(value bool) Word {
	if value {
		return 1
	}
	return 0
}
