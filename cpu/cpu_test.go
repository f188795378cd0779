package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/synacor/io"
)

// newTestCpu returns a cpu with words loaded at address zero, and a
// builder collecting its output.
func newTestCpu(words ...Word) (cpu *Cpu, out *strings.Builder) {
	out = &strings.Builder{}
	cpu = NewCpu()
	copy(cpu.Memory[:], words)
	cpu.Output = io.OutputFunc(func(char uint16) error {
		out.WriteRune(rune(char))
		return nil
	})
	return
}

// runTestCpu steps until the cpu stops or the limit is reached.
func runTestCpu(cpu *Cpu, limit int) (status Status) {
	for range limit {
		status = cpu.Step()
		if !status.Running() {
			break
		}
	}
	return
}

type testInput struct {
	chars []uint16
	skip  bool
}

func (ti *testInput) Fetch() (char uint16, ok bool, err error) {
	if len(ti.chars) == 0 {
		err = io.ErrInputClosed
		return
	}
	char = ti.chars[0]
	ti.chars = ti.chars[1:]
	ok = !ti.skip
	return
}

func TestCpu_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	r0 := Word(REGISTER_BASE)

	table := [](struct {
		name  string
		words []Word
		r0    Word
	}){
		{"add-wrap", []Word{9, r0, 32767, 2}, 1},
		{"add", []Word{9, r0, 2, 3}, 5},
		{"mult-wrap", []Word{10, r0, 20000, 20000}, 1024},
		{"mod", []Word{11, r0, 10, 3}, 1},
		{"and", []Word{12, r0, 0x7f0f, 0x00ff}, 0x000f},
		{"or", []Word{13, r0, 0x0f00, 0x00f0}, 0x0ff0},
		{"not-zero", []Word{14, r0, 0}, 32767},
		{"not-max", []Word{14, r0, 32767}, 0},
		{"not", []Word{14, r0, 0x5555}, 0x2aaa},
		{"eq-true", []Word{4, r0, 7, 7}, 1},
		{"eq-false", []Word{4, r0, 7, 8}, 0},
		{"gt-true", []Word{5, r0, 8, 7}, 1},
		{"gt-false", []Word{5, r0, 7, 7}, 0},
		{"set", []Word{1, r0, 1234}, 1234},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(entry.words...)
		status := cpu.Step()
		assert.Equal(STATE_RUNNING, status.State, entry.name)
		assert.NoError(status.Err, entry.name)
		assert.Equal(entry.r0, cpu.Register[0], entry.name)
		assert.Equal(Word(len(entry.words)), status.Ip, entry.name)
	}
}

func TestCpu_RegisterSource(t *testing.T) {
	assert := assert.New(t)

	// add r1 r0 r0
	cpu, _ := newTestCpu(9, 32769, 32768, 32768)
	cpu.Register[0] = 20000

	cpu.Step()
	assert.Equal(Word(7232), cpu.Register[1])
}

func TestCpu_MemoryDestination(t *testing.T) {
	assert := assert.New(t)

	// set 100 r0; wmem 200 77; rmem r1 200
	cpu, _ := newTestCpu(1, 100, 32768, 16, 200, 77, 15, 32769, 200)
	cpu.Register[0] = 9

	runTestCpu(cpu, 3)
	assert.Equal(Word(9), cpu.Memory[100])
	assert.Equal(Word(77), cpu.Memory[200])
	assert.Equal(Word(77), cpu.Register[1])
}

func TestCpu_Output(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu(19, 65, 0)
	status := runTestCpu(cpu, 10)
	assert.Equal(STATE_HALTED, status.State)
	assert.NoError(status.Err)
	assert.Equal("A", out.String())

	cpu, out = newTestCpu(1, 32768, 5, 19, 32768, 0)
	status = runTestCpu(cpu, 10)
	assert.Equal(STATE_HALTED, status.State)
	assert.Equal("\x05", out.String())
}

func TestCpu_CallRet(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu(
		17, 5, // call 5
		19, 66, // out 'B'
		0,      // halt
		19, 65, // out 'A'
		18, // ret
	)

	status := cpu.Step()
	assert.Equal(Word(5), status.Ip)
	assert.Equal([]Word{2}, cpu.Stack.Data)

	status = runTestCpu(cpu, 10)
	assert.Equal(STATE_HALTED, status.State)
	assert.Equal("AB", out.String())
	assert.True(cpu.Stack.Empty())
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	// push 7; push 8; pop r1; pop r2
	cpu, _ := newTestCpu(2, 7, 2, 8, 3, 32769, 3, 32770)
	runTestCpu(cpu, 4)
	assert.Equal(Word(8), cpu.Register[1])
	assert.Equal(Word(7), cpu.Register[2])
	assert.True(cpu.Stack.Empty())
}

func TestCpu_PopEmpty(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(3, 32768)
	cpu.Register[0] = 42

	status := cpu.Step()
	assert.Equal(STATE_ERROR, status.State)
	assert.ErrorIs(status.Err, ErrStackUnderflow)
	assert.Equal(Word(42), cpu.Register[0])

	var step *ErrStep
	assert.True(errors.As(status.Err, &step))
	assert.Equal(OP_POP, step.Code.Op)
}

func TestCpu_RetEmpty(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(18)
	status := cpu.Step()
	assert.Equal(STATE_HALTED, status.State)
	assert.NoError(status.Err)
}

func TestCpu_Jumps(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		words []Word
		out   string
	}){
		{"jmp", []Word{6, 3, 0, 19, 65, 0}, "A"},
		{"jt-taken", []Word{7, 1, 4, 0, 19, 65, 0}, "A"},
		{"jt-not-taken", []Word{7, 0, 4, 0, 19, 65, 0}, ""},
		{"jf-taken", []Word{8, 0, 4, 0, 19, 65, 0}, "A"},
		{"jf-not-taken", []Word{8, 1, 4, 0, 19, 65, 0}, ""},
	}

	for _, entry := range table {
		cpu, out := newTestCpu(entry.words...)
		status := runTestCpu(cpu, 10)
		assert.Equal(STATE_HALTED, status.State, entry.name)
		assert.Equal(entry.out, out.String(), entry.name)
	}
}

func TestCpu_JumpMasked(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(6, 32768)
	cpu.Register[0] = 40000

	status := cpu.Step()
	assert.Equal(Word(40000&WORD_MASK), status.Ip)
}

func TestCpu_IpWrap(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu()
	cpu.Memory[0x7fff] = Word(OP_OUT)
	cpu.Memory[0] = 65
	cpu.Ip = 0x7fff

	status := cpu.Step()
	assert.Equal(STATE_RUNNING, status.State)
	assert.Equal(Word(1), status.Ip)
	assert.Equal("A", out.String())
}

func TestCpu_Input(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(20, 32768, 20, 32769, 0)
	cpu.Input = &testInput{chars: []uint16{'h', 'i'}}

	status := runTestCpu(cpu, 10)
	assert.Equal(STATE_HALTED, status.State)
	assert.Equal(Word('h'), cpu.Register[0])
	assert.Equal(Word('i'), cpu.Register[1])
}

func TestCpu_InputNotStored(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(20, 32768)
	cpu.Register[0] = 99
	cpu.Input = &testInput{chars: []uint16{'$'}, skip: true}

	status := cpu.Step()
	assert.Equal(STATE_RUNNING, status.State)
	assert.Equal(Word(99), cpu.Register[0])
}

func TestCpu_InputClosed(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(20, 32768)
	status := cpu.Step()
	assert.Equal(STATE_ERROR, status.State)
	assert.ErrorIs(status.Err, io.ErrInputClosed)

	cpu, _ = newTestCpu(20, 32768)
	cpu.Input = &testInput{}
	status = cpu.Step()
	assert.Equal(STATE_ERROR, status.State)
	assert.ErrorIs(status.Err, io.ErrInputClosed)
}

func TestCpu_Faults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		words []Word
		err   error
	}){
		{"opcode", []Word{99}, ErrOpcodeInvalid},
		{"opcode-max", []Word{0xffff}, ErrOpcodeInvalid},
		{"destination", []Word{1, 32776, 5}, ErrInvalidOperand},
		{"source", []Word{19, 40000}, ErrInvalidOperand},
		{"divide", []Word{11, 32768, 5, 0}, ErrDivideByZero},
		{"rmem", []Word{15, 32768, 32769}, nil},
	}

	for _, entry := range table {
		cpu, _ := newTestCpu(entry.words...)
		status := cpu.Step()
		if entry.err == nil {
			assert.Equal(STATE_RUNNING, status.State, entry.name)
			continue
		}
		assert.Equal(STATE_ERROR, status.State, entry.name)
		assert.ErrorIs(status.Err, entry.err, entry.name)
	}
}

func TestCpu_Stopped(t *testing.T) {
	assert := assert.New(t)

	cpu, out := newTestCpu(0, 19, 65)
	status := cpu.Step()
	assert.Equal(STATE_HALTED, status.State)
	assert.Equal(1, cpu.Ticks)

	status = cpu.Step()
	assert.Equal(STATE_HALTED, status.State)
	assert.Equal(Word(1), status.Ip)
	assert.Equal(1, cpu.Ticks)
	assert.Equal("", out.String())

	cpu, _ = newTestCpu(99)
	status = cpu.Step()
	err := status.Err
	status = cpu.Step()
	assert.Equal(STATE_ERROR, status.State)
	assert.Equal(err, status.Err)
}

func TestCpu_Trace(t *testing.T) {
	assert := assert.New(t)

	var ips []Word
	cpu, _ := newTestCpu(21, 19, 65, 0)
	cpu.Trace = func(code Code) {
		ips = append(ips, code.Ip)
	}

	runTestCpu(cpu, 10)
	assert.Equal([]Word{0, 1, 3}, ips)
}

func TestCpu_Status(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(21)
	status := cpu.Status()
	assert.True(status.Running())

	status.Register[7] = 3
	assert.Equal(Word(3), cpu.Register[7])
}

func TestCpu_Load(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Ip = 5
	cpu.Stack.Push(1)
	cpu.State = STATE_HALTED

	err := cpu.Load([]byte{0x13, 0x00, 0x41, 0x00})
	assert.NoError(err)
	assert.Equal(Word(0), cpu.Ip)
	assert.True(cpu.Stack.Empty())
	assert.Equal(STATE_RUNNING, cpu.State)
	assert.Equal(Word(19), cpu.Memory[0])

	text := cpu.String()
	assert.True(strings.HasPrefix(text, "IP: 0000\n"))
	assert.Contains(text, "stack: ----")
}
