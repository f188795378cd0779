// Package script drives an emulator from a Lua program, which may inspect
// and modify the machine between any two instructions.
package script

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/emulator"
	"github.com/ezrec/synacor/io"
	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var ErrScript = errors.New(f("script"))

// Script is a Lua driver bound to one emulator.
type Script struct {
	Emulator *emulator.Emulator
	Capture  *io.Capture // Output seen by output(); may be nil.

	state *lua.LState
}

// NewScript creates a Lua state exposing the emulator.
func NewScript(emu *emulator.Emulator, capture *io.Capture) (sc *Script) {
	sc = &Script{
		Emulator: emu,
		Capture:  capture,
		state:    lua.NewState(),
	}

	for name, fn := range map[string]lua.LGFunction{
		"step":   sc.luaStep,
		"run":    sc.luaRun,
		"state":  sc.luaState,
		"ip":     sc.luaIp,
		"setip":  sc.luaSetIp,
		"reg":    sc.luaReg,
		"setreg": sc.luaSetReg,
		"peek":   sc.luaPeek,
		"poke":   sc.luaPoke,
		"push":   sc.luaPush,
		"pop":    sc.luaPop,
		"input":  sc.luaInput,
		"output": sc.luaOutput,
		"clear":  sc.luaClear,
		"disasm": sc.luaDisasm,
	} {
		sc.state.SetGlobal(name, sc.state.NewFunction(fn))
	}

	return
}

// Close releases the Lua state.
func (sc *Script) Close() {
	sc.state.Close()
}

// DoString runs Lua source text.
func (sc *Script) DoString(ctx context.Context, source string) (err error) {
	sc.state.SetContext(ctx)
	err = sc.state.DoString(source)
	if err != nil {
		err = errors.Join(ErrScript, err)
	}
	return
}

// DoFile runs a Lua source file.
func (sc *Script) DoFile(ctx context.Context, path string) (err error) {
	sc.state.SetContext(ctx)
	err = sc.state.DoFile(path)
	if err != nil {
		err = errors.Join(ErrScript, err)
	}
	return
}

// pushStatus returns the state name and ip to Lua.
func (sc *Script) pushStatus(L *lua.LState, status cpu.Status) int {
	L.Push(lua.LString(status.State.String()))
	L.Push(lua.LNumber(status.Ip))
	return 2
}

// checkWord checks argument n is a value in 0..0xffff.
func checkWord(L *lua.LState, n int) cpu.Word {
	value := L.CheckInt(n)
	if value < 0 || value > 0xffff {
		L.ArgError(n, f("word out of range"))
	}
	return cpu.Word(value)
}

// checkAddress checks argument n is a memory address.
func checkAddress(L *lua.LState, n int) cpu.Word {
	value := L.CheckInt(n)
	if value < 0 || value >= cpu.MEMORY_SIZE {
		L.ArgError(n, f("address out of range"))
	}
	return cpu.Word(value)
}

// checkRegister checks argument n is a register index.
func checkRegister(L *lua.LState, n int) int {
	value := L.CheckInt(n)
	if value < 0 || value >= cpu.REGISTER_COUNT {
		L.ArgError(n, f("register out of range"))
	}
	return value
}

// step([count]) runs up to count instructions, stopping early once the
// machine no longer runs.
func (sc *Script) luaStep(L *lua.LState) int {
	count := L.OptInt(1, 1)
	status := sc.Emulator.Cpu.Status()
	for range count {
		status = sc.Emulator.Step()
		if !status.Running() {
			break
		}
	}
	return sc.pushStatus(L, status)
}

// run([limit]) runs until the machine stops, or limit steps.
func (sc *Script) luaRun(L *lua.LState) int {
	limit := L.OptInt(1, 0)
	ctx := L.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	err := sc.Emulator.Run(ctx, limit)
	if err != nil && !errors.Is(err, emulator.ErrStepLimit) {
		var runtime *emulator.ErrRuntime
		if !errors.As(err, &runtime) {
			L.RaiseError("%v", err)
		}
	}
	return sc.pushStatus(L, sc.Emulator.Cpu.Status())
}

func (sc *Script) luaState(L *lua.LState) int {
	return sc.pushStatus(L, sc.Emulator.Cpu.Status())
}

func (sc *Script) luaIp(L *lua.LState) int {
	L.Push(lua.LNumber(sc.Emulator.Cpu.Ip))
	return 1
}

func (sc *Script) luaSetIp(L *lua.LState) int {
	sc.Emulator.Cpu.Ip = checkAddress(L, 1)
	return 0
}

func (sc *Script) luaReg(L *lua.LState) int {
	L.Push(lua.LNumber(sc.Emulator.Cpu.Register[checkRegister(L, 1)]))
	return 1
}

func (sc *Script) luaSetReg(L *lua.LState) int {
	index := checkRegister(L, 1)
	sc.Emulator.Cpu.Register[index] = checkWord(L, 2)
	return 0
}

func (sc *Script) luaPeek(L *lua.LState) int {
	L.Push(lua.LNumber(sc.Emulator.Cpu.Memory[checkAddress(L, 1)]))
	return 1
}

func (sc *Script) luaPoke(L *lua.LState) int {
	address := checkAddress(L, 1)
	sc.Emulator.Cpu.Memory[address] = checkWord(L, 2)
	return 0
}

func (sc *Script) luaPush(L *lua.LState) int {
	sc.Emulator.Cpu.Stack.Push(checkWord(L, 1))
	return 0
}

// pop() returns the top of stack, or nil if empty.
func (sc *Script) luaPop(L *lua.LState) int {
	value, ok := sc.Emulator.Cpu.Stack.Pop()
	if !ok {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LNumber(value))
	}
	return 1
}

func (sc *Script) luaInput(L *lua.LState) int {
	sc.Emulator.LoadInputs(L.CheckString(1))
	return 0
}

func (sc *Script) luaOutput(L *lua.LState) int {
	if sc.Capture == nil {
		L.Push(lua.LString(""))
	} else {
		L.Push(lua.LString(sc.Capture.String()))
	}
	return 1
}

func (sc *Script) luaClear(L *lua.LState) int {
	if sc.Capture != nil {
		sc.Capture.Reset()
	}
	return 0
}

// disasm(address) returns the listing text and size of the instruction.
func (sc *Script) luaDisasm(L *lua.LState) int {
	line := cpu.DisassembleAt(sc.Emulator.Cpu.Memory[:], checkAddress(L, 1))
	L.Push(lua.LString(line.Text))
	L.Push(lua.LNumber(line.Size))
	return 2
}
