// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/internal"
	"github.com/ezrec/synacor/io"
)

const (
	SENTINEL_CHAR     = '$'   // Input character forcing the teleporter register.
	SENTINEL_REGISTER = 7     // Register set by the sentinel.
	SENTINEL_VALUE    = 25734 // Value with ack(4, 1, r7) = 6 (mod 2^15).

	CHECK_INTERVAL = 1024 // Steps between context checks in Run.
)

var _emulator_defines = map[string]string{
	"SENTINEL_CHAR":     fmt.Sprintf("%d", SENTINEL_CHAR),
	"SENTINEL_REGISTER": fmt.Sprintf("%d", SENTINEL_REGISTER),
	"SENTINEL_VALUE":    fmt.Sprintf("%d", SENTINEL_VALUE),
}

// TeleporterPatches disable the teleporter confirmation check of the
// challenge binary.
var TeleporterPatches = cpu.NopPatches(0x156b, 15)

// Emulator state. CPU + input queue + output.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if assembled.

	Queue    io.Queue    // Buffered input.
	Sentinel io.Sentinel // Sentinel decorator over Queue.
}

// NewEmulator creates a new emulator writing output to out. The sentinel
// input character is enabled.
func NewEmulator(out io.Output) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
	}

	emu.Sentinel = io.Sentinel{
		Input: &emu.Queue,
		Char:  SENTINEL_CHAR,
		Trigger: func() {
			emu.Cpu.Register[SENTINEL_REGISTER] = SENTINEL_VALUE
		},
	}

	emu.Cpu.Input = &emu.Sentinel
	emu.Cpu.Output = out

	return
}

// SetSentinel enables or disables the sentinel input character.
func (emu *Emulator) SetSentinel(enabled bool) {
	if enabled {
		emu.Cpu.Input = &emu.Sentinel
	} else {
		emu.Cpu.Input = &emu.Queue
	}
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		cpu.Defines(),
	)
}

// Assembler returns an assembler predefining the emulator's defines.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}
	return
}

// Load a binary image and its patches.
func (emu *Emulator) Load(image []byte, patches ...cpu.Patch) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Load(image, patches...)
	if err != nil {
		return
	}

	emu.Program = &cpu.Program{}
	return
}

// LoadProgram loads an assembled program, keeping its listing for LineNo.
func (emu *Emulator) LoadProgram(prog *cpu.Program, patches ...cpu.Patch) (err error) {
	err = emu.Load(prog.Image(), patches...)
	if err != nil {
		return
	}

	emu.Program = prog
	return
}

// LoadInputs queues an input script ahead of interactive input.
func (emu *Emulator) LoadInputs(script string) {
	emu.Queue.Load(script)
}

// LineNo returns the current line number for the executing statement.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Ip)
	if dbg.Statement == nil {
		return 0
	}
	return dbg.LineNo
}

// Step performs a single instruction, and reports the machine state.
func (emu *Emulator) Step() cpu.Status {
	emu.Cpu.Verbose = emu.Verbose
	return emu.Cpu.Step()
}

// Tick performs a single step of the emulator. done is set once the machine
// no longer runs; err is set if it stopped on a fault.
func (emu *Emulator) Tick() (done bool, err error) {
	lineno := emu.LineNo()
	ip := emu.Cpu.Ip

	status := emu.Step()
	switch status.State {
	case cpu.STATE_RUNNING:
		// pass
	case cpu.STATE_HALTED:
		done = true
	default:
		done = true
		err = &ErrRuntime{Ip: uint16(ip), LineNo: lineno, Err: status.Err}
	}

	return
}

// Run steps the emulator until it stops, the context is done, or limit
// steps have run. A limit of zero does not limit the run.
func (emu *Emulator) Run(ctx context.Context, limit int) (err error) {
	for n := 1; ; n++ {
		var done bool
		done, err = emu.Tick()
		if done {
			return
		}
		if limit > 0 && n >= limit {
			err = ErrStepLimit
			return
		}
		if n%CHECK_INTERVAL == 0 {
			err = ctx.Err()
			if err != nil {
				return
			}
		}
	}
}

// Close logs the final machine state when verbose.
func (emu *Emulator) Close() (err error) {
	if emu.Verbose {
		log.Printf("emulator: %d steps, %v", emu.Cpu.Ticks, emu.Cpu.State)
	}
	return
}
