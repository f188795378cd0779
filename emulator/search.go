package emulator

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/io"
)

// Search looks for the register value that lets a program pass a check,
// by running a fresh emulator for every candidate value.
type Search struct {
	Verbose bool // If set, logs every rejected candidate.

	Image   []byte      // Program image.
	Patches []cpu.Patch // Patches applied to every run.
	Script  string      // Input script queued for every run.

	Register   int      // Register forced to the candidate.
	ForceIp    cpu.Word // The register is forced when ip reaches ForceIp.
	RejectIp   cpu.Word // A run reaching RejectIp...
	RejectText string   // ...having printed RejectText is rejected.

	First cpu.Word // First candidate.
	Last  cpu.Word // Last candidate, exclusive.

	Workers   int // Parallel runs; defaults to GOMAXPROCS.
	StepLimit int // Steps per run before it is rejected; zero for no limit.

	// Report, if set, is called for every tried candidate. It may be
	// called from several goroutines at once.
	Report func(code cpu.Word, accepted bool)
}

// TeleporterSearch returns the search for the teleporter register value
// of the challenge binary.
func TeleporterSearch(image []byte, script string) *Search {
	return &Search{
		Image:      image,
		Patches:    cpu.NopPatches(0x156b, 8),
		Script:     script,
		Register:   SENTINEL_REGISTER,
		ForceIp:    0x0708,
		RejectIp:   6065,
		RejectText: "Nothing else seems to happen",
		First:      1,
		Last:       cpu.WORD_MASK,
	}
}

// Try runs the program once with the candidate code. A run is accepted
// when it halts, or runs out of scripted input, without being rejected.
func (s *Search) Try(ctx context.Context, code cpu.Word) (accepted bool, err error) {
	capture := &io.Capture{}
	emu := NewEmulator(capture)

	err = emu.Load(s.Image, s.Patches...)
	if err != nil {
		return
	}
	emu.LoadInputs(s.Script)

	for n := 1; ; n++ {
		status := emu.Step()
		switch status.Ip {
		case s.ForceIp:
			status.Register[s.Register] = code
		case s.RejectIp:
			if capture.Contains(s.RejectText) {
				return
			}
		}

		switch status.State {
		case cpu.STATE_HALTED:
			accepted = true
			return
		case cpu.STATE_ERROR:
			accepted = errors.Is(status.Err, io.ErrInputClosed)
			return
		}

		if s.StepLimit > 0 && n >= s.StepLimit {
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

// Run tries every candidate, in parallel, and returns the lowest accepted
// code.
func (s *Search) Run(ctx context.Context) (code cpu.Word, err error) {
	if s.Register < 0 || s.Register >= cpu.REGISTER_COUNT {
		err = cpu.ErrInvalidOperand
		return
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var mutex sync.Mutex
	found := false

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for candidate := s.First; candidate < s.Last; candidate++ {
		mutex.Lock()
		done := found
		mutex.Unlock()
		if done || ctx.Err() != nil {
			break
		}

		group.Go(func() error {
			ok, err := s.Try(ctx, candidate)
			if err != nil {
				return err
			}
			if s.Report != nil {
				s.Report(candidate, ok)
			}
			if s.Verbose && !ok {
				log.Printf("search: code %d known bad", candidate)
			}
			if ok {
				mutex.Lock()
				if !found || candidate < code {
					code = candidate
					found = true
				}
				mutex.Unlock()
			}
			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return
	}

	if !found {
		err = ErrNoCode
	}

	return
}
