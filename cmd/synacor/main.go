// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command synacor runs, disassembles, assembles, and debugs synacor
// challenge binaries.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/emulator"
	"github.com/ezrec/synacor/io"
	"github.com/ezrec/synacor/script"
)

// options common to all verbs.
type options struct {
	file       string
	inputs     string
	patches    string
	teleporter bool
	verbose    bool
	trace      string
	output     string
}

func (opt *options) flags(fs *flag.FlagSet) {
	fs.StringVar(&opt.file, "f", "", "Path to the binary")
	fs.StringVar(&opt.inputs, "i", "", "Input script, one line per input to submit to the program")
	fs.StringVar(&opt.patches, "p", "", "Patch file of 'address value' lines")
	fs.BoolVar(&opt.teleporter, "patch-teleporter", false, "NOP out the teleporter check")
	fs.BoolVar(&opt.verbose, "v", false, "Verbose mode")
	fs.StringVar(&opt.trace, "t", "", "Write the verbose trace to `file`")
	fs.StringVar(&opt.output, "o", "-", "Output file")
}

// setup applies the logging options, and checks the binary was named.
func (opt *options) setup(fs *flag.FlagSet) {
	if fs.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", fs.Name(), fs.Args())
	}
	if len(opt.file) == 0 {
		log.Fatalf("%v: -f is required", fs.Name())
	}
	if len(opt.trace) != 0 {
		tf, err := os.Create(opt.trace)
		if err != nil {
			log.Fatalf("%v: %v", opt.trace, err)
		}
		log.SetOutput(tf)
		opt.verbose = true
	}
}

// image reads the binary.
func (opt *options) image() []byte {
	image, err := os.ReadFile(opt.file)
	if err != nil {
		log.Fatalf("%v: %v", opt.file, err)
	}
	return image
}

// script reads the input script, if any.
func (opt *options) script() string {
	if len(opt.inputs) == 0 {
		return ""
	}
	text, err := os.ReadFile(opt.inputs)
	if err != nil {
		log.Fatalf("%v: %v", opt.inputs, err)
	}
	return string(text)
}

// patchList collects the requested patches.
func (opt *options) patchList() (patches []cpu.Patch) {
	if opt.teleporter {
		patches = append(patches, emulator.TeleporterPatches...)
	}
	if len(opt.patches) != 0 {
		inf, err := os.Open(opt.patches)
		if err != nil {
			log.Fatalf("%v: %v", opt.patches, err)
		}
		defer inf.Close()
		more, err := cpu.ParsePatches(inf)
		if err != nil {
			log.Fatalf("%v: %v", opt.patches, err)
		}
		patches = append(patches, more...)
	}
	return
}

// create opens the output file, or stdout for "-". The returned close
// function leaves stdout open.
func (opt *options) create() (ouf *os.File, done func()) {
	if opt.output == "-" {
		return os.Stdout, func() {}
	}
	ouf, err := os.Create(opt.output)
	if err != nil {
		log.Fatalf("%v: %v", opt.output, err)
	}
	done = func() {
		err := ouf.Close()
		if err != nil {
			log.Printf("%v: %v", opt.output, err)
		}
	}
	return
}

// load creates an emulator with the binary, patches and script loaded.
func (opt *options) load(out io.Output) (emu *emulator.Emulator) {
	emu = emulator.NewEmulator(out)
	emu.Verbose = opt.verbose

	err := emu.Load(opt.image(), opt.patchList()...)
	if err != nil {
		log.Fatalf("%v: %v", opt.file, err)
	}
	emu.LoadInputs(opt.script())

	return
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <verb> [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "verbs: run, disassemble, assemble, find, script, debug\n")
	os.Exit(2)
}

func main() {
	log.SetPrefix("synacor: ")
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verb := os.Args[1]
	fs := flag.NewFlagSet(verb, flag.ExitOnError)
	opt := &options{}
	opt.flags(fs)

	switch verb {
	case "run":
		sentinel := fs.Bool("sentinel", true, "Let the '$' input character set r7")
		fs.Parse(os.Args[2:])
		opt.setup(fs)
		doRun(ctx, opt, *sentinel)
	case "disassemble":
		fs.Parse(os.Args[2:])
		opt.setup(fs)
		doDisassemble(opt)
	case "assemble":
		fs.Parse(os.Args[2:])
		opt.setup(fs)
		doAssemble(opt)
	case "find":
		workers := fs.Int("workers", 0, "Parallel runs, default GOMAXPROCS")
		limit := fs.Int("limit", 0, "Steps per candidate, 0 for no limit")
		fs.Parse(os.Args[2:])
		opt.setup(fs)
		doFind(ctx, opt, *workers, *limit)
	case "script":
		driver := fs.String("l", "", "Lua driver `file`")
		fs.Parse(os.Args[2:])
		opt.setup(fs)
		doScript(ctx, opt, *driver)
	case "debug":
		fs.Parse(os.Args[2:])
		opt.setup(fs)
		doDebug(opt)
	default:
		usage()
	}
}

// emit writes text to a machine output sink.
func emit(out io.Output, text string) {
	for _, r := range text {
		out.Emit(uint16(r))
	}
}

func doRun(ctx context.Context, opt *options, sentinel bool) {
	ouf, done := opt.create()
	defer done()

	var out io.Output = &io.Console{Writer: ouf}
	var interactive io.LineReader = io.NewLines(os.Stdin)

	if ouf == os.Stdout && io.IsTerminal(os.Stdin) {
		tt, err := io.OpenTerminal(os.Stdin, os.Stdout)
		if err != nil {
			log.Fatal(err)
		}
		defer tt.Close()
		out = tt
		interactive = tt
	}

	emu := opt.load(out)
	defer emu.Close()
	emu.SetSentinel(sentinel)
	emu.Queue.Interactive = interactive

	err := emu.Run(ctx, 0)
	if err != nil && !errors.Is(err, io.ErrInputClosed) {
		log.Print(err)
	}

	emit(out, "\n-----\n"+emu.Cpu.String())
}

func doDisassemble(opt *options) {
	st := &cpu.Store{}
	err := st.Load(opt.image(), opt.patchList()...)
	if err != nil {
		log.Fatalf("%v: %v", opt.file, err)
	}

	ouf, done := opt.create()
	defer done()

	err = cpu.Disassemble(ouf, st.Memory[:])
	if err != nil {
		log.Fatalf("%v: %v", opt.output, err)
	}
}

func doAssemble(opt *options) {
	inf, err := os.Open(opt.file)
	if err != nil {
		log.Fatalf("%v: %v", opt.file, err)
	}
	defer inf.Close()

	asm := emulator.NewEmulator(nil).Assembler()
	asm.Verbose = opt.verbose
	prog, err := asm.Parse(inf)
	if err != nil {
		log.Fatalf("%v: %v", opt.file, err)
	}

	ouf, done := opt.create()
	defer done()

	_, err = ouf.Write(prog.Image())
	if err != nil {
		log.Fatalf("%v: %v", opt.output, err)
	}
}

func doFind(ctx context.Context, opt *options, workers int, limit int) {
	search := emulator.TeleporterSearch(opt.image(), opt.script())
	search.Patches = append(search.Patches, opt.patchList()...)
	search.Verbose = opt.verbose
	search.Workers = workers
	search.StepLimit = limit
	search.Report = func(code cpu.Word, accepted bool) {
		if !accepted {
			fmt.Printf("Code %d known bad\n", code)
		}
	}

	code, err := search.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Code is %d\n", code)
}

func doScript(ctx context.Context, opt *options, driver string) {
	if len(driver) == 0 {
		log.Fatalf("script: -l is required")
	}

	ouf, done := opt.create()
	defer done()

	capture := &io.Capture{}
	emu := opt.load(io.Tee{&io.Console{Writer: ouf}, capture})
	defer emu.Close()
	emu.Queue.Interactive = io.NewLines(os.Stdin)

	sc := script.NewScript(emu, capture)
	defer sc.Close()

	err := sc.DoFile(ctx, driver)
	if err != nil {
		log.Fatalf("%v: %v", driver, err)
	}
}
