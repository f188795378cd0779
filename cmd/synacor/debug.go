package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/emulator"
	"github.com/ezrec/synacor/io"
)

const (
	listingLines  = 24       // Instructions shown from ip.
	continueLimit = 50000000 // Steps before 'continue' gives up.
)

type debugger struct {
	emu    *emulator.Emulator
	breaks map[cpu.Word]bool

	listing *tview.TextView
	state   *tview.TextView
	output  *tview.TextView
	message *tview.TextView
	input   *tview.InputField
	cols    *tview.Flex
	rows    *tview.Flex
	app     *tview.Application
}

func newDebugger(opt *options) *debugger {
	d := &debugger{
		breaks: map[cpu.Word]bool{},
		listing: tview.NewTextView().
			SetWrap(false),
		state: tview.NewTextView().
			SetWrap(false),
		output: tview.NewTextView().
			SetMaxLines(1000).
			ScrollToEnd(),
		message: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}

	d.emu = opt.load(io.OutputFunc(func(char uint16) error {
		_, err := d.output.Write([]byte(string(rune(char))))
		return err
	}))

	d.listing.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.state.SetTextColor(tcell.ColorBlack)
	d.cols.
		AddItem(d.listing, 0, 2, false).
		AddItem(d.state, 20, 0, false).
		AddItem(d.output, 0, 3, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.message, 1, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := d.input.GetText()
		if line == "" {
			return
		}
		d.input.SetText("")
		d.execute(line)
		d.refresh()
	})

	d.refresh()
	return d
}

func (d *debugger) Run() error { return d.app.Run() }

// say shows a one line message under the panes.
func (d *debugger) say(format string, args ...any) {
	d.message.SetText(fmt.Sprintf(format, args...))
}

// execute runs a single command line.
func (d *debugger) execute(line string) {
	cmd, err := parseCommand(line)
	if err != nil {
		d.say("%v: %v", line, err)
		return
	}

	c := d.emu.Cpu
	switch cmd.name {
	case "step":
		count := 1
		if len(cmd.args) > 0 {
			count = int(cmd.args[0])
		}
		d.run(count, false)
	case "continue":
		d.run(continueLimit, true)
	case "break":
		addr := cmd.args[0]
		d.breaks[addr] = !d.breaks[addr]
		if d.breaks[addr] {
			d.say("set break %04x", addr)
		} else {
			delete(d.breaks, addr)
			d.say("cleared break %04x", addr)
		}
	case "reg":
		c.Register[cmd.args[0]] = cmd.args[1]
		d.say("r%d = %04x", cmd.args[0], cmd.args[1])
	case "poke":
		c.Memory[cmd.args[0]] = cmd.args[1]
		d.say("[%04x] = %04x", cmd.args[0], cmd.args[1])
	case "input":
		d.emu.LoadInputs(cmd.text + "\n")
		d.say("queued %d characters", d.emu.Queue.Len())
	case "quit":
		d.app.Stop()
	}
}

// run steps up to count instructions. It stops early when the machine
// stops, is about to wait for input, or, with breaks set, reaches a
// breakpoint.
func (d *debugger) run(count int, breaks bool) {
	c := d.emu.Cpu
	for n := range count {
		if d.emu.Queue.Len() == 0 && cpu.Opcode(c.Memory[c.Ip]) == cpu.OP_IN {
			d.say("waiting for input, use: i <text>")
			return
		}
		if breaks && n > 0 && d.breaks[c.Ip] {
			d.say("break at %04x", c.Ip)
			return
		}
		status := d.emu.Step()
		if !status.Running() {
			if status.Err != nil {
				d.say("%v: %v", status.State, status.Err)
			} else {
				d.say("%v", status.State)
			}
			return
		}
	}
	d.say("%d ticks", c.Ticks)
}

// refresh redraws the listing and state panes.
func (d *debugger) refresh() {
	c := d.emu.Cpu

	var sb strings.Builder
	ip := c.Ip
	for range listingLines {
		if int(ip) >= cpu.MEMORY_SIZE {
			break
		}
		line := cpu.DisassembleAt(c.Memory[:], ip)
		mark := "  "
		switch {
		case ip == c.Ip:
			mark = "> "
		case d.breaks[ip]:
			mark = "* "
		}
		sb.WriteString(mark)
		sb.WriteString(line.Text)
		sb.WriteByte('\n')
		ip += cpu.Word(line.Size)
	}
	d.listing.SetText(sb.String())

	var st strings.Builder
	fmt.Fprintf(&st, "%v\nticks: %d\n\n", c.State, c.Ticks)
	fmt.Fprintf(&st, "   ip: %04x\n", c.Ip)
	for n, value := range c.Register {
		fmt.Fprintf(&st, "   r%d: %04x\n", n, value)
	}
	fmt.Fprintf(&st, "\nstack: %d\n", c.Stack.Len())
	for n := c.Stack.Len() - 1; n >= 0 && n >= c.Stack.Len()-8; n-- {
		fmt.Fprintf(&st, "  %04x\n", c.Stack.Data[n])
	}
	d.state.SetText(st.String())
}

func doDebug(opt *options) {
	d := newDebugger(opt)
	err := d.Run()
	if err != nil {
		log.Fatal(err)
	}
}
