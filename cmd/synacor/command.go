package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	ErrCommandUnknown = errors.New(f("unknown command"))
	ErrCommandArgs    = errors.New(f("bad command arguments"))
)

// command is a parsed debugger command line.
type command struct {
	name string     // Canonical command name.
	args []cpu.Word // Numeric arguments.
	text string     // Text argument of 'input'.
}

var commandAlias = map[string]string{
	"s": "step", "step": "step",
	"c": "continue", "continue": "continue",
	"b": "break", "break": "break",
	"r": "reg", "reg": "reg",
	"m": "poke", "poke": "poke",
	"i": "input", "input": "input",
	"q": "quit", "quit": "quit", "exit": "quit",
}

// commandArgs lists the minimum and maximum numeric argument counts.
var commandArgs = map[string][2]int{
	"step":     {0, 1},
	"continue": {0, 0},
	"break":    {1, 1},
	"reg":      {2, 2},
	"poke":     {2, 2},
	"quit":     {0, 0},
}

// parseCommand parses a debugger command line.
func parseCommand(line string) (cmd command, err error) {
	line = strings.TrimSpace(line)
	name, rest, _ := strings.Cut(line, " ")

	cmd.name = commandAlias[name]
	switch cmd.name {
	case "":
		err = ErrCommandUnknown
		return
	case "input":
		cmd.text = strings.TrimSpace(rest)
		return
	}

	words := strings.Fields(rest)
	limits := commandArgs[cmd.name]
	if len(words) < limits[0] || len(words) > limits[1] {
		err = ErrCommandArgs
		return
	}

	for _, word := range words {
		var value uint64
		value, err = strconv.ParseUint(word, 0, 16)
		if err != nil {
			err = errors.Join(ErrCommandArgs, err)
			return
		}
		cmd.args = append(cmd.args, cpu.Word(value))
	}

	switch cmd.name {
	case "reg":
		if cmd.args[0] >= cpu.REGISTER_COUNT {
			err = ErrCommandArgs
		}
	case "break", "poke":
		if cmd.args[0] >= cpu.MEMORY_SIZE {
			err = ErrCommandArgs
		}
	}

	return
}
