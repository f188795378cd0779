package io

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal is a raw mode terminal providing line editing for interactive
// input, and translating output newlines.
type Terminal struct {
	fd    int
	state *term.State
	term  *term.Terminal
}

var (
	_ Output     = (*Terminal)(nil)
	_ LineReader = (*Terminal)(nil)
)

// OpenTerminal puts the terminal on in into raw mode. It fails with
// ErrNotTerminal if in is not a terminal.
func OpenTerminal(in *os.File, out io.Writer) (tt *Terminal, err error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		err = ErrNotTerminal
		return
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		err = errors.Join(ErrNotTerminal, err)
		return
	}

	rw := struct {
		io.Reader
		io.Writer
	}{in, out}

	tt = &Terminal{
		fd:    fd,
		state: state,
		term:  term.NewTerminal(rw, ""),
	}

	return
}

// IsTerminal returns true if file is a terminal.
func IsTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

func (tt *Terminal) ReadLine() (line string, err error) {
	return tt.term.ReadLine()
}

func (tt *Terminal) Emit(char uint16) (err error) {
	_, err = tt.term.Write([]byte(string(rune(char))))
	return
}

// Close restores the terminal state.
func (tt *Terminal) Close() error {
	return term.Restore(tt.fd, tt.state)
}
