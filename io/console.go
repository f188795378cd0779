package io

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Console writes machine output to an io.Writer, one character per Emit.
type Console struct {
	Writer io.Writer
}

var _ Output = (*Console)(nil)

func (co *Console) Emit(char uint16) (err error) {
	var buf [utf8.UTFMax]byte
	data := buf[:0]
	if char < utf8.RuneSelf {
		data = append(data, byte(char))
	} else {
		data = utf8.AppendRune(data, rune(char))
	}

	_, err = co.Writer.Write(data)
	return
}

// Capture collects machine output in memory.
type Capture struct {
	text strings.Builder
}

var _ Output = (*Capture)(nil)

func (ca *Capture) Emit(char uint16) error {
	ca.text.WriteRune(rune(char))
	return nil
}

// String returns all captured output.
func (ca *Capture) String() string {
	return ca.text.String()
}

// Contains returns true if the captured output contains substr.
func (ca *Capture) Contains(substr string) bool {
	return strings.Contains(ca.text.String(), substr)
}

// Reset discards the captured output.
func (ca *Capture) Reset() {
	ca.text.Reset()
}

// Tee emits every character to all outputs, stopping at the first error.
type Tee []Output

var _ Output = (Tee)(nil)

func (tee Tee) Emit(char uint16) (err error) {
	for _, out := range tee {
		err = out.Emit(char)
		if err != nil {
			return
		}
	}
	return
}
