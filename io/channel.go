// Package io provides the character I/O of the synacor machine. It includes
// the buffered input queue with an interactive line fallback, the sentinel
// input decorator, and output sinks for writers, terminals and captures.
package io

// Input defines the character source of the IN instruction.
type Input interface {
	// Fetch returns the next input character. When ok is false the
	// character was consumed by the input itself and nothing is to be
	// stored.
	Fetch() (char uint16, ok bool, err error)
}

// Output defines the character sink of the OUT instruction.
type Output interface {
	// Emit consumes a single character.
	Emit(char uint16) error
}

// OutputFunc adapts a function to the Output interface.
type OutputFunc func(char uint16) error

func (fn OutputFunc) Emit(char uint16) error {
	return fn(char)
}

// LineReader supplies interactive input one line at a time, without the
// line terminator.
type LineReader interface {
	ReadLine() (line string, err error)
}
