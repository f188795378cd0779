package cpu

import (
	"encoding/binary"
	"iter"
)

// Statement is a line of assembled code with its source location and
// generated words.
type Statement struct {
	LineNo int      // Source line number.
	Ip     int      // Address of the first generated word.
	Words  []string // Source words, labels removed.
	Codes  []Word   // Generated words.
}

// Program is an assembled program.
type Program struct {
	Statements []Statement
}

type Debug struct {
	*Statement
	Index int
}

// Debug finds the statement that generated the word at ip.
func (prog *Program) Debug(ip Word) (dbg Debug) {
	for n, st := range prog.Statements {
		if int(ip) >= st.Ip && int(ip) < st.Ip+len(st.Codes) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(ip) - st.Ip,
			}
			break
		}
	}

	return
}

// Codes iterates over every generated word and its address.
func (prog *Program) Codes() iter.Seq2[Word, Word] {
	return func(yield func(ip Word, code Word) bool) {
		for _, st := range prog.Statements {
			for n, code := range st.Codes {
				if !yield(Word(st.Ip+n), code) {
					return
				}
			}
		}
	}
}

// Words returns the memory image of the program as words.
func (prog *Program) Words() (words []Word) {
	for ip, code := range prog.Codes() {
		for int(ip) >= len(words) {
			words = append(words, 0)
		}
		words[ip] = code
	}

	return
}

// Image returns the program as a loadable little-endian byte image.
func (prog *Program) Image() (image []byte) {
	words := prog.Words()
	image = make([]byte, 0, len(words)*2)
	for _, word := range words {
		image = binary.LittleEndian.AppendUint16(image, uint16(word))
	}

	return
}
