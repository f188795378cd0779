package cpu

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Patch is a single memory overwrite applied after an image is loaded.
type Patch struct {
	Address Word
	Value   Word
}

// ParsePatches reads 'address value' pairs, one per line. Numbers use Go
// integer syntax, so 0x156b and 5483 are the same address. Text after a
// ';' is ignored.
func ParsePatches(input io.Reader) (patches []Patch, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	for scanner.Scan() {
		lineno++
		line = strings.TrimSpace(stripComment(scanner.Text()))
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		if len(words) != 2 {
			err = ErrPatchInvalid
			return
		}

		var address, value uint64
		address, err = strconv.ParseUint(words[0], 0, 16)
		if err != nil || address >= MEMORY_SIZE {
			err = errors.Join(ErrPatchInvalid, ErrParseValue(words[0]))
			return
		}
		value, err = strconv.ParseUint(words[1], 0, 16)
		if err != nil {
			err = errors.Join(ErrPatchInvalid, ErrParseValue(words[1]))
			return
		}

		patches = append(patches, Patch{Address: Word(address), Value: Word(value)})
	}

	err = scanner.Err()
	return
}

// NopPatches returns patches overwriting count words from address with
// NOOP.
func NopPatches(address Word, count int) (patches []Patch) {
	for n := range count {
		patches = append(patches, Patch{Address: address + Word(n), Value: Word(OP_NOOP)})
	}
	return
}
