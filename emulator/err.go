package emulator

import (
	"errors"

	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	ErrStepLimit = errors.New(f("step limit reached"))
	ErrNoCode    = errors.New(f("no code found"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Ip     uint16
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d ip %04x %v", err.LineNo, err.Ip, err.Err)
	}
	return f("ip %04x %v", err.Ip, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
