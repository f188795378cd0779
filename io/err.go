package io

import (
	"errors"

	"github.com/ezrec/synacor/translate"
)

var f = translate.From

var (
	// Input errors
	ErrInputClosed = errors.New(f("input closed"))
	ErrNotTerminal = errors.New(f("not a terminal"))
)
