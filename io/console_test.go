package io

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_Emit(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	co := &Console{Writer: &buf}

	for _, char := range []uint16{'A', '\n', 0xe9} {
		assert.NoError(co.Emit(char))
	}
	assert.Equal("A\né", buf.String())
}

func TestCapture(t *testing.T) {
	assert := assert.New(t)

	ca := &Capture{}
	for _, char := range "Nothing else" {
		ca.Emit(uint16(char))
	}
	assert.Equal("Nothing else", ca.String())
	assert.True(ca.Contains("else"))
	assert.False(ca.Contains("Code"))

	ca.Reset()
	assert.Equal("", ca.String())
}

func TestTee(t *testing.T) {
	assert := assert.New(t)

	a := &Capture{}
	b := &Capture{}
	tee := Tee{a, b}
	assert.NoError(tee.Emit('z'))
	assert.Equal("z", a.String())
	assert.Equal("z", b.String())

	errFull := errors.New("full")
	c := &Capture{}
	tee = Tee{OutputFunc(func(char uint16) error { return errFull }), c}
	assert.ErrorIs(tee.Emit('z'), errFull)
	assert.Equal("", c.String())
}
