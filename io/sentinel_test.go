package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinel_Fetch(t *testing.T) {
	assert := assert.New(t)

	q := &Queue{}
	q.Load("x$y")

	triggered := 0
	sn := &Sentinel{
		Input:   q,
		Char:    '$',
		Trigger: func() { triggered++ },
	}

	char, ok, err := sn.Fetch()
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(uint16('x'), char)
	assert.Equal(0, triggered)

	_, ok, err = sn.Fetch()
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(1, triggered)

	char, ok, err = sn.Fetch()
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(uint16('y'), char)

	_, _, err = sn.Fetch()
	assert.ErrorIs(err, ErrInputClosed)
	assert.Equal(1, triggered)
}

func TestSentinel_NoTrigger(t *testing.T) {
	assert := assert.New(t)

	q := &Queue{}
	q.Load("$")

	sn := &Sentinel{Input: q, Char: '$'}
	_, ok, err := sn.Fetch()
	assert.NoError(err)
	assert.False(ok)
}
