package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.True(s.Empty())

	s.Push(0x1234)
	assert.False(s.Empty())
	assert.Equal(1, s.Len())
	assert.Equal(Word(0x1234), s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Push(0x1234)
	s.Push(0x7ffe)

	val, ok := s.Pop()
	assert.True(ok)
	assert.Equal(Word(0x7ffe), val)
	assert.Equal(1, s.Len())

	val, ok = s.Pop()
	assert.True(ok)
	assert.Equal(Word(0x1234), val)
	assert.True(s.Empty())
}

func TestStack_Pop_Empty(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	val, ok := s.Pop()
	assert.False(ok)
	assert.Equal(Word(0), val)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Push(1)
	s.Push(2)

	val, ok := s.Peek()
	assert.True(ok)
	assert.Equal(Word(2), val)
	assert.Equal(2, s.Len())

	s.Reset()
	_, ok = s.Peek()
	assert.False(ok)
}

func TestStack_Unbounded(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	for n := range 100000 {
		s.Push(Word(n & WORD_MASK))
	}
	assert.Equal(100000, s.Len())

	s.Reset()
	assert.True(s.Empty())
}
