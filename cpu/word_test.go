package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperandKind(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		operand Operand
		kind    OperandKind
		text    string
	}){
		{0, OPERAND_LITERAL, "0000"},
		{0x7fff, OPERAND_LITERAL, "7FFF"},
		{32768, OPERAND_REGISTER, "r0"},
		{32775, OPERAND_REGISTER, "r7"},
		{32776, OPERAND_INVALID, "?8008"},
		{0xffff, OPERAND_INVALID, "?FFFF"},
	}

	for _, entry := range table {
		assert.Equal(entry.kind, entry.operand.Kind(), entry.text)
		assert.Equal(entry.text, entry.operand.String())
	}

	index, ok := Operand(32771).Register()
	assert.True(ok)
	assert.Equal(3, index)

	_, ok = Operand(3).Register()
	assert.False(ok)

	assert.Equal(Operand(32775), RegisterOperand(7))
}

func TestStore_Source(t *testing.T) {
	assert := assert.New(t)

	st := &Store{}
	st.Register[2] = 1234

	value, err := st.Source(77)
	assert.NoError(err)
	assert.Equal(Word(77), value)

	value, err = st.Source(RegisterOperand(2))
	assert.NoError(err)
	assert.Equal(Word(1234), value)

	_, err = st.Source(32776)
	assert.True(errors.Is(err, ErrInvalidOperand))
	assert.Equal(ErrOperand(32776), err)
}

func TestStore_Destination(t *testing.T) {
	assert := assert.New(t)

	st := &Store{}

	// A literal destination is a memory address, never a value.
	err := st.Set(100, 5)
	assert.NoError(err)
	assert.Equal(Word(5), st.Memory[100])

	err = st.Set(RegisterOperand(6), 9)
	assert.NoError(err)
	assert.Equal(Word(9), st.Register[6])
	assert.Equal(Word(0), st.Memory[6])

	slot, err := st.Destination(RegisterOperand(6))
	assert.NoError(err)
	assert.Same(&st.Register[6], slot)

	_, err = st.Destination(40000)
	assert.ErrorIs(err, ErrInvalidOperand)
}

func FuzzSource(f *testing.F) {
	for _, seed := range []uint16{0, 1, 0x7fff, 0x8000, 0x8007, 0x8008, 0xffff} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw uint16) {
		assert := assert.New(t)

		st := &Store{}
		for n := range st.Register {
			st.Register[n] = Word(0x100 + n)
		}

		op := Operand(raw)
		value, err := st.Source(op)
		switch {
		case raw <= 32767:
			assert.NoError(err)
			assert.Equal(Word(raw), value)
		case raw <= 32775:
			assert.NoError(err)
			assert.Equal(Word(0x100+int(raw-32768)), value)
		default:
			assert.ErrorIs(err, ErrInvalidOperand)
		}

		_, derr := st.Destination(op)
		assert.Equal(err == nil, derr == nil)
	})
}
