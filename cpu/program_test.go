package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader("start:\n  set r0 5\n\n  out r0\n  hlt\n"))
	assert.NoError(err)
	assert.Equal(3, len(prog.Statements))

	dbg := prog.Debug(4)
	if assert.NotNil(dbg.Statement) {
		assert.Equal(4, dbg.LineNo)
		assert.Equal(3, dbg.Ip)
		assert.Equal(1, dbg.Index)
		assert.Equal([]string{"out", "r0"}, dbg.Words)
	}

	dbg = prog.Debug(100)
	assert.Nil(dbg.Statement)
}

func TestProgram_Image(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Statements: []Statement{
			{Ip: 0, Codes: []Word{19, 65}},
			{Ip: 3, Codes: []Word{0x8000}},
		},
	}

	assert.Equal([]Word{19, 65, 0, 0x8000}, prog.Words())
	assert.Equal([]byte{0x13, 0, 0x41, 0, 0, 0, 0, 0x80}, prog.Image())

	var ips []Word
	for ip := range prog.Codes() {
		ips = append(ips, ip)
	}
	assert.Equal([]Word{0, 1, 3}, ips)
}
