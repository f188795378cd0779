package cpu

import (
	"encoding/binary"
	"errors"
)

// Registers is the register file.
type Registers [REGISTER_COUNT]Word

// Store holds the memory and register file of one machine.
type Store struct {
	Memory   [MEMORY_SIZE]Word // Raw memory cells.
	Register Registers         // Register bank.
}

// Load unpacks a little-endian word image into memory starting at address
// zero, zero filling the remainder, clears the registers, and finally
// applies the patches in order.
func (st *Store) Load(image []byte, patches ...Patch) (err error) {
	if len(image) > IMAGE_LIMIT {
		err = ErrImageTooLarge
		return
	}
	if len(image)%2 != 0 {
		err = ErrImageMalformed
		return
	}

	for _, patch := range patches {
		if patch.Address >= MEMORY_SIZE {
			err = errors.Join(ErrPatchInvalid, ErrOperand(patch.Address))
			return
		}
	}

	clear(st.Memory[:])
	clear(st.Register[:])

	for n := 0; n < len(image); n += 2 {
		st.Memory[n/2] = Word(binary.LittleEndian.Uint16(image[n:]))
	}

	for _, patch := range patches {
		st.Memory[patch.Address] = patch.Value
	}

	return
}

// Read performs a raw memory read.
func (st *Store) Read(address Word) (value Word, err error) {
	if address >= MEMORY_SIZE {
		err = ErrOperand(address)
		return
	}

	value = st.Memory[address]
	return
}

// Write performs a raw memory write.
func (st *Store) Write(address Word, value Word) (err error) {
	if address >= MEMORY_SIZE {
		err = ErrOperand(address)
		return
	}

	st.Memory[address] = value
	return
}

// Source resolves an operand in source position: a literal is its own
// value, a register operand is the register's current value.
func (st *Store) Source(op Operand) (value Word, err error) {
	switch op.Kind() {
	case OPERAND_LITERAL:
		value = Word(op)
	case OPERAND_REGISTER:
		value = st.Register[op-REGISTER_BASE]
	default:
		err = ErrOperand(op)
	}

	return
}

// Destination resolves an operand in destination position to the cell it
// names: a literal is a memory address, a register operand is a register.
func (st *Store) Destination(op Operand) (slot *Word, err error) {
	switch op.Kind() {
	case OPERAND_LITERAL:
		slot = &st.Memory[op]
	case OPERAND_REGISTER:
		slot = &st.Register[op-REGISTER_BASE]
	default:
		err = ErrOperand(op)
	}

	return
}

// Set writes value through the destination operand.
func (st *Store) Set(op Operand, value Word) (err error) {
	slot, err := st.Destination(op)
	if err != nil {
		return
	}

	*slot = value
	return
}
