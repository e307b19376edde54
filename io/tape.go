package io

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
)

// Tape port offsets and status bits.
const (
	TAPE_PORT_DATA   = 0 // Read next input byte, or write an output byte.
	TAPE_PORT_STATUS = 1 // Read-only status.

	TAPE_STATUS_INPUT  = 0x01 // An input byte is ready.
	TAPE_STATUS_OUTPUT = 0x02 // Output is mounted.

	TAPE_EOF = 0xff // Value read from the data port at end of input.
)

// Tape provides sequential I/O operations for reading and writing byte streams.
// It wraps an io.Reader for input and io.Writer for output.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	hasInput  bool
	lastInput byte
	eof       bool
}

var _ Device = (*Tape)(nil)

// Defines returns an iter of defines for the tape attached at base.
func (tc *Tape) Defines(base uint8) iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"TAPE_DATA":   fmt.Sprintf("%d", base+TAPE_PORT_DATA),
		"TAPE_STATUS": fmt.Sprintf("%d", base+TAPE_PORT_STATUS),
		"TAPE_INPUT":  fmt.Sprintf("%d", TAPE_STATUS_INPUT),
		"TAPE_OUTPUT": fmt.Sprintf("%d", TAPE_STATUS_OUTPUT),
		"TAPE_EOF":    fmt.Sprintf("%d", TAPE_EOF),
	})
}

// Ports returns the number of ports used by the tape.
func (tc *Tape) Ports() int {
	return 2
}

// Rewind is not possible on a tape; only the read-ahead byte is dropped.
func (tc *Tape) Rewind() {
	tc.hasInput = false
}

// peek reads ahead one byte of input, if any is available.
func (tc *Tape) peek() (err error) {
	if tc.hasInput || tc.eof || tc.Input == nil {
		return
	}

	var one [1]byte
	n, err := tc.Input.Read(one[:])
	if n == 1 {
		tc.lastInput = one[0]
		tc.hasInput = true
		err = nil
		return
	}
	if errors.Is(err, io.EOF) {
		tc.eof = true
		err = nil
	}

	return
}

// In reads the data or status port.
func (tc *Tape) In(offset uint8) (value uint8, err error) {
	err = tc.peek()
	if err != nil {
		return
	}

	switch offset {
	case TAPE_PORT_DATA:
		value = TAPE_EOF
		if tc.hasInput {
			value = tc.lastInput
			tc.hasInput = false
		}
	case TAPE_PORT_STATUS:
		if tc.hasInput {
			value |= TAPE_STATUS_INPUT
		}
		if tc.Output != nil {
			value |= TAPE_STATUS_OUTPUT
		}
	default:
		err = ErrPortInvalid
	}

	return
}

// Out writes a byte to the output stream.
func (tc *Tape) Out(offset uint8, value uint8) (err error) {
	switch offset {
	case TAPE_PORT_DATA:
		if tc.Output == nil {
			err = ErrTapeMissing
			return
		}
		_, err = tc.Output.Write([]byte{value})
	case TAPE_PORT_STATUS:
		err = ErrPortReadOnly
	default:
		err = ErrPortInvalid
	}

	return
}
