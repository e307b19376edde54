// Package io provides port devices for the sim8085 emulator.
// Devices are attached to a range of the 8085's 256 I/O ports and serve
// the IN and OUT instructions: a sequential byte stream (Tape) and a
// bounded FIFO scratch buffer (Temporary).
package io

import (
	"iter"
)

// Device defines the interface for all port-mapped devices.
// A device decodes Ports() consecutive ports, addressed by their offset
// from the base port the device is attached at.
type Device interface {
	// Rewind resets the device to its initial state.
	Rewind()
	// Ports returns the number of consecutive ports decoded by the device.
	Ports() int
	// In reads a byte from the port at offset.
	In(offset uint8) (value uint8, err error)
	// Out writes a byte to the port at offset.
	Out(offset uint8, value uint8) error
	// Defines returns the assembler equates for the device attached at base.
	Defines(base uint8) iter.Seq2[string, string]
}
