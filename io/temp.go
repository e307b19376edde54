package io

import (
	"fmt"
	"iter"
	"maps"
)

// Temporary port offsets.
const (
	TEMP_PORT_DATA  = 0 // Write pushes a byte, read pops the oldest byte.
	TEMP_PORT_COUNT = 1 // Read returns the fill level, write empties the buffer.
)

// Temporary implements a circular buffer for temporary byte storage.
// It operates as a FIFO queue with a fixed capacity and separate read/write positions.
type Temporary struct {
	Capacity int // Capacity in bytes.

	ReadIndex  int
	WriteIndex int
	Size       int
	Data       []uint8
}

var _ Device = (*Temporary)(nil)

// Defines returns an iter of defines for the buffer attached at base.
func (temp *Temporary) Defines(base uint8) iter.Seq2[string, string] {
	return maps.All(map[string]string{
		"TEMP_DATA":     fmt.Sprintf("%d", base+TEMP_PORT_DATA),
		"TEMP_COUNT":    fmt.Sprintf("%d", base+TEMP_PORT_COUNT),
		"TEMP_CAPACITY": fmt.Sprintf("%d", temp.Capacity),
	})
}

// Ports returns the number of ports used by the buffer.
func (temp *Temporary) Ports() int {
	return 2
}

// Rewind resets the temporary storage to empty, resetting indices and
// reinitializing the data buffer.
func (temp *Temporary) Rewind() {
	temp.ReadIndex = 0
	temp.WriteIndex = 0
	temp.Size = 0
	temp.Data = make([]uint8, temp.Capacity)
}

// In pops a byte, or reads the fill level clamped to 255.
func (temp *Temporary) In(offset uint8) (value uint8, err error) {
	switch offset {
	case TEMP_PORT_DATA:
		if temp.Size == 0 {
			err = ErrChannelEmpty
			return
		}
		value = temp.Data[temp.ReadIndex]
		temp.ReadIndex++
		if temp.ReadIndex == temp.Capacity {
			temp.ReadIndex = 0
		}
		temp.Size--
	case TEMP_PORT_COUNT:
		value = uint8(min(temp.Size, 0xff))
	default:
		err = ErrPortInvalid
	}

	return
}

// Out pushes a byte at the current write position, or empties the buffer.
// Returns ErrChannelFull if the buffer has reached capacity.
func (temp *Temporary) Out(offset uint8, value uint8) (err error) {
	switch offset {
	case TEMP_PORT_DATA:
		if len(temp.Data) != temp.Capacity {
			temp.Rewind()
		}
		if temp.Size >= temp.Capacity {
			err = ErrChannelFull
			return
		}

		temp.Data[temp.WriteIndex] = value

		temp.WriteIndex++
		if temp.WriteIndex == temp.Capacity {
			temp.WriteIndex = 0
		}
		temp.Size++
	case TEMP_PORT_COUNT:
		temp.Rewind()
	default:
		err = ErrPortInvalid
	}

	return
}
