package io

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemporary_Rewind(t *testing.T) {
	assert := assert.New(t)

	temp := &Temporary{
		Capacity:   10,
		ReadIndex:  3,
		WriteIndex: 7,
		Size:       4,
		Data:       []uint8{1, 2, 3},
	}

	temp.Rewind()

	assert.Equal(0, temp.ReadIndex)
	assert.Equal(0, temp.WriteIndex)
	assert.Equal(0, temp.Size)
	assert.Len(temp.Data, 10)
}

func TestTemporary_Out_In(t *testing.T) {
	assert := assert.New(t)

	temp := &Temporary{Capacity: 8}
	temp.Rewind()

	for _, value := range []uint8{0x10, 0x20, 0x30, 0x40} {
		assert.NoError(temp.Out(TEMP_PORT_DATA, value))
	}

	count, err := temp.In(TEMP_PORT_COUNT)
	assert.NoError(err)
	assert.Equal(uint8(4), count)

	var got []uint8
	for temp.Size > 0 {
		value, err := temp.In(TEMP_PORT_DATA)
		assert.NoError(err)
		got = append(got, value)
	}

	assert.Equal([]uint8{0x10, 0x20, 0x30, 0x40}, got)

	_, err = temp.In(TEMP_PORT_DATA)
	assert.ErrorIs(err, ErrChannelEmpty)
}

func TestTemporary_Out_CapacityFull(t *testing.T) {
	assert := assert.New(t)

	// Not rewound; the buffer is allocated on first write.
	temp := &Temporary{Capacity: 3}

	assert.NoError(temp.Out(TEMP_PORT_DATA, 1))
	assert.NoError(temp.Out(TEMP_PORT_DATA, 2))
	assert.NoError(temp.Out(TEMP_PORT_DATA, 3))

	// Should be full
	assert.ErrorIs(temp.Out(TEMP_PORT_DATA, 4), ErrChannelFull)

	// Writing the count port empties the buffer.
	assert.NoError(temp.Out(TEMP_PORT_COUNT, 0))
	assert.Equal(0, temp.Size)
	assert.NoError(temp.Out(TEMP_PORT_DATA, 4))
}

func TestTemporary_WrapAround(t *testing.T) {
	assert := assert.New(t)

	temp := &Temporary{Capacity: 4}
	temp.Rewind()

	for n := range 4 {
		assert.NoError(temp.Out(TEMP_PORT_DATA, uint8(n)))
	}
	for n := range 2 {
		value, err := temp.In(TEMP_PORT_DATA)
		assert.NoError(err)
		assert.Equal(uint8(n), value)
	}

	assert.NoError(temp.Out(TEMP_PORT_DATA, 4))
	assert.NoError(temp.Out(TEMP_PORT_DATA, 5))
	assert.Equal(2, temp.WriteIndex)

	var got []uint8
	for temp.Size > 0 {
		value, err := temp.In(TEMP_PORT_DATA)
		assert.NoError(err)
		got = append(got, value)
	}
	assert.Equal([]uint8{2, 3, 4, 5}, got)
	assert.Equal(2, temp.ReadIndex)
}

func TestTemporary_InvalidPort(t *testing.T) {
	assert := assert.New(t)

	temp := &Temporary{Capacity: 1}

	_, err := temp.In(2)
	assert.ErrorIs(err, ErrPortInvalid)
	assert.ErrorIs(temp.Out(2, 0), ErrPortInvalid)
}
