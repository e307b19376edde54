package cpu

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/sim8085/io"
)

func TestCpu_Attach(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(nil)

	tape := &io.Tape{}
	temp := &io.Temporary{Capacity: 4}

	assert.NoError(cpu.Attach(0x00, tape))
	assert.NoError(cpu.Attach(0x10, temp))

	err := cpu.Attach(0x01, &io.Temporary{})
	assert.ErrorIs(err, ErrPortInUse)
	assert.ErrorIs(err, ErrPort(0))

	err = cpu.Attach(0xFF, &io.Temporary{})
	assert.ErrorIs(err, ErrPort(0))

	var bases []uint8
	for base := range cpu.Devices() {
		bases = append(bases, base)
	}
	assert.Equal([]uint8{0x00, 0x10}, bases)
}

func TestCpu_PortDevices(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Assemble(strings.Join([]string{
		"LOOP: IN 01H      ; tape status",
		"      ANI 1",
		"      JZ DONE",
		"      IN 00H",
		"      OUT 10H     ; push to scratch",
		"      JMP LOOP",
		"DONE: IN 11H",
		"      MOV B,A",
		"DRAIN: IN 10H",
		"      OUT 00H",
		"      DCR B",
		"      JNZ DRAIN",
		"      HLT",
	}, "\n"))
	require.NoError(t, err)

	output := &bytes.Buffer{}
	tape := &io.Tape{
		Input:  strings.NewReader("abc"),
		Output: output,
	}
	temp := &io.Temporary{Capacity: 8}

	cpu := NewCpu(asm.Table)
	assert.NoError(cpu.Attach(0x00, tape))
	assert.NoError(cpu.Attach(0x10, temp))
	assert.NoError(cpu.LoadProgram(prog.Bytes))

	assert.NoError(cpu.Run(context.Background(), 1000))
	assert.True(cpu.Halted)
	assert.Equal("abc", output.String())
	assert.Equal(uint8('c'), cpu.Port[0x00])
}

func TestCpu_PortDeviceError(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(nil)
	assert.NoError(cpu.Attach(0x10, &io.Temporary{Capacity: 1}))

	cpu.Memory[0] = 0xDB // IN 10H
	cpu.Memory[1] = 0x10

	err := cpu.Step()
	assert.ErrorIs(err, io.ErrChannelEmpty)

	var ed *ErrDevice
	assert.ErrorAs(err, &ed)
	assert.Equal(uint8(0x10), ed.Port)
	assert.Equal(uint16(0), cpu.PC)
	assert.Equal(0, cpu.Ticks)
}
