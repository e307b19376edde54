package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Flag bits which no instruction but POP PSW may set.
const flagReserved = uint8(0x2A)

func FuzzCpu(f *testing.F) {
	for code := range 0x100 {
		f.Add(uint8(code), uint8(0x12), uint8(0x34), uint8(0), uint16(0x8000))
	}
	f.Add(uint8(0xC9), uint8(0x00), uint8(0x00), uint8(0xFF), uint16(0xFFFF))
	f.Add(uint8(0x27), uint8(0x00), uint8(0x00), uint8(0x11), uint16(0x0000))

	table := Intel8085()

	f.Fuzz(func(t *testing.T, code uint8, lo uint8, hi uint8, flag uint8, sp uint16) {
		assert := assert.New(t)

		cpu := NewCpu(table)
		cpu.Memory[0x100] = code
		cpu.Memory[0x101] = lo
		cpu.Memory[0x102] = hi
		for n := range cpu.Reg {
			cpu.Reg[n] = uint8(0x11 * (n + 1))
		}
		cpu.Flag = flag &^ flagReserved
		cpu.SP = sp
		cpu.PC = 0x100
		cpu.Halted = false

		err := cpu.Step()

		pattern, decode_err := table.Decode(code)
		if decode_err != nil {
			assert.ErrorIs(err, ErrOpcode{})
			assert.Equal(uint16(0x100), cpu.PC)
			assert.Equal(0, cpu.Ticks)
			return
		}

		switch pattern.Mnemonic() {
		case "RIM", "SIM":
			assert.ErrorIs(err, ErrUnsupported{})
			assert.Equal(uint16(0x100), cpu.PC)
			return
		}

		if !assert.NoError(err, pattern.String()) {
			return
		}
		assert.Equal(1, cpu.Ticks)
		assert.Equal(uint16(0x100), cpu.Last)

		if code != 0xF1 { // POP PSW
			assert.Equal(uint8(0), cpu.Flag&flagReserved, pattern.String())
		}

		assert.Equal(pattern.Mnemonic() == "HLT", cpu.Halted)
	})
}

func FuzzDisassemble(f *testing.F) {
	for code := range 0x100 {
		f.Add(uint8(code), uint8(0x0A), uint8(0xC0))
	}

	table := Intel8085()

	f.Fuzz(func(t *testing.T, code uint8, lo uint8, hi uint8) {
		assert := assert.New(t)

		mem := []uint8{code, lo, hi}
		text, size, err := table.Disassemble(mem, 0)
		if err != nil {
			assert.ErrorIs(err, ErrOpcode{})
			return
		}

		asm := &Assembler{Table: table}
		prog, err := asm.Assemble(text)
		if !assert.NoError(err, text) {
			return
		}
		assert.Equal(mem[:size], prog.Bytes, text)
	})
}
