package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.NotNil(prog)
	assert.Empty(prog.Bytes)
	assert.Empty(prog.Labels)
	assert.NotNil(asm.Table)
}

func TestAssemblerBytes(t *testing.T) {
	cases := [](struct {
		name   string
		source string
		bytes  []uint8
	}){
		{"hex", "MVI A,0FFH", []uint8{0x3E, 0xFF}},
		{"octal", "MVI A,377O", []uint8{0x3E, 0xFF}},
		{"octal-q", "MVI A,377Q", []uint8{0x3E, 0xFF}},
		{"binary", "MVI A,11111111B", []uint8{0x3E, 0xFF}},
		{"decimal", "MVI A,255", []uint8{0x3E, 0xFF}},
		{"decimal-d", "MVI A,255D", []uint8{0x3E, 0xFF}},
		{"little-endian", "LXI H,1234H", []uint8{0x21, 0x34, 0x12}},
		{"registers", "MOV A,B\nMOV M,A\nPUSH PSW\nPOP H\nDAD SP", []uint8{0x78, 0x77, 0xF5, 0xE1, 0x39}},
		{"restart", "RST 0\nRST 7", []uint8{0xC7, 0xFF}},
		{"io", "IN 10H\nOUT 11H", []uint8{0xDB, 0x10, 0xD3, 0x11}},
		{"lower-case", "mvi a,5\nloop: jmp Loop", []uint8{0x3E, 0x05, 0xC3, 0x02, 0x00}},
		{"label-no-space", "LOOP:HLT\nJMP LOOP", []uint8{0x76, 0xC3, 0x00, 0x00}},
		{"label-only", "JMP NEXT\nNEXT:\n\nHLT", []uint8{0xC3, 0x03, 0x00, 0x76}},
		{"label-byte", "MVI A,TABLE\nHLT\nTABLE: NOP", []uint8{0x3E, 0x03, 0x76, 0x00}},
		{"comments", "; header\r\n\r\n  MVI A, 10 ; load\r\nHLT ; stop\r\n", []uint8{0x3E, 0x0A, 0x76}},
		{"equate", "COUNT EQU 10H\nMVI A,COUNT\nHLT", []uint8{0x3E, 0x10, 0x76}},
		{"equate-chain", "ONE EQU 1\nTWO EQU $(ONE + 1)\nMVI A,TWO", []uint8{0x3E, 0x02}},
		{"expression", "COUNT EQU 10H\nLXI H,$(COUNT * 2 + 1)", []uint8{0x21, 0x21, 0x00}},
		{"expression-nested", "MVI A,$((1 + 2) * 3)", []uint8{0x3E, 0x09}},
	}

	for _, entry := range cases {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			asm := &Assembler{}
			prog, err := asm.Assemble(entry.source)
			assert.NoError(err)
			if err != nil {
				return
			}
			assert.Equal(entry.bytes, prog.Bytes)
			assert.Len(prog.Records, len(prog.Bytes))
		})
	}
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("port", "42")

	prog, err := asm.Assemble("OUT PORT\nMVI A,$(PORT + 1)")
	assert.NoError(err)
	assert.Equal([]uint8{0xD3, 0x2A, 0x3E, 0x2B}, prog.Bytes)
	assert.Equal("42", asm.Equate["PORT"])

	_, err = asm.Assemble("PORT: NOP")
	assert.ErrorIs(err, ErrLabelDuplicate)
}

func TestAssemblerRecords(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	prog, err := asm.Assemble("START:\nMVI A,05H\nJMP DONE\nDONE: HLT")
	assert.NoError(err)

	expected := []Record{
		{Address: 0, Label: "START", Mnemonic: "MVI A,05H", Code: 0x3E, Bytes: 2},
		{Address: 1, Code: 0x05},
		{Address: 2, Mnemonic: "JMP DONE", Code: 0xC3, Bytes: 3},
		{Address: 3, Code: 0x05},
		{Address: 4, Code: 0x00},
		{Address: 5, Label: "DONE", Mnemonic: "HLT", Code: 0x76, Bytes: 1},
	}
	assert.Equal(expected, prog.Records)

	assert.Equal([]Line{
		{LineNo: 2, Address: 0, Size: 2, Text: "MVI A,05H"},
		{LineNo: 3, Address: 2, Size: 3, Text: "JMP DONE"},
		{LineNo: 4, Address: 5, Size: 1, Text: "DONE: HLT"},
	}, prog.Lines)

	assert.Equal(map[string]uint16{"START": 0, "DONE": 5}, prog.Labels)
	assert.Equal(prog.Labels, asm.Label)
}

func TestAssemblerErrors(t *testing.T) {
	cases := [](struct {
		name   string
		source string
		err    error
		lineno int
	}){
		{"label-digit", "1LOOP: HLT", ErrLabelInvalid, 1},
		{"label-space", "MVI A: HLT", ErrLabelInvalid, 1},
		{"label-mnemonic", "MOV: HLT", ErrLabelReserved, 1},
		{"label-register", "A: HLT", ErrLabelReserved, 1},
		{"label-psw", "PSW: NOP", ErrLabelReserved, 1},
		{"label-data", "data: NOP", ErrLabelReserved, 1},
		{"label-duplicate", "X: NOP\nX: HLT", ErrLabelDuplicate, 2},
		{"label-equate", "X EQU 1\nX: HLT", ErrLabelDuplicate, 2},
		{"label-undefined", "NOP\n\nJMP NOWHERE", ErrLabelUndefined, 3},
		{"hex-without-digit", "MVI A,FFH", ErrLabelUndefined, 1},
		{"mnemonic", "FOO A", ErrSyntaxUnknown, 1},
		{"operand-count", "MOV A", ErrSyntaxUnknown, 1},
		{"operand-kind", "MVI 5,A", ErrSyntaxUnknown, 1},
		{"restart-vector", "RST 8", ErrSyntaxUnknown, 1},
		{"byte-range", "MVI A,256", ErrDataRange, 1},
		{"word-range", "LXI H,10000H", ErrDataRange, 1},
		{"number", "MVI A,12G", ErrNumberInvalid, 1},
		{"binary-digit", "MVI A,12B", ErrNumberInvalid, 1},
		{"operand-empty", "MVI A,,5", ErrOperandEmpty, 1},
		{"operand-trailing", "NOP\nMVI A,5,", ErrOperandEmpty, 2},
		{"equate-short", "X EQU", ErrEquateSyntax, 1},
		{"equate-name", "EQU 5", ErrEquateSyntax, 1},
		{"equate-label", "LBL: X EQU 5", ErrEquateSyntax, 1},
		{"equate-value", "X EQU Y", ErrNumberInvalid, 1},
		{"expression-negative", "MVI A,$(0 - 1)", ErrDataRange, 1},
		{"label-far", "MVI A,FAR\n" + strings.Repeat("NOP\n", 300) + "FAR: HLT", ErrDataRange, 1},
	}

	for _, entry := range cases {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			asm := &Assembler{}
			prog, err := asm.Assemble(entry.source)
			assert.Nil(prog)
			assert.ErrorIs(err, entry.err)

			var syn *ErrSyntax
			if assert.True(errors.As(err, &syn)) {
				assert.Equal(entry.lineno, syn.LineNo)
			}
		})
	}
}

func TestAssemblerExpression(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := asm.Assemble("MVI A,$(1 // 0)")
	var pe ErrParseExpression
	assert.ErrorAs(err, &pe)
	assert.Equal(ErrParseExpression("1 // 0"), pe)

	_, err = asm.Assemble("MVI A,$('x')")
	assert.ErrorAs(err, &pe)
}

func TestAssemblerProgramSize(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	source := strings.Repeat("NOP\n", MEMORY_SIZE)
	prog, err := asm.Assemble(source)
	assert.NoError(err)
	assert.Len(prog.Bytes, MEMORY_SIZE)

	_, err = asm.Assemble(source + "NOP")
	assert.ErrorIs(err, ErrProgramSize)
}

func TestParseNumber(t *testing.T) {
	assert := assert.New(t)

	cases := map[string]int{
		"0":      0,
		"10":     10,
		"0AH":    10,
		"0BH":    11,
		"1B":     1,
		"17O":    15,
		"17Q":    15,
		"0FFFFH": 0xFFFF,
	}

	for word, expected := range cases {
		value, err := parseNumber(word)
		assert.NoError(err, word)
		assert.Equal(expected, value, word)
	}

	for _, word := range []string{"", "H", "X1", "0XH", "19O", "2B"} {
		_, err := parseNumber(word)
		assert.ErrorIs(err, ErrNumberInvalid, word)
	}
}
