package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Operand tokens that stand for immediate data.
const (
	TOKEN_D8   = "D8"   // 1-byte immediate in a table pattern
	TOKEN_D16  = "D16"  // 2-byte immediate in a table pattern
	TOKEN_DATA = "DATA" // immediate or address operand in assembler input
)

// Pattern is an opcode shape: the mnemonic followed by its operand tokens.
type Pattern []string

// Mnemonic returns the instruction name.
func (p Pattern) Mnemonic() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Operands returns the operand tokens.
func (p Pattern) Operands() []string {
	if len(p) < 2 {
		return nil
	}
	return p[1:]
}

// Width returns the number of immediate bytes following the opcode.
func (p Pattern) Width() int {
	for _, token := range p.Operands() {
		switch token {
		case TOKEN_D8:
			return 1
		case TOKEN_D16:
			return 2
		}
	}
	return 0
}

// Normalize replaces the immediate placeholders with TOKEN_DATA.
func (p Pattern) Normalize() (out Pattern) {
	out = make(Pattern, len(p))
	for n, token := range p {
		if n > 0 && (token == TOKEN_D8 || token == TOKEN_D16) {
			token = TOKEN_DATA
		}
		out[n] = token
	}
	return
}

// String returns the pattern in assembly form, ie 'MVI A,D8'.
func (p Pattern) String() string {
	if len(p) < 2 {
		return p.Mnemonic()
	}
	return p.Mnemonic() + " " + strings.Join(p.Operands(), ",")
}

// signature is the encode map key of a normalized token sequence.
func signature(tokens []string) string {
	return strings.Join(tokens, " ")
}

// OpcodeTable maps opcode bytes to patterns, and normalized patterns back
// to opcode bytes.
type OpcodeTable struct {
	decode   [256]Pattern
	encode   map[string]uint8
	mnemonic map[string]bool
}

// NewOpcodeTable builds the decode and encode maps for a set of opcode
// definitions. No two definitions may share a normalized signature.
func NewOpcodeTable(defs map[uint8]Pattern) (table *OpcodeTable, err error) {
	table = &OpcodeTable{
		encode:   make(map[string]uint8, len(defs)),
		mnemonic: make(map[string]bool),
	}

	// Fixed order, so that conflicts are reported deterministically.
	for code := range 256 {
		pattern, ok := defs[uint8(code)]
		if !ok {
			continue
		}
		if len(pattern) == 0 {
			err = fmt.Errorf("%w: 0x%02X", ErrOpcodeEmpty, code)
			return nil, err
		}
		key := signature(pattern.Normalize())
		if prior, ok := table.encode[key]; ok {
			err = fmt.Errorf("%w: 0x%02X and 0x%02X are '%v'", ErrOpcodeAmbiguous, prior, code, pattern)
			return nil, err
		}
		table.decode[code] = pattern
		table.encode[key] = uint8(code)
		table.mnemonic[pattern.Mnemonic()] = true
	}

	return
}

// Decode returns the pattern of an opcode.
func (table *OpcodeTable) Decode(code uint8) (pattern Pattern, err error) {
	pattern = table.decode[code]
	if pattern == nil {
		err = ErrOpcode{Code: code}
	}
	return
}

// Encode returns the opcode for a mnemonic and its normalized operands.
// Immediate operands must be given as TOKEN_DATA.
func (table *OpcodeTable) Encode(tokens ...string) (code uint8, err error) {
	code, ok := table.encode[signature(tokens)]
	if !ok {
		err = ErrSyntaxUnknown
	}
	return
}

// IsMnemonic returns true if any opcode uses the mnemonic.
func (table *OpcodeTable) IsMnemonic(word string) bool {
	return table.mnemonic[word]
}

// Defined iterates over all defined opcodes in ascending order.
func (table *OpcodeTable) Defined() iter.Seq2[uint8, Pattern] {
	return func(yield func(code uint8, pattern Pattern) bool) {
		for code, pattern := range table.decode {
			if pattern == nil {
				continue
			}
			if !yield(uint8(code), pattern) {
				return
			}
		}
	}
}

// Disassemble renders the instruction at addr, returning its text and size.
func (table *OpcodeTable) Disassemble(mem []uint8, addr int) (text string, size int, err error) {
	if addr < 0 || addr >= len(mem) {
		err = ErrAddress(addr)
		return
	}

	pattern, err := table.Decode(mem[addr])
	if err != nil {
		err = ErrOpcode{Address: uint16(addr), Code: mem[addr]}
		return
	}

	width := pattern.Width()
	size = 1 + width
	if addr+width >= len(mem) {
		err = ErrAddress(addr + width)
		return
	}

	tokens := make([]string, len(pattern))
	copy(tokens, pattern)
	for n, token := range tokens {
		switch token {
		case TOKEN_D8:
			tokens[n] = hexLiteral(uint16(mem[addr+1]), 2)
		case TOKEN_D16:
			tokens[n] = hexLiteral(concat(mem[addr+2], mem[addr+1]), 4)
		}
	}

	text = Pattern(tokens).String()
	return
}

// hexLiteral formats an assembler hex literal, ie '0FFH'.
func hexLiteral(value uint16, digits int) string {
	text := fmt.Sprintf("%0*XH", digits, value)
	if text[0] >= 'A' {
		text = "0" + text
	}
	return text
}

var registerOrder = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}

// Intel8085 returns the opcode table of the Intel 8085.
func Intel8085() *OpcodeTable {
	table, err := NewOpcodeTable(intel8085())
	if err != nil {
		panic(err)
	}
	return table
}

func intel8085() map[uint8]Pattern {
	defs := map[uint8]Pattern{
		0x00: {"NOP"},
		0x01: {"LXI", "B", TOKEN_D16},
		0x02: {"STAX", "B"},
		0x03: {"INX", "B"},
		0x07: {"RLC"},
		0x09: {"DAD", "B"},
		0x0A: {"LDAX", "B"},
		0x0B: {"DCX", "B"},
		0x0F: {"RRC"},
		0x11: {"LXI", "D", TOKEN_D16},
		0x12: {"STAX", "D"},
		0x13: {"INX", "D"},
		0x17: {"RAL"},
		0x19: {"DAD", "D"},
		0x1A: {"LDAX", "D"},
		0x1B: {"DCX", "D"},
		0x1F: {"RAR"},
		0x20: {"RIM"},
		0x21: {"LXI", "H", TOKEN_D16},
		0x22: {"SHLD", TOKEN_D16},
		0x23: {"INX", "H"},
		0x27: {"DAA"},
		0x29: {"DAD", "H"},
		0x2A: {"LHLD", TOKEN_D16},
		0x2B: {"DCX", "H"},
		0x2F: {"CMA"},
		0x30: {"SIM"},
		0x31: {"LXI", "SP", TOKEN_D16},
		0x32: {"STA", TOKEN_D16},
		0x33: {"INX", "SP"},
		0x37: {"STC"},
		0x39: {"DAD", "SP"},
		0x3A: {"LDA", TOKEN_D16},
		0x3B: {"DCX", "SP"},
		0x3F: {"CMC"},
		0x76: {"HLT"},
		0xC0: {"RNZ"},
		0xC1: {"POP", "B"},
		0xC2: {"JNZ", TOKEN_D16},
		0xC3: {"JMP", TOKEN_D16},
		0xC4: {"CNZ", TOKEN_D16},
		0xC5: {"PUSH", "B"},
		0xC6: {"ADI", TOKEN_D8},
		0xC8: {"RZ"},
		0xC9: {"RET"},
		0xCA: {"JZ", TOKEN_D16},
		0xCC: {"CZ", TOKEN_D16},
		0xCD: {"CALL", TOKEN_D16},
		0xCE: {"ACI", TOKEN_D8},
		0xD0: {"RNC"},
		0xD1: {"POP", "D"},
		0xD2: {"JNC", TOKEN_D16},
		0xD3: {"OUT", TOKEN_D8},
		0xD4: {"CNC", TOKEN_D16},
		0xD5: {"PUSH", "D"},
		0xD6: {"SUI", TOKEN_D8},
		0xD8: {"RC"},
		0xDA: {"JC", TOKEN_D16},
		0xDB: {"IN", TOKEN_D8},
		0xDC: {"CC", TOKEN_D16},
		0xDE: {"SBI", TOKEN_D8},
		0xE0: {"RPO"},
		0xE1: {"POP", "H"},
		0xE2: {"JPO", TOKEN_D16},
		0xE3: {"XTHL"},
		0xE4: {"CPO", TOKEN_D16},
		0xE5: {"PUSH", "H"},
		0xE6: {"ANI", TOKEN_D8},
		0xE8: {"RPE"},
		0xE9: {"PCHL"},
		0xEA: {"JPE", TOKEN_D16},
		0xEB: {"XCHG"},
		0xEC: {"CPE", TOKEN_D16},
		0xEE: {"XRI", TOKEN_D8},
		0xF0: {"RP"},
		0xF1: {"POP", "PSW"},
		0xF2: {"JP", TOKEN_D16},
		0xF3: {"DI"},
		0xF4: {"CP", TOKEN_D16},
		0xF5: {"PUSH", "PSW"},
		0xF6: {"ORI", TOKEN_D8},
		0xF8: {"RM"},
		0xF9: {"SPHL"},
		0xFA: {"JM", TOKEN_D16},
		0xFB: {"EI"},
		0xFC: {"CM", TOKEN_D16},
		0xFE: {"CPI", TOKEN_D8},
	}

	// INR, DCR and MVI take the register in bits 5..3.
	for n, reg := range registerOrder {
		defs[uint8(0x04|n<<3)] = Pattern{"INR", reg}
		defs[uint8(0x05|n<<3)] = Pattern{"DCR", reg}
		defs[uint8(0x06|n<<3)] = Pattern{"MVI", reg, TOKEN_D8}
	}

	// MOV dst,src; the MOV M,M slot is HLT.
	for dst, to := range registerOrder {
		for src, from := range registerOrder {
			code := uint8(0x40 | dst<<3 | src)
			if code == 0x76 {
				continue
			}
			defs[code] = Pattern{"MOV", to, from}
		}
	}

	for n, op := range []string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"} {
		for src, from := range registerOrder {
			defs[uint8(0x80|n<<3|src)] = Pattern{op, from}
		}
	}

	for n := range 8 {
		defs[uint8(0xC7|n<<3)] = Pattern{"RST", fmt.Sprintf("%d", n)}
	}

	return defs
}
