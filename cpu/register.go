package cpu

import (
	"strconv"
	"strings"
)

// Register is a CPU register index.
//
// The first eight values follow the 3-bit register field of the 8085
// instruction encoding, so REG_M (memory at H:L) sits between L and A.
type Register int

const (
	REG_B    = Register(0)  // B
	REG_C    = Register(1)  // C
	REG_D    = Register(2)  // D
	REG_E    = Register(3)  // E
	REG_H    = Register(4)  // H
	REG_L    = Register(5)  // L
	REG_M    = Register(6)  // M
	REG_A    = Register(7)  // A
	REG_FLAG = Register(8)  // FLAG
	REG_SP   = Register(9)  // SP
	REG_PC   = Register(10) // PC
)

var registerName = [...]string{"B", "C", "D", "E", "H", "L", "M", "A", "FLAG", "SP", "PC"}

func (r Register) String() string {
	if r < 0 || int(r) >= len(registerName) {
		return "Register(" + strconv.Itoa(int(r)) + ")"
	}
	return registerName[r]
}

// Wide returns true for the 16-bit registers.
func (r Register) Wide() bool {
	return r == REG_SP || r == REG_PC
}

// ParseRegister returns the register for a case-insensitive name.
func ParseRegister(name string) (r Register, err error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for n, reg := range registerName {
		if reg == name {
			r = Register(n)
			return
		}
	}

	err = ErrRegister
	return
}

// Pair is a register pair operand.
type Pair int

const (
	PAIR_BC  = Pair(0) // B
	PAIR_DE  = Pair(1) // D
	PAIR_HL  = Pair(2) // H
	PAIR_SP  = Pair(3) // SP
	PAIR_PSW = Pair(4) // PSW
)

var pairName = [...]string{"B", "D", "H", "SP", "PSW"}

func (p Pair) String() string {
	if p < 0 || int(p) >= len(pairName) {
		return "Pair(" + strconv.Itoa(int(p)) + ")"
	}
	return pairName[p]
}

// Flag register bits.
const (
	FLAG_CY = uint8(1 << 0) // Carry
	FLAG_P  = uint8(1 << 2) // Parity
	FLAG_AC = uint8(1 << 4) // Auxiliary carry
	FLAG_Z  = uint8(1 << 6) // Zero
	FLAG_S  = uint8(1 << 7) // Sign
)

//go:generate go tool stringer -linecomment -type=Cond

// Cond is a branch condition, keyed by the mnemonic suffix.
type Cond int

const (
	COND_ALWAYS = Cond(0) // always
	COND_NZ     = Cond(1) // NZ
	COND_Z      = Cond(2) // Z
	COND_NC     = Cond(3) // NC
	COND_C      = Cond(4) // C
	COND_PO     = Cond(5) // PO
	COND_PE     = Cond(6) // PE
	COND_P      = Cond(7) // P
	COND_M      = Cond(8) // M
)

var condSuffix = map[string]Cond{
	"NZ": COND_NZ,
	"Z":  COND_Z,
	"NC": COND_NC,
	"C":  COND_C,
	"PO": COND_PO,
	"PE": COND_PE,
	"P":  COND_P,
	"M":  COND_M,
}

// Holds reports whether the condition is satisfied by a flag register value.
func (c Cond) Holds(flag uint8) bool {
	switch c {
	case COND_NZ:
		return flag&FLAG_Z == 0
	case COND_Z:
		return flag&FLAG_Z != 0
	case COND_NC:
		return flag&FLAG_CY == 0
	case COND_C:
		return flag&FLAG_CY != 0
	case COND_PO:
		return flag&FLAG_P == 0
	case COND_PE:
		return flag&FLAG_P != 0
	case COND_P:
		return flag&FLAG_S == 0
	case COND_M:
		return flag&FLAG_S != 0
	}

	return true
}

// concat assembles a 16-bit value from its high and low bytes.
func concat(high, low uint8) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// split is the inverse of concat.
func split(value uint16) (high, low uint8) {
	return uint8(value >> 8), uint8(value)
}
