package cpu

import (
	"math/bits"
)

// setFlag sets or clears the flag bits in mask.
func (cpu *Cpu) setFlag(mask uint8, on bool) {
	if on {
		cpu.Flag |= mask
	} else {
		cpu.Flag &^= mask
	}
}

// carry returns the carry flag as 0 or 1.
func (cpu *Cpu) carry() uint8 {
	return cpu.Flag & FLAG_CY
}

// szp updates the Zero, Sign and Parity flags from a result.
func (cpu *Cpu) szp(result uint8) {
	cpu.setFlag(FLAG_Z, result == 0)
	cpu.setFlag(FLAG_S, result&0x80 != 0)
	cpu.setFlag(FLAG_P, bits.OnesCount8(result)%2 == 0)
}

// add returns a + b + carry, updating all flags.
func (cpu *Cpu) add(a, b, carry uint8) uint8 {
	sum := uint16(a) + uint16(b) + uint16(carry)
	cpu.setFlag(FLAG_CY, sum > 0xff)
	cpu.setFlag(FLAG_AC, (a&0xf)+(b&0xf)+carry > 0xf)
	cpu.szp(uint8(sum))
	return uint8(sum)
}

// sub returns a - b - borrow, updating all flags.
// CY and AC report a borrow out of bit 7 and bit 3.
func (cpu *Cpu) sub(a, b, borrow uint8) uint8 {
	diff := int(a) - int(b) - int(borrow)
	cpu.setFlag(FLAG_CY, diff < 0)
	cpu.setFlag(FLAG_AC, int(a&0xf)-int(b&0xf)-int(borrow) < 0)
	cpu.szp(uint8(diff))
	return uint8(diff)
}

// inr increments a value; CY is unaffected.
func (cpu *Cpu) inr(value uint8) uint8 {
	result := value + 1
	cpu.setFlag(FLAG_AC, value&0xf == 0xf)
	cpu.szp(result)
	return result
}

// dcr decrements a value; CY is unaffected.
func (cpu *Cpu) dcr(value uint8) uint8 {
	result := value - 1
	cpu.setFlag(FLAG_AC, value&0xf == 0)
	cpu.szp(result)
	return result
}

// logic sets the flags of a logical operation result.
// CY is always cleared; AC is set for AND, cleared otherwise.
func (cpu *Cpu) logic(result uint8, ac bool) uint8 {
	cpu.setFlag(FLAG_CY, false)
	cpu.setFlag(FLAG_AC, ac)
	cpu.szp(result)
	return result
}

// daa adjusts A to two binary coded decimal digits after an addition.
func (cpu *Cpu) daa() {
	a := cpu.Reg[REG_A]
	lsb := a & 0x0f
	msb := a >> 4

	cy := cpu.Flag&FLAG_CY != 0
	var correction uint8

	if lsb > 9 || cpu.Flag&FLAG_AC != 0 {
		correction += 0x06
	}
	if cy || msb > 9 || (msb >= 9 && lsb > 9) {
		correction += 0x60
		cy = true
	}

	cpu.Reg[REG_A] = cpu.add(a, correction, 0)
	cpu.setFlag(FLAG_CY, cy)
}
