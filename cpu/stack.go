package cpu

// push stores a word below SP, high byte at the higher address.
func (cpu *Cpu) push(value uint16) {
	high, low := split(value)
	cpu.SP--
	cpu.Memory[cpu.SP] = high
	cpu.SP--
	cpu.Memory[cpu.SP] = low
}

// pop loads the word at SP, and releases it.
func (cpu *Cpu) pop() (value uint16) {
	low := cpu.Memory[cpu.SP]
	cpu.SP++
	high := cpu.Memory[cpu.SP]
	cpu.SP++
	return concat(high, low)
}

// Peek returns the word at the top of the stack without popping it.
func (cpu *Cpu) Peek() uint16 {
	return concat(cpu.Memory[cpu.SP+1], cpu.Memory[cpu.SP])
}
