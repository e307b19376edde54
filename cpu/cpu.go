// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/sim8085/io"
)

// Device is a port-mapped I/O device.
type Device io.Device

// Sizes of the address spaces.
const (
	MEMORY_SIZE = 0x10000
	PORT_COUNT  = 0x100
)

// Resume checks for cancellation once per this many steps.
const cancelInterval = 256

var _cpu_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%d", MEMORY_SIZE),
	"PORT_COUNT":  fmt.Sprintf("%d", PORT_COUNT),
}

// attachment is a device mapped at a base port.
type attachment struct {
	Device Device
	Base   uint8
}

// Cpu is the simulation context for an Intel 8085.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Reg    [8]uint8           // Register bank, indexed by Register. REG_M is not stored.
	Flag   uint8              // Flag register.
	SP     uint16             // Stack pointer.
	PC     uint16             // Program counter.
	Memory [MEMORY_SIZE]uint8 // Main memory.
	Port   [PORT_COUNT]uint8  // Last value seen on each I/O port.

	Halted          bool   // Set by HLT and Reset.
	InterruptEnable bool   // EI/DI flip-flop.
	Last            uint16 // Address of the last executed instruction.
	Ticks           int    // Instructions executed since reset.

	table   *OpcodeTable
	decoded [256]instruction
	device  [PORT_COUNT]*attachment
}

// NewCpu creates a new CPU which decodes through the opcode table.
// A nil table selects Intel8085().
func NewCpu(table *OpcodeTable) (cpu *Cpu) {
	if table == nil {
		table = Intel8085()
	}

	cpu = &Cpu{
		table: table,
	}

	for code, pattern := range table.Defined() {
		cpu.decoded[code] = decode(pattern)
	}

	cpu.Reset()

	return
}

// Table returns the opcode table used for decoding.
func (cpu *Cpu) Table() *OpcodeTable {
	return cpu.table
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Attach maps a device over dev.Ports() consecutive ports starting at base.
func (cpu *Cpu) Attach(base uint8, dev Device) (err error) {
	last := int(base) + dev.Ports() - 1
	if dev.Ports() < 1 || last >= PORT_COUNT {
		err = ErrPort(last)
		return
	}

	for port := int(base); port <= last; port++ {
		if cpu.device[port] != nil {
			err = errors.Join(ErrPortInUse, ErrPort(port))
			return
		}
	}

	at := &attachment{Device: dev, Base: base}
	for port := int(base); port <= last; port++ {
		cpu.device[port] = at
	}

	return
}

// Devices iterates over the attached devices by base port.
func (cpu *Cpu) Devices() iter.Seq2[uint8, Device] {
	return func(yield func(base uint8, dev Device) bool) {
		for port, at := range cpu.device {
			if at == nil || int(at.Base) != port {
				continue
			}
			if !yield(at.Base, at.Device) {
				return
			}
		}
	}
}

// Reset the CPU state.
// - Clears the registers, flags, memory and port latches.
// - Zeros statistics counters.
// - Rewinds all attached devices.
// - Leaves the CPU halted.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Reg[:])
	cpu.Flag = 0
	cpu.SP = 0
	cpu.PC = 0
	clear(cpu.Memory[:])
	clear(cpu.Port[:])
	cpu.Halted = true
	cpu.InterruptEnable = false
	cpu.Last = 0
	cpu.Ticks = 0

	for _, dev := range cpu.Devices() {
		dev.Rewind()
	}
}

// LoadProgram copies a program into memory at address 0.
func (cpu *Cpu) LoadProgram(program []uint8) (err error) {
	if len(program) > MEMORY_SIZE {
		err = ErrProgramSize
		return
	}

	copy(cpu.Memory[:], program)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes", len(program))
	}

	return
}

// Step executes a single instruction at PC.
//
// PC is advanced past the instruction before it executes, so control
// transfers simply overwrite it. On error, PC is left at the faulting
// instruction.
func (cpu *Cpu) Step() (err error) {
	pc := cpu.PC
	code := cpu.Memory[pc]

	in := &cpu.decoded[code]
	if in.pattern == nil {
		err = ErrOpcode{Address: pc, Code: code}
		return
	}
	if in.exec == nil {
		err = ErrUnsupported{Address: pc, Mnemonic: in.pattern.Mnemonic()}
		return
	}

	if cpu.Verbose {
		text, _, _ := cpu.table.Disassemble(cpu.Memory[:], int(pc))
		log.Printf("cpu: %04X: %v", pc, text)
	}

	var imm uint16
	switch in.width {
	case 1:
		imm = uint16(cpu.Memory[pc+1])
	case 2:
		imm = concat(cpu.Memory[pc+2], cpu.Memory[pc+1])
	}

	next := int(pc) + 1 + in.width
	cpu.PC = uint16(next)

	jumped, err := in.exec(cpu, in, pc, imm)
	if err != nil {
		cpu.PC = pc
		return
	}

	cpu.Last = pc
	cpu.Ticks++

	if !jumped && next >= MEMORY_SIZE {
		err = ErrPcEnd
	}

	return
}

// Run clears the halt state and executes from address 0.
// See Resume for the stop conditions.
func (cpu *Cpu) Run(ctx context.Context, budget int) (err error) {
	cpu.PC = 0
	return cpu.Resume(ctx, budget)
}

// Resume clears the halt state and executes from PC until the CPU halts
// or runs past the end of memory. A budget > 0 limits the number of
// steps, returning ErrStepLimit once exhausted. Cancelling ctx stops the
// loop with the context's error.
func (cpu *Cpu) Resume(ctx context.Context, budget int) (err error) {
	cpu.Halted = false

	for steps := 0; !cpu.Halted; steps++ {
		if budget > 0 && steps >= budget {
			err = ErrStepLimit
			return
		}
		if steps%cancelInterval == 0 {
			err = ctx.Err()
			if err != nil {
				return
			}
		}

		err = cpu.Step()
		if errors.Is(err, ErrPcEnd) {
			err = nil
			return
		}
		if err != nil {
			return
		}
	}

	return
}

// ReadMemory reads one memory cell.
func (cpu *Cpu) ReadMemory(addr int) (value uint8, err error) {
	if addr < 0 || addr >= MEMORY_SIZE {
		err = ErrAddress(addr)
		return
	}

	value = cpu.Memory[addr]
	return
}

// WriteMemory writes one memory cell; the value is masked to 8 bits.
func (cpu *Cpu) WriteMemory(addr int, value int) (err error) {
	if addr < 0 || addr >= MEMORY_SIZE {
		err = ErrAddress(addr)
		return
	}

	cpu.Memory[addr] = uint8(value)
	return
}

// ReadPort reads the latch of one I/O port, without touching its device.
func (cpu *Cpu) ReadPort(port int) (value uint8, err error) {
	if port < 0 || port >= PORT_COUNT {
		err = ErrPort(port)
		return
	}

	value = cpu.Port[port]
	return
}

// WritePort sets the latch of one I/O port, without touching its device.
// The value is masked to 8 bits.
func (cpu *Cpu) WritePort(port int, value int) (err error) {
	if port < 0 || port >= PORT_COUNT {
		err = ErrPort(port)
		return
	}

	cpu.Port[port] = uint8(value)
	return
}

// GetRegister reads a register. REG_M reads memory at H:L.
func (cpu *Cpu) GetRegister(r Register) (value uint16, err error) {
	switch r {
	case REG_B, REG_C, REG_D, REG_E, REG_H, REG_L, REG_M, REG_A:
		value = uint16(cpu.get8(r))
	case REG_FLAG:
		value = uint16(cpu.Flag)
	case REG_SP:
		value = cpu.SP
	case REG_PC:
		value = cpu.PC
	default:
		err = ErrRegister
	}

	return
}

// SetRegister writes a register. 8-bit values are masked, while
// SP and PC reject values outside of [0, 65535].
func (cpu *Cpu) SetRegister(r Register, value int) (err error) {
	if r.Wide() && (value < 0 || value > 0xffff) {
		err = ErrValue
		return
	}

	switch r {
	case REG_B, REG_C, REG_D, REG_E, REG_H, REG_L, REG_M, REG_A:
		cpu.set8(r, uint8(value))
	case REG_FLAG:
		cpu.Flag = uint8(value)
	case REG_SP:
		cpu.SP = uint16(value)
	case REG_PC:
		cpu.PC = uint16(value)
	default:
		err = ErrRegister
	}

	return
}

// FlagBit reads one bit of the flag register.
func (cpu *Cpu) FlagBit(bit int) (set bool, err error) {
	if bit < 0 || bit > 7 {
		err = ErrFlagBit
		return
	}

	set = cpu.Flag&(1<<bit) != 0
	return
}

// SetFlagBit writes one bit of the flag register.
func (cpu *Cpu) SetFlagBit(bit int, set bool) (err error) {
	if bit < 0 || bit > 7 {
		err = ErrFlagBit
		return
	}

	cpu.setFlag(uint8(1<<bit), set)
	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []Register{REG_A, REG_B, REG_C, REG_D, REG_E, REG_H, REG_L, REG_FLAG, REG_SP, REG_PC}
	for _, reg := range regs {
		value, _ := cpu.GetRegister(reg)
		var strval string
		switch reg {
		case REG_SP, REG_PC:
			strval = fmt.Sprintf("%04X", value)
		case REG_FLAG:
			strval = fmt.Sprintf("%02X %v", value, flagString(cpu.Flag))
		default:
			strval = fmt.Sprintf("%02X", value)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	halted := "false"
	if cpu.Halted {
		halted = "true"
	}
	text += fmt.Sprintf("% 5s: %v\n", "HLT", halted)

	return
}

// flagString shows the set flags in upper case, ie 'sZaPc'.
func flagString(flag uint8) string {
	out := []byte("szapc")
	for n, mask := range []uint8{FLAG_S, FLAG_Z, FLAG_AC, FLAG_P, FLAG_CY} {
		if flag&mask != 0 {
			out[n] -= 'a' - 'A'
		}
	}
	return string(out)
}

// hl is the address formed by H:L.
func (cpu *Cpu) hl() uint16 {
	return concat(cpu.Reg[REG_H], cpu.Reg[REG_L])
}

// get8 reads an 8-bit register operand; M is memory at H:L.
func (cpu *Cpu) get8(r Register) uint8 {
	if r == REG_M {
		return cpu.Memory[cpu.hl()]
	}
	return cpu.Reg[r]
}

// set8 writes an 8-bit register operand; M is memory at H:L.
func (cpu *Cpu) set8(r Register, value uint8) {
	if r == REG_M {
		cpu.Memory[cpu.hl()] = value
		return
	}
	cpu.Reg[r] = value
}

// pair reads a register pair.
func (cpu *Cpu) pair(p Pair) uint16 {
	switch p {
	case PAIR_BC:
		return concat(cpu.Reg[REG_B], cpu.Reg[REG_C])
	case PAIR_DE:
		return concat(cpu.Reg[REG_D], cpu.Reg[REG_E])
	case PAIR_HL:
		return cpu.hl()
	case PAIR_SP:
		return cpu.SP
	case PAIR_PSW:
		return concat(cpu.Reg[REG_A], cpu.Flag)
	}
	return 0
}

// setPair writes a register pair.
func (cpu *Cpu) setPair(p Pair, value uint16) {
	high, low := split(value)
	switch p {
	case PAIR_BC:
		cpu.Reg[REG_B], cpu.Reg[REG_C] = high, low
	case PAIR_DE:
		cpu.Reg[REG_D], cpu.Reg[REG_E] = high, low
	case PAIR_HL:
		cpu.Reg[REG_H], cpu.Reg[REG_L] = high, low
	case PAIR_SP:
		cpu.SP = value
	case PAIR_PSW:
		cpu.Reg[REG_A], cpu.Flag = high, low
	}
}

// portIn reads a port through its device, if any, latching the value.
func (cpu *Cpu) portIn(port uint8) (value uint8, err error) {
	if at := cpu.device[port]; at != nil {
		value, err = at.Device.In(port - at.Base)
		if err != nil {
			err = &ErrDevice{Port: port, Err: err}
			return
		}
		cpu.Port[port] = value
	}

	value = cpu.Port[port]
	return
}

// portOut latches a port value and forwards it to its device, if any.
func (cpu *Cpu) portOut(port uint8, value uint8) (err error) {
	cpu.Port[port] = value

	if at := cpu.device[port]; at != nil {
		err = at.Device.Out(port-at.Base, value)
		if err != nil {
			err = &ErrDevice{Port: port, Err: err}
		}
	}

	return
}
