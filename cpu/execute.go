package cpu

import (
	"strconv"
	"strings"
)

// operation executes a decoded instruction. The PC has already been
// advanced past the instruction at pc; imm holds its immediate operand.
// jumped reports that PC was overwritten by a control transfer.
type operation func(cpu *Cpu, in *instruction, pc uint16, imm uint16) (jumped bool, err error)

// instruction is an opcode pattern decoded into operands.
type instruction struct {
	pattern Pattern
	exec    operation
	width   int
	dst     Register
	src     Register
	pair    Pair
	cond    Cond
	vector  uint16
}

// operations maps unconditional mnemonics to their implementation.
// Mnemonics missing here (RIM, SIM) are reported as unsupported.
var operations = map[string]operation{
	"NOP":  opNop,
	"HLT":  opHlt,
	"MOV":  opMov,
	"MVI":  opMvi,
	"LXI":  opLxi,
	"LDA":  opLda,
	"STA":  opSta,
	"LHLD": opLhld,
	"SHLD": opShld,
	"LDAX": opLdax,
	"STAX": opStax,
	"XCHG": opXchg,
	"SPHL": opSphl,
	"XTHL": opXthl,
	"PUSH": opPush,
	"POP":  opPop,
	"ADD":  opAdd,
	"ADC":  opAdc,
	"ADI":  opAdi,
	"ACI":  opAci,
	"SUB":  opSub,
	"SBB":  opSbb,
	"SUI":  opSui,
	"SBI":  opSbi,
	"INR":  opInr,
	"DCR":  opDcr,
	"INX":  opInx,
	"DCX":  opDcx,
	"DAD":  opDad,
	"DAA":  opDaa,
	"ANA":  opAna,
	"ANI":  opAni,
	"XRA":  opXra,
	"XRI":  opXri,
	"ORA":  opOra,
	"ORI":  opOri,
	"CMP":  opCmp,
	"CPI":  opCpi,
	"RLC":  opRlc,
	"RRC":  opRrc,
	"RAL":  opRal,
	"RAR":  opRar,
	"CMA":  opCma,
	"CMC":  opCmc,
	"STC":  opStc,
	"JMP":  opJump,
	"CALL": opCall,
	"RET":  opReturn,
	"RST":  opRst,
	"PCHL": opPchl,
	"IN":   opIn,
	"OUT":  opOut,
	"EI":   opEi,
	"DI":   opDi,
}

// conditional maps the first letter of Jcc, Ccc and Rcc to their implementation.
var conditional = map[byte]operation{
	'J': opJump,
	'C': opCall,
	'R': opReturn,
}

// decode resolves the operands and implementation of a pattern.
func decode(pattern Pattern) (in instruction) {
	in.pattern = pattern
	in.width = pattern.Width()

	mnemonic := pattern.Mnemonic()
	operand := func(n int) string {
		operands := pattern.Operands()
		if n < len(operands) {
			return operands[n]
		}
		return ""
	}

	in.exec = operations[mnemonic]
	if in.exec == nil && len(mnemonic) > 1 {
		cond, ok := condSuffix[mnemonic[1:]]
		if ok {
			in.exec = conditional[mnemonic[0]]
			in.cond = cond
		}
	}

	switch mnemonic {
	case "MOV":
		in.dst = register8(operand(0))
		in.src = register8(operand(1))
	case "MVI", "INR", "DCR":
		in.dst = register8(operand(0))
	case "ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP":
		in.src = register8(operand(0))
	case "LXI", "LDAX", "STAX", "INX", "DCX", "DAD", "PUSH", "POP":
		in.pair = registerPair(operand(0))
	case "RST":
		n, _ := strconv.Atoi(operand(0))
		in.vector = uint16(n) * 8
	}

	return
}

// register8 maps an operand token to an 8-bit register.
func register8(token string) Register {
	for n, name := range registerOrder {
		if name == token {
			return Register(n)
		}
	}
	return REG_A
}

// registerPair maps an operand token to a register pair.
func registerPair(token string) Pair {
	for n, name := range pairName {
		if strings.EqualFold(name, token) {
			return Pair(n)
		}
	}
	return PAIR_HL
}

func opNop(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	return
}

func opHlt(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Halted = true
	return
}

// Data transfer group

func opMov(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.set8(in.dst, cpu.get8(in.src))
	return
}

func opMvi(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.set8(in.dst, uint8(imm))
	return
}

func opLxi(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.setPair(in.pair, imm)
	return
}

func opLda(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.Memory[imm]
	return
}

func opSta(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Memory[imm] = cpu.Reg[REG_A]
	return
}

func opLhld(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_L] = cpu.Memory[imm]
	cpu.Reg[REG_H] = cpu.Memory[imm+1]
	return
}

func opShld(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Memory[imm] = cpu.Reg[REG_L]
	cpu.Memory[imm+1] = cpu.Reg[REG_H]
	return
}

func opLdax(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.Memory[cpu.pair(in.pair)]
	return
}

func opStax(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Memory[cpu.pair(in.pair)] = cpu.Reg[REG_A]
	return
}

func opXchg(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	de := cpu.pair(PAIR_DE)
	cpu.setPair(PAIR_DE, cpu.pair(PAIR_HL))
	cpu.setPair(PAIR_HL, de)
	return
}

func opSphl(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.SP = cpu.hl()
	return
}

func opXthl(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	top := cpu.Peek()
	high, low := split(cpu.hl())
	cpu.Memory[cpu.SP] = low
	cpu.Memory[cpu.SP+1] = high
	cpu.setPair(PAIR_HL, top)
	return
}

// Stack group

func opPush(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.push(cpu.pair(in.pair))
	return
}

func opPop(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.setPair(in.pair, cpu.pop())
	return
}

// Arithmetic group

func opAdd(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.add(cpu.Reg[REG_A], cpu.get8(in.src), 0)
	return
}

func opAdc(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.add(cpu.Reg[REG_A], cpu.get8(in.src), cpu.carry())
	return
}

func opAdi(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.add(cpu.Reg[REG_A], uint8(imm), 0)
	return
}

func opAci(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.add(cpu.Reg[REG_A], uint8(imm), cpu.carry())
	return
}

func opSub(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.sub(cpu.Reg[REG_A], cpu.get8(in.src), 0)
	return
}

func opSbb(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.sub(cpu.Reg[REG_A], cpu.get8(in.src), cpu.carry())
	return
}

func opSui(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.sub(cpu.Reg[REG_A], uint8(imm), 0)
	return
}

func opSbi(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.sub(cpu.Reg[REG_A], uint8(imm), cpu.carry())
	return
}

func opInr(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.set8(in.dst, cpu.inr(cpu.get8(in.dst)))
	return
}

func opDcr(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.set8(in.dst, cpu.dcr(cpu.get8(in.dst)))
	return
}

func opInx(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.setPair(in.pair, cpu.pair(in.pair)+1)
	return
}

func opDcx(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.setPair(in.pair, cpu.pair(in.pair)-1)
	return
}

func opDad(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	sum := uint32(cpu.hl()) + uint32(cpu.pair(in.pair))
	cpu.setFlag(FLAG_CY, sum > 0xffff)
	cpu.setPair(PAIR_HL, uint16(sum))
	return
}

func opDaa(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.daa()
	return
}

// Logical group

func opAna(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.logic(cpu.Reg[REG_A]&cpu.get8(in.src), true)
	return
}

func opAni(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.logic(cpu.Reg[REG_A]&uint8(imm), true)
	return
}

func opXra(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.logic(cpu.Reg[REG_A]^cpu.get8(in.src), false)
	return
}

func opXri(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.logic(cpu.Reg[REG_A]^uint8(imm), false)
	return
}

func opOra(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.logic(cpu.Reg[REG_A]|cpu.get8(in.src), false)
	return
}

func opOri(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = cpu.logic(cpu.Reg[REG_A]|uint8(imm), false)
	return
}

func opCmp(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.sub(cpu.Reg[REG_A], cpu.get8(in.src), 0)
	return
}

func opCpi(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.sub(cpu.Reg[REG_A], uint8(imm), 0)
	return
}

func opRlc(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	a := cpu.Reg[REG_A]
	cpu.setFlag(FLAG_CY, a&0x80 != 0)
	cpu.Reg[REG_A] = a<<1 | a>>7
	return
}

func opRrc(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	a := cpu.Reg[REG_A]
	cpu.setFlag(FLAG_CY, a&0x01 != 0)
	cpu.Reg[REG_A] = a>>1 | a<<7
	return
}

func opRal(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	a := cpu.Reg[REG_A]
	carry := cpu.carry()
	cpu.setFlag(FLAG_CY, a&0x80 != 0)
	cpu.Reg[REG_A] = a<<1 | carry
	return
}

func opRar(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	a := cpu.Reg[REG_A]
	carry := cpu.carry()
	cpu.setFlag(FLAG_CY, a&0x01 != 0)
	cpu.Reg[REG_A] = a>>1 | carry<<7
	return
}

func opCma(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Reg[REG_A] = ^cpu.Reg[REG_A]
	return
}

func opCmc(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.Flag ^= FLAG_CY
	return
}

func opStc(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.setFlag(FLAG_CY, true)
	return
}

// Branch group

func opJump(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	if in.cond.Holds(cpu.Flag) {
		cpu.PC = imm
		jumped = true
	}
	return
}

func opCall(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	if in.cond.Holds(cpu.Flag) {
		cpu.push(cpu.PC)
		cpu.PC = imm
		jumped = true
	}
	return
}

func opReturn(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	if in.cond.Holds(cpu.Flag) {
		cpu.PC = cpu.pop()
		jumped = true
	}
	return
}

func opRst(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.push(cpu.PC)
	cpu.PC = in.vector
	jumped = true
	return
}

func opPchl(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.PC = cpu.hl()
	jumped = true
	return
}

// I/O and machine control group

func opIn(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	value, err := cpu.portIn(uint8(imm))
	if err != nil {
		return
	}
	cpu.Reg[REG_A] = value
	return
}

func opOut(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	err = cpu.portOut(uint8(imm), cpu.Reg[REG_A])
	return
}

func opEi(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.InterruptEnable = true
	return
}

func opDi(cpu *Cpu, in *instruction, pc, imm uint16) (jumped bool, err error) {
	cpu.InterruptEnable = false
	return
}
