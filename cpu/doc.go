// Package cpu implements the Intel 8085 microprocessor and assembler for the sim8085 system.
//
// The CPU consists of seven 8-bit registers (A, B, C, D, E, H, L), a flag
// register, a 16-bit stack pointer (SP) and program counter (PC), 64KiB of
// memory and 256 I/O ports. Instructions are decoded through an OpcodeTable,
// which is shared with the Assembler so that both directions of the
// opcode contract come from one definition.
//
// The assembler translates 8085 assembly source into a Program: the byte
// stream loaded at address 0, plus a per-byte listing and a line map used to
// report runtime faults against the source.
package cpu
