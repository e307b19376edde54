// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/sim8085/cpu"
	"github.com/ezrec/sim8085/internal"
	"github.com/ezrec/sim8085/io"
)

const (
	TAPE_BASE     = 0x00 // Base port of the tape.
	TEMP_BASE     = 0x10 // Base port of the temporary buffer.
	TEMP_CAPACITY = 256  // Temporary buffer size, in bytes.
)

var _emulator_defines = map[string]string{
	"TAPE_BASE": fmt.Sprintf("%d", TAPE_BASE),
	"TEMP_BASE": fmt.Sprintf("%d", TEMP_BASE),
}

// Emulator state. CPU + program + port devices.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.

	Temporary io.Temporary // Temporary buffer, at TEMP_BASE.
	Tape      io.Tape      // Tape, at TAPE_BASE.
}

// NewEmulator creates a new emulator, with its devices attached.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(cpu.Intel8085()),
		Program: &cpu.Program{},
	}

	emu.Temporary.Capacity = TEMP_CAPACITY

	err := errors.Join(
		emu.Cpu.Attach(TAPE_BASE, &emu.Tape),
		emu.Cpu.Attach(TEMP_BASE, &emu.Temporary),
	)
	if err != nil {
		panic(err)
	}

	emu.Temporary.Rewind()

	return
}

// Defines returns an iterator over all of the defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Tape.Defines(TAPE_BASE),
		emu.Temporary.Defines(TEMP_BASE),
	)
}

// Assembler returns an assembler sharing the CPU's opcode table, with
// all of the defines predefined as equates.
func (emu *Emulator) Assembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{
		Verbose: emu.Verbose,
		Table:   emu.Cpu.Table(),
	}

	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	return
}

// Assemble translates source text, and makes it the current program.
// The current program is kept if assembly fails.
func (emu *Emulator) Assemble(source string) (err error) {
	prog, err := emu.Assembler().Assemble(source)
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Load makes a raw binary the current program. The program has no
// source lines, so runtime errors report line 0.
func (emu *Emulator) Load(binary []uint8) (err error) {
	if len(binary) > cpu.MEMORY_SIZE {
		err = cpu.ErrProgramSize
		return
	}

	emu.Program = &cpu.Program{Bytes: binary}

	return
}

// Reset the CPU and devices, and load the current program.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = false

	emu.Cpu.Reset()

	err = emu.Cpu.LoadProgram(emu.Program.Bytes)
	if err != nil {
		return
	}

	emu.Cpu.Verbose = emu.Verbose

	if emu.Verbose {
		log.Printf("emulator: reset, %d bytes loaded", len(emu.Program.Bytes))
	}

	return
}

// LineNo returns the source line number of the instruction at PC,
// or 0 if it has no source line.
func (emu *Emulator) LineNo() int {
	line, ok := emu.Program.Debug(emu.Cpu.PC)
	if !ok {
		return 0
	}

	return line.LineNo
}

// runtimeError wraps a CPU error with the location of the instruction at PC.
func (emu *Emulator) runtimeError(err error) error {
	return &ErrRuntime{LineNo: emu.LineNo(), Address: emu.Cpu.PC, Err: err}
}

// Tick executes a single instruction. done is set once the program halts
// or runs off the end of memory.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Halted = false

	err = emu.Cpu.Step()
	if errors.Is(err, cpu.ErrPcEnd) {
		err = nil
		done = true
		return
	}
	if err != nil {
		err = emu.runtimeError(err)
		return
	}

	done = emu.Cpu.Halted

	return
}

// Run executes the program from address 0 until it halts, at most budget
// instructions if budget > 0.
func (emu *Emulator) Run(ctx context.Context, budget int) (err error) {
	emu.Cpu.Verbose = emu.Verbose

	err = emu.Cpu.Run(ctx, budget)
	if err != nil {
		err = emu.runtimeError(err)
		return
	}

	if emu.Verbose {
		log.Printf("emulator: halted after %d instructions", emu.Cpu.Ticks)
	}

	return
}
