package cpu

import (
	"fmt"
	"iter"
	"slices"
)

// Record is the listing entry of one program byte.
// Only the first byte of an instruction carries its label and mnemonic.
type Record struct {
	Address  uint16 // Address of the byte.
	Label    string // Label defined at this address, if any.
	Mnemonic string // Instruction text, ie 'MVI A,05H'.
	Code     uint8  // Byte value.
	Bytes    int    // Instruction size, or 0 for operand bytes.
}

func (rec Record) String() string {
	label := ""
	if len(rec.Label) != 0 {
		label = rec.Label + ":"
	}
	if rec.Bytes == 0 {
		return fmt.Sprintf("%04X  %02X", rec.Address, rec.Code)
	}
	return fmt.Sprintf("%04X  %02X  %-8s %-16s ; %d", rec.Address, rec.Code, label, rec.Mnemonic, rec.Bytes)
}

// Line maps an assembled instruction back to its source line.
type Line struct {
	LineNo  int    // 1-based source line number.
	Address uint16 // Address of the instruction.
	Size    int    // Instruction size in bytes.
	Text    string // Source text, without comments.
}

// Program is the output of the Assembler.
type Program struct {
	Bytes   []uint8           // Machine code, loaded at address 0.
	Records []Record          // One listing record per byte of Bytes.
	Lines   []Line            // Instructions, in ascending address order.
	Labels  map[string]uint16 // Resolved label addresses.
}

// Debug returns the source line of the instruction covering addr.
func (prog *Program) Debug(addr uint16) (line Line, ok bool) {
	n, found := slices.BinarySearchFunc(prog.Lines, addr, func(line Line, addr uint16) int {
		return int(line.Address) - int(addr)
	})
	if !found {
		if n == 0 {
			return
		}
		n--
	}

	if int(addr) < int(prog.Lines[n].Address)+prog.Lines[n].Size {
		line = prog.Lines[n]
		ok = true
	}

	return
}

// Listing iterates over the program records by address.
func (prog *Program) Listing() iter.Seq2[uint16, Record] {
	return func(yield func(addr uint16, rec Record) bool) {
		for _, rec := range prog.Records {
			if !yield(rec.Address, rec) {
				return
			}
		}
	}
}
