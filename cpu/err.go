package cpu

import (
	"errors"

	"github.com/ezrec/sim8085/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrPcEnd       = errors.New(f("pc past end of memory"))
	ErrStepLimit   = errors.New(f("step limit reached"))
	ErrRegister    = errors.New(f("register invalid"))
	ErrValue       = errors.New(f("value out of range"))
	ErrFlagBit     = errors.New(f("flag bit out of range"))
	ErrProgramSize = errors.New(f("program exceeds memory"))
	ErrPortInUse   = errors.New(f("port already attached"))

	// Opcode table errors
	ErrOpcodeAmbiguous = errors.New(f("opcode signature ambiguous"))
	ErrOpcodeEmpty     = errors.New(f("opcode pattern empty"))

	// Assembler errors
	ErrLabelInvalid    = errors.New(f("label invalid"))
	ErrLabelReserved   = errors.New(f("label is a reserved word"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrLabelUndefined  = errors.New(f("label undefined"))
	ErrLabelUnresolved = errors.New(f("label unresolved"))
	ErrEquateSyntax    = errors.New(f("EQU syntax"))
	ErrSyntaxUnknown   = errors.New(f("unknown mnemonic or syntax"))
	ErrOperandEmpty    = errors.New(f("operand empty"))
	ErrNumberInvalid   = errors.New(f("number invalid"))
	ErrDataRange       = errors.New(f("data out of range"))
)

// ErrOpcode is an undefined opcode fetched at an address.
type ErrOpcode struct {
	Address uint16
	Code    uint8
}

func (eo ErrOpcode) Error() string {
	return f("unknown opcode 0x%02X at %04XH", eo.Code, eo.Address)
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrUnsupported is a defined opcode the simulation does not model.
type ErrUnsupported struct {
	Address  uint16
	Mnemonic string
}

func (eu ErrUnsupported) Error() string {
	return f("%v at %04XH not implemented", eu.Mnemonic, eu.Address)
}

func (eu ErrUnsupported) Is(err error) (ok bool) {
	_, ok = err.(ErrUnsupported)
	return
}

// ErrAddress is a memory address outside of [0, 65535].
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("memory address %v out of bounds", int(ea))
}

func (ea ErrAddress) Is(err error) (ok bool) {
	_, ok = err.(ErrAddress)
	return
}

// ErrPort is an I/O port outside of [0, 255].
type ErrPort int

func (ep ErrPort) Error() string {
	return f("port %v out of bounds", int(ep))
}

func (ep ErrPort) Is(err error) (ok bool) {
	_, ok = err.(ErrPort)
	return
}

// ErrSyntax locates an assembly error in the source text.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

func (err ErrParseNumber) Is(target error) bool {
	return target == ErrNumberInvalid
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrDevice is a failure of the device attached to a port.
type ErrDevice struct {
	Port uint8
	Err  error
}

func (err *ErrDevice) Error() string {
	return f("port %02XH: %v", err.Port, err.Err)
}

func (err *ErrDevice) Unwrap() error {
	return err.Err
}
