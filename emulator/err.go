package emulator

import (
	"github.com/ezrec/sim8085/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo  int
	Address uint16
	Err     error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("%04XH: %v", err.Address, err.Err)
	}
	return f("line %d (%04XH) %v", err.LineNo, err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
