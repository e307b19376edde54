package io

import (
	"errors"

	"github.com/ezrec/sim8085/translate"
)

var f = translate.From

var (
	// Device errors
	ErrChannelFull  = errors.New(f("channel full"))
	ErrChannelEmpty = errors.New(f("channel empty"))
	ErrPortInvalid  = errors.New(f("port offset invalid"))
	ErrPortReadOnly = errors.New(f("port is read-only"))
	ErrTapeMissing  = errors.New(f("tape not mounted"))
)
