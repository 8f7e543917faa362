package io

import (
	"errors"

	"github.com/ezrec/chrono/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelFull  = errors.New(f("channel full"))
	ErrValueInvalid = errors.New(f("value out of range"))
)
