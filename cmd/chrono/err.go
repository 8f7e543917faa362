package main

import (
	"github.com/ezrec/chrono/translate"
)

var f = translate.From

type ErrArguments []string

func (err ErrArguments) Error() string {
	return f("unknown arguments: %v", []string(err))
}
