package io

import (
	"io"
	"iter"
	"maps"
	"strconv"
)

// Tape renders the value stream as a comma separated line of text.
type Tape struct {
	Output io.Writer // Destination; values are dropped if nil.

	count int
}

var _ Channel = (*Tape)(nil)

var _tape_defines = map[string]string{
	"TAPE_RADIX": "10",
}

// Defines returns an iter of defines for the channel.
func (tc *Tape) Defines() iter.Seq2[string, string] {
	return maps.All(_tape_defines)
}

// Rewind starts a new line of output.
func (tc *Tape) Rewind() {
	tc.count = 0
}

// Count returns the number of values written since the last rewind.
func (tc *Tape) Count() int {
	return tc.count
}

// Send writes a value to the output, preceded by a comma if it is not
// the first value on the line.
func (tc *Tape) Send(value uint8) (err error) {
	if value > 7 {
		err = ErrValueInvalid
		return
	}

	if tc.Output == nil {
		tc.count++
		return
	}

	text := strconv.Itoa(int(value))
	if tc.count > 0 {
		text = "," + text
	}

	_, err = io.WriteString(tc.Output, text)
	if err != nil {
		return
	}

	tc.count++

	return
}

// Flush terminates the current line of output.
func (tc *Tape) Flush() (err error) {
	if tc.Output != nil {
		_, err = io.WriteString(tc.Output, "\n")
	}

	tc.count = 0
	return
}
