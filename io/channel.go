// Package io provides output channel implementations for the chrono emulator.
// It includes a Tape that renders the value stream as text, and a Temporary
// buffer that keeps the values in memory.
package io

import (
	"iter"
)

// Channel defines the interface for all output channels.
// Channels receive the three bit values emitted by the machine, in order.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Send writes a single value to the channel.
	Send(value uint8) error
	// Defines returns the assembler equates provided by the channel.
	Defines() iter.Seq2[string, string]
}
