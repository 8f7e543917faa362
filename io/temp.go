package io

import (
	"iter"
	"maps"
	"slices"
)

// Temporary keeps the value stream in memory.
// A non-zero Capacity bounds the number of values it will accept.
type Temporary struct {
	Capacity int // Capacity in values; 0 is unbounded.

	Data []uint8
}

var _ Channel = (*Temporary)(nil)

// Defines returns an iter of defines for the channel.
func (temp *Temporary) Defines() iter.Seq2[string, string] {
	return maps.All(map[string]string{})
}

// Rewind empties the buffer.
func (temp *Temporary) Rewind() {
	temp.Data = temp.Data[:0]
}

// Receive returns an iterator over the buffered values, oldest first.
func (temp *Temporary) Receive() iter.Seq[uint8] {
	return slices.Values(temp.Data)
}

// Send appends a value to the buffer.
// Returns ErrChannelFull if the buffer has reached capacity.
func (temp *Temporary) Send(value uint8) (err error) {
	if value > 7 {
		err = ErrValueInvalid
		return
	}

	if temp.Capacity > 0 && len(temp.Data) >= temp.Capacity {
		err = ErrChannelFull
		return
	}

	temp.Data = append(temp.Data, value)

	return
}
