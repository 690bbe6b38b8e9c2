// Package bitcodec converts between a byte and its 8 transmitted bit symbols
package bitcodec

import (
	"errors"
	"fmt"
)

// FrameBits is the fixed payload length of one frame.
const FrameBits = 8

var ErrMalformedFrame = errors.New("malformed frame")

// ToBits expands a byte to its 8 bits, most significant bit first.
func ToBits(v byte) []byte {
	bits := make([]byte, FrameBits)
	for i := 0; i < FrameBits; i++ {
		bits[i] = (v >> (FrameBits - 1 - i)) & 1
	}
	return bits
}

// FromBits packs 8 bits (most significant bit first) back into a byte.
// Any input that is not exactly 8 binary values is rejected, a malformed
// frame must never silently decode to a wrong but plausible byte.
func FromBits(bits []byte) (byte, error) {
	if len(bits) != FrameBits {
		return 0, fmt.Errorf("%w: got %d bits, want %d", ErrMalformedFrame, len(bits), FrameBits)
	}

	var v byte
	for i, b := range bits {
		if b > 1 {
			return 0, fmt.Errorf("%w: bit %d has value %d", ErrMalformedFrame, i, b)
		}
		v |= b << (FrameBits - 1 - i)
	}
	return v, nil
}
