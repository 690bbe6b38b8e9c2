// Package optic holds the shared definitions of the optical link physical layer
package optic

import "time"

// Symbol represents one discrete optical state.
type Symbol int

const (
	// Off indicates the dark/ambient light level (a logical 0 on the line).
	Off Symbol = 0
	// On indicates the active light level (a logical 1 on the line).
	On Symbol = 1
)

// String returns the symbol name.
func (s Symbol) String() string {
	switch s {
	case Off:
		return "OFF"
	case On:
		return "ON"
	}
	return "INVALID"
}

// Sample is one timestamped brightness measurement.
type Sample struct {
	// Timestamp indicates the time the sample was taken.
	Timestamp time.Time
	// Brightness is the measured light level in the range [0,255].
	Brightness float64
}

// Step is one timed symbol of a transmit sequence.
type Step struct {
	// Symbol is the optical state to hold.
	Symbol Symbol
	// Duration is how long the symbol must be held.
	Duration time.Duration
}
