package optic

import (
	"errors"
	"time"
)

var ErrInvalidConfig = errors.New("invalid timing configuration")

// TimingConfig defines the shared frame timing of sender and receiver.
// Both endpoints must be configured identically, the configuration is
// agreed out-of-band and never transmitted.
type TimingConfig struct {
	// StartDuration is how long the start symbol (ON) is held.
	StartDuration time.Duration
	// BitDuration is how long each of the 8 payload symbols is held.
	BitDuration time.Duration
	// EndDuration is how long the end symbol (OFF) is held.
	EndDuration time.Duration
	// ToleranceFactor is the multiple of an expected duration the receiver
	// waits before declaring a framing error. The protocol tolerates waiting
	// up to ToleranceFactor x expected duration, it is not a hard cutoff.
	ToleranceFactor float64
	// BrightnessChangeThreshold is the brightness delta above the calibrated
	// baseline at which a sample counts as ON.
	BrightnessChangeThreshold float64
	// CalibrationSampleCount is the number of samples collected to measure
	// the ambient baseline before symbol detection starts.
	CalibrationSampleCount int
}

// DefaultTimingConfig returns the default frame timing.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		StartDuration:             1000 * time.Millisecond,
		BitDuration:               300 * time.Millisecond,
		EndDuration:               1000 * time.Millisecond,
		ToleranceFactor:           1.5,
		BrightnessChangeThreshold: 50,
		CalibrationSampleCount:    30,
	}
}

// Validate checks the configuration for values the protocol cannot work with.
func (c TimingConfig) Validate() error {
	if c.StartDuration <= 0 || c.BitDuration <= 0 || c.EndDuration <= 0 {
		return ErrInvalidConfig
	}
	if c.ToleranceFactor <= 1.0 {
		return ErrInvalidConfig
	}
	if c.BrightnessChangeThreshold <= 0 {
		return ErrInvalidConfig
	}
	if c.CalibrationSampleCount <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Tolerance returns the patience window for an expected duration,
// ToleranceFactor x d.
func (c TimingConfig) Tolerance(d time.Duration) time.Duration {
	return time.Duration(float64(d) * c.ToleranceFactor)
}
