package lightlevel

import (
	"errors"
)

var (
	ErrNotCalibrated      = errors.New("calibration not finished")
	ErrAlreadyCalibrated  = errors.New("calibration already finished")
	ErrInvalidSampleCount = errors.New("invalid calibration sample count")
)

// Baseline is the calibrated reference brightness representing the ambient
// (OFF) light level. It is immutable once calibration completes.
type Baseline struct {
	// Mean is the arithmetic mean brightness of the calibration window.
	Mean float64
	// SampleCount is the number of samples the mean was computed from.
	SampleCount int
}

// Calibrator reduces a fixed window of brightness samples to a Baseline.
// It runs exactly once per receive session, feeding it further samples
// after completion is a protocol violation.
type Calibrator struct {
	target int
	count  int
	sum    float64
}

// NewCalibrator returns a calibrator that completes after sampleCount samples.
func NewCalibrator(sampleCount int) (*Calibrator, error) {
	if sampleCount <= 0 {
		return nil, ErrInvalidSampleCount
	}
	return &Calibrator{target: sampleCount}, nil
}

// Add feeds one brightness sample and reports whether the calibration
// window is complete. Adding past completion returns ErrAlreadyCalibrated.
func (c *Calibrator) Add(brightness float64) (bool, error) {
	if c.count >= c.target {
		return true, ErrAlreadyCalibrated
	}

	c.sum += brightness
	c.count++
	return c.count == c.target, nil
}

// Done reports whether the calibration window is complete.
func (c *Calibrator) Done() bool {
	return c.count == c.target
}

// Baseline returns the calibrated baseline. It fails with ErrNotCalibrated
// until the full sample window has been collected, a baseline can never be
// built from zero samples.
func (c *Calibrator) Baseline() (Baseline, error) {
	if !c.Done() {
		return Baseline{}, ErrNotCalibrated
	}

	return Baseline{
		Mean:        c.sum / float64(c.count),
		SampleCount: c.count,
	}, nil
}
