// Package lightlevel classifies brightness samples against a calibrated baseline
package lightlevel

// Classifier decides whether a brightness sample represents the ON symbol.
type Classifier interface {
	// IsOn reports whether brightness counts as ON relative to baseline.
	IsOn(brightness, baseline float64) bool
}

// Differential classifies by the brightness delta from the baseline.
// Measuring the delta instead of an absolute level makes detection robust
// against the ambient light offset of the scene.
type Differential struct {
	// Threshold is the minimum delta above baseline that counts as ON.
	Threshold float64
}

// IsOn reports true iff brightness exceeds baseline by at least Threshold.
// The boundary is inclusive.
func (c Differential) IsOn(brightness, baseline float64) bool {
	return brightness-baseline >= c.Threshold
}

// Absolute classifies against a fixed brightness level and ignores the
// baseline. It is a degraded fallback for scenes with known constant
// ambient light, the Differential classifier is preferred.
type Absolute struct {
	// Level is the brightness at or above which a sample counts as ON.
	Level float64
}

// IsOn reports true iff brightness reaches Level, regardless of baseline.
func (c Absolute) IsOn(brightness, _ float64) bool {
	return brightness >= c.Level
}
