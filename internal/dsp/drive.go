package dsp

const (
	// DriveBias keeps drive time creeping forward in silence.
	DriveBias = 0.0025
	// DriveDecay is the share of the previous value carried into the next frame.
	DriveDecay = 0.75
)

// DriveTime is the causal accumulator that phases the periodic animation. Advance
// must run exactly once per frame, in frame order.
type DriveTime struct {
	value float64
}

// Advance folds the low band energy into the accumulator and returns the new value.
func (d *DriveTime) Advance(low float64) float64 {
	d.value = DriveBias + low + DriveDecay*d.value
	return d.value
}

// Value returns the current drive time without advancing it.
func (d *DriveTime) Value() float64 {
	return d.value
}

// DriveFixedPoint is the steady-state value for a constant low band energy.
func DriveFixedPoint(low float64) float64 {
	return (DriveBias + low) / (1 - DriveDecay)
}
