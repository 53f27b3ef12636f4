package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriveTimeRecurrence(t *testing.T) {
	var d DriveTime
	assert.InDelta(t, 0.0025+0.5, d.Advance(0.5), 1e-12)
	assert.InDelta(t, 0.0025+0.5+0.75*0.5025, d.Advance(0.5), 1e-12)
}

func TestDriveTimeConvergesInSilence(t *testing.T) {
	var d DriveTime
	d.Advance(3)
	for range 200 {
		d.Advance(0)
	}
	assert.InDelta(t, 0.01, d.Value(), 1e-9)
	assert.InDelta(t, 0.01, DriveFixedPoint(0), 1e-12)
}

func TestDriveTimeNonDecreasingUnderConstantInput(t *testing.T) {
	for _, low := range []float64{0, 0.2, 0.9} {
		var d DriveTime
		prev := d.Value()
		for range 60 {
			v := d.Advance(low)
			assert.GreaterOrEqual(t, v, prev)
			prev = v
		}
	}
}

func TestDriveTimeSaturatedLowBand(t *testing.T) {
	var d DriveTime
	for range 200 {
		d.Advance(1)
	}
	assert.InDelta(t, DriveFixedPoint(1), d.Value(), 1e-9)
}
