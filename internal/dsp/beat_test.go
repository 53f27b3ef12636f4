package dsp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeatTrackerDetectsKick(t *testing.T) {
	tracker := NewBeatTracker(BeatOptions{})
	start := time.Unix(0, 0)
	frame := time.Second / 60

	quiet := BandEnergies{Sub: 0.1, Low: 0.1}
	for i := range 60 {
		beat := tracker.Update(start.Add(time.Duration(i)*frame), quiet)
		require.False(t, beat.Onset, "frame %d", i)
	}

	beat := tracker.Update(start.Add(60*frame), BandEnergies{Sub: 0.9, Low: 0.8})
	assert.True(t, beat.Onset)
	assert.Greater(t, beat.Strength, 0.0)
	assert.Greater(t, beat.Density, 0.0)
}

func TestBeatTrackerRespectsMinInterval(t *testing.T) {
	tracker := NewBeatTracker(BeatOptions{History: 8})
	start := time.Unix(0, 0)
	for i := range 8 {
		tracker.Update(start.Add(time.Duration(i)*time.Millisecond), BandEnergies{Sub: 0.05})
	}

	loud := BandEnergies{Sub: 1, Low: 1}
	first := tracker.Update(start.Add(100*time.Millisecond), loud)
	second := tracker.Update(start.Add(150*time.Millisecond), BandEnergies{Sub: 1.5, Low: 1.5})

	assert.True(t, first.Onset)
	assert.False(t, second.Onset)
}

func TestBeatTrackerDensityDecays(t *testing.T) {
	tracker := NewBeatTracker(BeatOptions{History: 4, Window: time.Second})
	start := time.Unix(0, 0)
	for i := range 4 {
		tracker.Update(start.Add(time.Duration(i)*time.Millisecond), BandEnergies{Sub: 0.05})
	}
	require.True(t, tracker.Update(start.Add(10*time.Millisecond), BandEnergies{Sub: 1}).Onset)

	later := tracker.Update(start.Add(5*time.Second), BandEnergies{Sub: 0.05})
	assert.Zero(t, later.Density)
}

func TestBeatTrackerSilence(t *testing.T) {
	tracker := NewBeatTracker(BeatOptions{})
	var beat Beat
	for i := range 120 {
		beat = tracker.Update(time.Unix(0, 0).Add(time.Duration(i)*time.Millisecond*16), BandEnergies{})
	}
	assert.False(t, beat.Onset)
	assert.InDelta(t, 0, beat.Level, 1e-6)
}
