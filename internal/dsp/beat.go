package dsp

import (
	"time"

	"github.com/cybre/holo-music-sync/internal/utils"
)

// BeatOptions tunes a BeatTracker. Zero values pick the defaults.
type BeatOptions struct {
	// History is the number of frames the average energy is taken over.
	History     int
	Threshold   float64
	MinInterval time.Duration
	Window      time.Duration
	LevelAlpha  float64
}

// Beat is the rhythmic state after one frame.
type Beat struct {
	Onset    bool
	Strength float64
	// Density is beats per second over the window, scaled so 4/s reads as 1.
	Density float64
	// Level is the smoothed, normalised kick energy.
	Level float64
}

// BeatTracker finds kick onsets in the sub and low bands by comparing each frame
// against a moving average, with a decaying peak envelope for normalisation. It is
// display-only and never feeds the scene.
type BeatTracker struct {
	opts BeatOptions

	history []float64
	sum     float64
	count   int
	next    int

	lastOnset time.Time
	onsets    []time.Time
	floor     float64
	peak      float64
	level     float64
}

// NewBeatTracker applies defaults suited to 60 frames per second.
func NewBeatTracker(opts BeatOptions) *BeatTracker {
	if opts.History <= 0 {
		opts.History = 60
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 1.35
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = 160 * time.Millisecond
	}
	if opts.Window <= 0 {
		opts.Window = 2 * time.Second
	}
	if opts.LevelAlpha <= 0 || opts.LevelAlpha > 1 {
		opts.LevelAlpha = 0.18
	}
	return &BeatTracker{
		opts:    opts,
		history: make([]float64, opts.History),
		floor:   1e-3,
		peak:    1e-2,
	}
}

// Update feeds the energies of the frame observed at now.
func (b *BeatTracker) Update(now time.Time, e BandEnergies) Beat {
	energy := max(0.6*e.Sub+0.4*e.Low, 1e-9)

	b.floor = utils.Lerp(b.floor, energy, 0.01)
	if energy > b.peak {
		b.peak = utils.Lerp(b.peak, energy, 0.34)
	} else {
		b.peak = utils.Lerp(b.peak, energy, 0.02)
	}
	b.peak = max(b.peak, b.floor*1.5)

	b.sum += energy - b.history[b.next]
	b.history[b.next] = energy
	b.next = (b.next + 1) % len(b.history)
	b.count = min(b.count+1, len(b.history))
	avg := b.sum / float64(b.count)

	var beat Beat
	if threshold := b.opts.Threshold * avg; energy > threshold && b.ready(now) {
		beat.Onset = true
		beat.Strength = utils.Clamp((energy-threshold)/(b.peak-threshold+1e-9), 0, 1)
		b.lastOnset = now
		b.onsets = append(b.onsets, now)
	}

	cutoff := now.Add(-b.opts.Window)
	kept := b.onsets[:0]
	for _, t := range b.onsets {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.onsets = kept

	norm := utils.Clamp((energy-b.floor)/(b.peak-b.floor+1e-9), 0, 1)
	b.level = utils.Lerp(b.level, norm, b.opts.LevelAlpha)

	beat.Density = utils.Clamp(float64(len(b.onsets))/b.opts.Window.Seconds()/4, 0, 1)
	beat.Level = b.level
	return beat
}

func (b *BeatTracker) ready(now time.Time) bool {
	return b.lastOnset.IsZero() || now.Sub(b.lastOnset) >= b.opts.MinInterval
}
