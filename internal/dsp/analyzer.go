package dsp

import (
	"math"
	"math/bits"
	"math/cmplx"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/cybre/holo-music-sync/internal/utils"
)

const (
	// DefaultFFTSize yields 1024 frequency bins.
	DefaultFFTSize = 2048
	// DefaultSmoothing is the per-bin time constant applied between snapshots.
	DefaultSmoothing = 0.8
	// DefaultMinDecibels maps to magnitude 0.
	DefaultMinDecibels = -100.0
	// DefaultMaxDecibels maps to MaxMagnitude.
	DefaultMaxDecibels = -30.0
	// MaxMagnitude is the largest value a snapshot bin can hold.
	MaxMagnitude = 255
)

// SampleSource provides the most recent mono time-domain samples.
type SampleSource interface {
	// Latest fills dst with the newest len(dst) samples, oldest first. Positions with
	// no audio yet are zero. It returns the number of real samples written.
	Latest(dst []float64) int
}

// AnalyserOptions configures an Analyser.
type AnalyserOptions struct {
	SampleRate  float64
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// Analyser turns the newest window of audio into a byte frequency snapshot. All
// buffers are allocated up front so Sample can run at frame cadence without garbage.
type Analyser struct {
	source     SampleSource
	sampleRate float64
	fftSize    int
	smoothing  float64
	minDB      float64
	maxDB      float64

	plan     *fourier.FFT
	weights  []float64
	frame    []float64
	coeffs   []complex128
	smoothed []float64
	snapshot []uint8
}

// CheckFFTSize reports whether size is a usable transform size.
func CheckFFTSize(size int) error {
	if size < 32 || bits.OnesCount(uint(size)) != 1 {
		return eris.Errorf("fft size %d must be a power of two >= 32", size)
	}
	return nil
}

// NewAnalyser validates opts and allocates the analysis buffers. A nil source is
// allowed and produces all-zero snapshots.
func NewAnalyser(source SampleSource, opts AnalyserOptions) (*Analyser, error) {
	if opts.FFTSize == 0 {
		opts.FFTSize = DefaultFFTSize
	}
	if opts.MinDecibels == 0 && opts.MaxDecibels == 0 {
		opts.MinDecibels = DefaultMinDecibels
		opts.MaxDecibels = DefaultMaxDecibels
	}
	if err := CheckFFTSize(opts.FFTSize); err != nil {
		return nil, err
	}
	if opts.SampleRate <= 0 {
		return nil, eris.Errorf("sample rate %.0f must be > 0", opts.SampleRate)
	}
	if opts.Smoothing < 0 || opts.Smoothing >= 1 {
		return nil, eris.Errorf("smoothing %.2f must be in [0, 1)", opts.Smoothing)
	}
	if opts.MinDecibels >= opts.MaxDecibels {
		return nil, eris.Errorf("decibel range [%.1f, %.1f] is empty", opts.MinDecibels, opts.MaxDecibels)
	}

	weights := make([]float64, opts.FFTSize)
	for i := range weights {
		weights[i] = 1
	}
	window.Blackman(weights)

	return &Analyser{
		source:     source,
		sampleRate: opts.SampleRate,
		fftSize:    opts.FFTSize,
		smoothing:  opts.Smoothing,
		minDB:      opts.MinDecibels,
		maxDB:      opts.MaxDecibels,
		plan:       fourier.NewFFT(opts.FFTSize),
		weights:    weights,
		frame:      make([]float64, opts.FFTSize),
		coeffs:     make([]complex128, opts.FFTSize/2+1),
		smoothed:   make([]float64, opts.FFTSize/2),
		snapshot:   make([]uint8, opts.FFTSize/2),
	}, nil
}

// Sample refreshes and returns the snapshot. The returned slice is owned by the
// Analyser and overwritten by the next call.
func (a *Analyser) Sample() []uint8 {
	if a.source == nil {
		return a.snapshot
	}
	if a.source.Latest(a.frame) == 0 {
		return a.snapshot
	}

	ApplyWindowInPlace(a.frame, a.weights)
	a.plan.Coefficients(a.coeffs, a.frame)

	scale := 1 / float64(a.fftSize)
	for k := range a.snapshot {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		a.snapshot[k] = a.magnitudeByte(a.smoothed[k])
	}
	return a.snapshot
}

func (a *Analyser) magnitudeByte(mag float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := MaxMagnitude * (db - a.minDB) / (a.maxDB - a.minDB)
	return uint8(utils.Clamp(math.Floor(scaled), 0.0, MaxMagnitude))
}

// SpectrumLen is the fixed snapshot length.
func (a *Analyser) SpectrumLen() int {
	return len(a.snapshot)
}

// SampleRate reports the configured sample rate.
func (a *Analyser) SampleRate() float64 {
	return a.sampleRate
}

// FFTSize reports the configured transform size.
func (a *Analyser) FFTSize() int {
	return a.fftSize
}

// BinFrequency is the centre frequency of a snapshot bin in Hz.
func (a *Analyser) BinFrequency(bin int) float64 {
	return float64(bin) * a.sampleRate / float64(a.fftSize)
}

// binForFrequency returns the snapshot index closest to hz, clamped to the
// snapshot.
func binForFrequency(hz, sampleRate float64, fftSize int) int {
	bin := int(math.Round(hz * float64(fftSize) / sampleRate))
	return utils.Clamp(bin, 0, fftSize/2)
}

// ToMono averages interleaved multi-channel data into a mono frame.
func ToMono(samples []float32, channels int, dst []float64) []float64 {
	if channels <= 0 {
		channels = 1
	}
	frameLen := len(samples) / channels
	if cap(dst) < frameLen {
		dst = make([]float64, frameLen)
	} else {
		dst = dst[:frameLen]
	}
	if frameLen == 0 {
		return dst
	}
	idx := 0
	for i := range frameLen {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(samples[idx])
			idx++
		}
		dst[i] = sum / float64(channels)
	}
	return dst
}

// ApplyWindowInPlace multiplies samples by a window function in-place.
func ApplyWindowInPlace(samples []float64, window []float64) {
	switch {
	case len(samples) == 0:
		return
	case len(samples) != len(window):
		panic("dsp: window length mismatch")
	}
	for i := range samples {
		samples[i] *= window[i]
	}
}
