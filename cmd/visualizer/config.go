package main

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"

	"github.com/cybre/holo-music-sync/internal/audio"
	"github.com/cybre/holo-music-sync/internal/dsp"
	"github.com/cybre/holo-music-sync/internal/ui"
)

// sessionConfig is everything the render side needs once a source is chosen.
type sessionConfig struct {
	FFTSize       int
	Smoothing     float64
	Bands         []dsp.BandRange
	FPS           int
	Views         int
	UseCompositor bool
	Width         int
	Height        int
}

func buildSessionConfig(opts runtimeOptions) (sessionConfig, error) {
	if err := dsp.CheckFFTSize(opts.fftSize); err != nil {
		return sessionConfig{}, eris.Wrap(err, "invalid -fft-size")
	}

	bands, err := dsp.ParseBands(opts.bands)
	if err != nil {
		return sessionConfig{}, eris.Wrap(err, "parse band table")
	}

	return sessionConfig{
		FFTSize:       opts.fftSize,
		Smoothing:     opts.smoothing,
		Bands:         bands,
		FPS:           effectiveFPS(opts.fps),
		Views:         effectiveViews(opts.views),
		UseCompositor: !opts.noComposer,
		Width:         max(opts.width, 0),
		Height:        max(opts.height, 0),
	}, nil
}

// renderSize applies the -width/-height overrides to a terminal layout.
func (c sessionConfig) renderSize(layout ui.Layout) (int, int) {
	w, h := layout.MainWidth, layout.MainHeight
	if c.Width > 0 {
		w = c.Width
	}
	if c.Height > 0 {
		h = c.Height
	}
	return w, h
}

func selectDevice(
	devices []*portaudio.DeviceInfo,
	defaultDeviceIndex int,
	opts runtimeOptions,
) (*portaudio.DeviceInfo, error) {
	if len(devices) == 0 {
		return nil, eris.New("no input devices available")
	}

	if opts.deviceIndex >= 0 {
		if opts.deviceIndex >= len(devices) {
			return nil, eris.Errorf("invalid device index %d", opts.deviceIndex)
		}
		return devices[opts.deviceIndex], nil
	}

	initialDevice := effectiveInitialDeviceIndex(opts.deviceIndex, defaultDeviceIndex, len(devices))

	idx, err := ui.PickDevice(buildDeviceOptions(devices), initialDevice, true)
	if err != nil {
		if eris.Is(err, ui.ErrNoInteractiveTTY) {
			return devices[initialDevice], nil
		}
		return nil, err
	}

	return devices[idx], nil
}

func buildDeviceOptions(devices []*portaudio.DeviceInfo) []ui.Option {
	options := make([]ui.Option, len(devices))
	for i, dev := range devices {
		options[i] = ui.Option{
			Label: fmt.Sprintf(
				"[%d] %s · %.0fHz · in:%d · latency:%.1fms",
				i,
				dev.Name,
				dev.DefaultSampleRate,
				dev.MaxInputChannels,
				dev.DefaultLowInputLatency.Seconds()*1000,
			),
		}
	}
	return options
}

func effectiveInitialDeviceIndex(requested, fallback, length int) int {
	if length == 0 {
		return 0
	}
	if requested >= 0 && requested < length {
		return requested
	}
	if fallback >= 0 && fallback < length {
		return fallback
	}
	return 0
}

func buildCaptureOptions(device *portaudio.DeviceInfo, opts runtimeOptions) audio.CaptureOptions {
	return audio.CaptureOptions{
		Device:     device,
		SampleRate: effectiveSampleRate(opts.sampleRate, device.DefaultSampleRate),
		FrameSize:  effectiveFrameSize(opts.frameSize),
		Channels:   sanitizeChannelCount(opts.channels, device.MaxInputChannels),
		Latency:    opts.latency,
	}
}

func sanitizeChannelCount(requested, max int) int {
	if requested <= 0 {
		return 1
	}

	if max > 0 && requested > max {
		return max
	}

	return requested
}

func effectiveSampleRate(requested, deviceDefault float64) float64 {
	if requested > 0 {
		return requested
	}

	if deviceDefault > 0 {
		return deviceDefault
	}

	return 44100
}

func effectiveFrameSize(requested int) int {
	if requested > 0 {
		return requested
	}

	return 512
}

func effectiveFPS(requested int) int {
	if requested > 0 {
		return requested
	}

	return 60
}

func effectiveViews(requested int) int {
	if requested > 0 {
		return requested
	}

	return 1
}
