package audio

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"

	"github.com/cybre/holo-music-sync/internal/dsp"
)

// CaptureOptions configures a live input stream.
type CaptureOptions struct {
	Device     *portaudio.DeviceInfo
	SampleRate float64
	Channels   int
	FrameSize  int
	Latency    time.Duration
}

// CaptureSource streams a live input device into a SampleRing. It counts as
// playing from Play until Close.
type CaptureSource struct {
	opts   CaptureOptions
	ring   *SampleRing
	logger *slog.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	mono    []float64
	playing atomic.Bool
}

// NewCaptureSource validates opts against the device. PortAudio must already be
// initialised.
func NewCaptureSource(opts CaptureOptions, ring *SampleRing, logger *slog.Logger) (*CaptureSource, error) {
	if opts.Device == nil {
		return nil, eris.New("audio device is not specified")
	}
	if opts.Device.MaxInputChannels < 1 {
		return nil, eris.Errorf("device %s has no input channels; select a loopback/monitor device", opts.Device.Name)
	}
	if opts.Channels < 1 || opts.Channels > opts.Device.MaxInputChannels {
		opts.Channels = min(2, opts.Device.MaxInputChannels)
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = opts.Device.DefaultSampleRate
	}
	if opts.FrameSize <= 0 {
		opts.FrameSize = 512
	}
	return &CaptureSource{opts: opts, ring: ring, logger: logger}, nil
}

// SampleRate is the rate the stream is opened at.
func (c *CaptureSource) SampleRate() float64 { return c.opts.SampleRate }

// Title names the input device.
func (c *CaptureSource) Title() string { return c.opts.Device.Name }

// Play opens and starts the input stream.
func (c *CaptureSource) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return eris.New("capture already started")
	}

	c.logger.Info("using audio input device",
		slog.String("name", c.opts.Device.Name),
		slog.Float64("sample_rate", c.opts.SampleRate),
		slog.Int("channels", c.opts.Channels),
		slog.Int("frame_size", c.opts.FrameSize),
	)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   c.opts.Device,
			Channels: c.opts.Channels,
			Latency:  c.opts.Device.DefaultLowInputLatency,
		},
		SampleRate:      c.opts.SampleRate,
		FramesPerBuffer: c.opts.FrameSize,
	}
	if c.opts.Latency > 0 {
		params.Input.Latency = c.opts.Latency
	}

	stream, err := portaudio.OpenStream(params, c.process)
	if err != nil {
		return eris.Wrap(err, "open audio stream")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return eris.Wrap(err, "start audio stream")
	}

	c.stream = stream
	c.playing.Store(true)
	return nil
}

// process runs on the PortAudio callback thread.
func (c *CaptureSource) process(in []float32) {
	c.mono = dsp.ToMono(in, c.opts.Channels, c.mono)
	c.ring.Write(c.mono)
}

// IsPlaying reports whether the stream is running.
func (c *CaptureSource) IsPlaying() bool {
	return c.playing.Load()
}

// Close stops the stream. The next IsPlaying reports false, which ends the session.
func (c *CaptureSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playing.Store(false)
	if c.stream == nil {
		return nil
	}
	stream := c.stream
	c.stream = nil

	if err := stream.Stop(); err != nil {
		c.logger.Warn("failed to stop audio stream", slog.Any("error", err))
	}
	return eris.Wrap(stream.Close(), "close audio stream")
}
