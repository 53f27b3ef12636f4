package main

import (
	"flag"
	"time"

	"github.com/cybre/holo-music-sync/internal/dsp"
)

type runtimeOptions struct {
	trackPath   string
	deviceIndex int
	sampleRate  float64
	frameSize   int
	channels    int
	latency     time.Duration
	fftSize     int
	smoothing   float64
	bands       string
	fps         int
	views       int
	noComposer  bool
	width       int
	height      int
	debug       bool
}

func parseCLIFlags() runtimeOptions {
	var (
		cfg       runtimeOptions
		latencyMs int
	)

	flag.StringVar(&cfg.trackPath, "track", "", "audio file to play (mp3, wav, flac, ogg); leave blank to listen to an input device")
	flag.IntVar(&cfg.deviceIndex, "device", -1, "audio input device index when no track is given (leave blank to choose interactively)")
	flag.Float64Var(&cfg.sampleRate, "sample-rate", 0, "capture sample rate (0 = device default)")
	flag.IntVar(&cfg.frameSize, "frame-size", 512, "capture buffer size in samples")
	flag.IntVar(&cfg.channels, "channels", 2, "number of input channels to capture (<= device max)")
	flag.IntVar(&latencyMs, "latency-ms", 0, "override input latency in milliseconds (0 = device default)")
	flag.IntVar(&cfg.fftSize, "fft-size", dsp.DefaultFFTSize, "analyser transform size (power of two)")
	flag.Float64Var(&cfg.smoothing, "smoothing", dsp.DefaultSmoothing, "analyser smoothing time constant in [0, 1)")
	flag.StringVar(&cfg.bands, "bands", dsp.DefaultBandTable, "band table as name=from:to, in bins or with an hz suffix; sub, low, mid and high are required")
	flag.IntVar(&cfg.fps, "fps", 60, "frame rate of the render loop")
	flag.IntVar(&cfg.views, "views", 8, "number of views in the multi-view strip")
	flag.BoolVar(&cfg.noComposer, "no-composer", false, "render directly without post-processing")
	flag.IntVar(&cfg.width, "width", 0, "render width in pixels (0 = fit terminal)")
	flag.IntVar(&cfg.height, "height", 0, "render height in pixels (0 = fit terminal)")
	flag.BoolVar(&cfg.debug, "debug", false, "enable debug logging (logs go to stderr)")
	flag.Parse()

	cfg.latency = time.Duration(latencyMs) * time.Millisecond

	return cfg
}
