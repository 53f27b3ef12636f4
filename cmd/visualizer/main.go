package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gordonklaus/portaudio"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/cybre/holo-music-sync/internal/audio"
	"github.com/cybre/holo-music-sync/internal/controller"
	"github.com/cybre/holo-music-sync/internal/dsp"
	"github.com/cybre/holo-music-sync/internal/render"
	"github.com/cybre/holo-music-sync/internal/scene"
	"github.com/cybre/holo-music-sync/internal/ui"
)

const (
	orbitDistance = 200
	orbitDamping  = 0.15
)

// source is the audio the session follows, either a decoded track or a live device.
type source struct {
	audio      controller.AudioSource
	title      string
	sampleRate float64
	progress   ui.Progress
	close      func()
}

func main() {
	cfg := parseCLIFlags()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := runVisualizer(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runVisualizer(ctx context.Context, opts runtimeOptions) error {
	cfg, err := buildSessionConfig(opts)
	if err != nil {
		return err
	}

	logger := setupLogger(opts.debug, true).With(slog.String("session", uuid.NewString()))

	ring := audio.NewSampleRing(cfg.FFTSize)
	src, err := openSource(opts, ring, logger)
	if err != nil {
		return err
	}
	defer src.close()

	if err := run(ctx, logger, cfg, src, ring); err != nil && !eris.Is(err, context.Canceled) {
		logger.Error("visualizer failed", slog.Any("error", err))
		return err
	}

	return nil
}

func setupLogger(debug, tui bool) *slog.Logger {
	logOutput := os.Stdout
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	if tui && !debug {
		logLevel = slog.LevelWarn
	}
	if tui {
		logOutput = os.Stderr
	}

	logger := slog.New(slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	return logger
}

func openSource(opts runtimeOptions, ring *audio.SampleRing, logger *slog.Logger) (*source, error) {
	if opts.trackPath != "" {
		return openTrack(opts.trackPath, ring, logger)
	}
	return openCapture(opts, ring, logger)
}

func openTrack(path string, ring *audio.SampleRing, logger *slog.Logger) (*source, error) {
	track, err := audio.OpenTrack(path, ring, logger)
	if err != nil {
		return nil, eris.Wrapf(err, "open track %s", path)
	}

	format := track.Format()
	logger.Info("using audio track",
		slog.String("title", track.Title()),
		slog.Int("sample_rate", format.SampleRate),
		slog.Int("channels", format.Channels),
		slog.String("duration", track.Duration().String()))

	return &source{
		audio:      track,
		title:      track.Title(),
		sampleRate: float64(format.SampleRate),
		progress:   track,
		close: func() {
			if err := track.Close(); err != nil {
				logger.Warn("failed to close track", slog.Any("error", err))
			}
		},
	}, nil
}

func openCapture(opts runtimeOptions, ring *audio.SampleRing, logger *slog.Logger) (*source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, eris.Wrap(err, "initialize PortAudio")
	}

	capture, err := newCapture(opts, ring, logger)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	return &source{
		audio:      capture,
		title:      capture.Title(),
		sampleRate: capture.SampleRate(),
		close: func() {
			if err := capture.Close(); err != nil {
				logger.Warn("failed to close audio stream", slog.Any("error", err))
			}
			portaudio.Terminate()
		},
	}, nil
}

func newCapture(opts runtimeOptions, ring *audio.SampleRing, logger *slog.Logger) (*audio.CaptureSource, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, eris.Wrap(err, "enumerate audio devices")
	}

	defaultDevice, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, eris.Wrap(err, "resolve default audio input device")
	}

	device, err := selectDevice(devices, defaultDevice.Index, opts)
	if err != nil {
		return nil, eris.Wrap(err, "select device")
	}

	captureOpts := buildCaptureOptions(device, opts)
	if opts.channels > 0 && opts.channels > device.MaxInputChannels {
		logger.Warn("requested channels exceed device capabilities",
			slog.Int("requested", opts.channels),
			slog.Int("max", device.MaxInputChannels),
			slog.Int("using", captureOpts.Channels),
		)
	}

	return audio.NewCaptureSource(captureOpts, ring, logger)
}

func run(ctx context.Context, logger *slog.Logger, cfg sessionConfig, src *source, ring *audio.SampleRing) error {
	analyser, err := dsp.NewAnalyser(ring, dsp.AnalyserOptions{
		SampleRate: src.sampleRate,
		FFTSize:    cfg.FFTSize,
		Smoothing:  cfg.Smoothing,
	})
	if err != nil {
		return eris.Wrap(err, "configure analyser")
	}

	bands, err := dsp.NewBandSet(dsp.ResolveBands(cfg.Bands, analyser.SampleRate(), analyser.FFTSize()), analyser.SpectrumLen())
	if err != nil {
		return eris.Wrap(err, "configure bands")
	}
	for _, b := range bands.Bands() {
		logger.Debug("band resolved",
			slog.String("name", b.Name),
			slog.Int("from", b.From),
			slog.Int("to", b.To),
			slog.Float64("from_hz", analyser.BinFrequency(b.From)),
			slog.Float64("to_hz", analyser.BinFrequency(b.To)))
	}

	params := scene.NewParameters(rand.New(rand.NewSource(time.Now().UnixNano())))
	orbit := scene.NewOrbitController(&params.Camera, scene.OrbitOptions{
		Distance: orbitDistance,
		Damping:  orbitDamping,
		FPS:      cfg.FPS,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	controls := &sessionControls{cfg: cfg}
	display := ui.NewDisplay(controls, ui.DisplayOptions{
		Title:     src.title,
		Views:     cfg.Views,
		Composite: cfg.UseCompositor,
		Progress:  src.progress,
		OnExit:    cancel,
	})

	// real sizes arrive with the first window size message
	layout := ui.Layout{MainWidth: 80, MainHeight: 40, ViewWidth: max(80/cfg.Views, 1), ViewHeight: 12}
	width, height := cfg.renderSize(layout)

	raster := render.NewRasterizer(params)
	controls.compositor = render.NewCompositor(raster, &params.Camera, width, height, display.ScenePresenter())
	controls.direct = render.NewDirectRenderer(raster, &params.Camera, width, height, display.ScenePresenter())
	controls.multiView = render.NewMultiView(raster, &params.Camera, render.MultiViewOptions{
		Views:      cfg.Views,
		ViewWidth:  layout.ViewWidth,
		ViewHeight: layout.ViewHeight,
	}, display.QuiltPresenter())
	controls.orbit = orbit

	executor := controller.NewExecutor(cfg.FPS)
	controls.loop = controller.NewRenderLoop(controller.Options{
		Executor:      executor,
		Sampler:       analyser,
		Bands:         bands,
		Audio:         src.audio,
		Scene:         params,
		Camera:        orbit,
		Compositor:    controls.compositor,
		Direct:        controls.direct,
		MultiView:     controls.multiView,
		UseCompositor: cfg.UseCompositor,
		Observer:      display,
		OnEnded:       display.Ended,
		Logger:        logger,
		DebugEvery:    cfg.FPS * 2,
	})

	logger.Info("visualizer ready",
		slog.Int("fft_size", cfg.FFTSize),
		slog.Int("bins", analyser.SpectrumLen()),
		slog.Int("fps", cfg.FPS),
		slog.Int("views", controls.multiView.Views()),
		slog.Bool("compositor", cfg.UseCompositor))

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return executor.Run(gctx)
	})

	g.Go(func() error {
		return display.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		display.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		if eris.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	return nil
}

// sessionControls routes display input onto the render loop's goroutine.
type sessionControls struct {
	cfg        sessionConfig
	loop       *controller.RenderLoop
	orbit      *scene.OrbitController
	compositor *render.Compositor
	direct     *render.DirectRenderer
	multiView  *render.MultiView
}

func (c *sessionControls) Start() bool {
	return c.loop.Start()
}

func (c *sessionControls) Orbit(dTheta, dPhi, dDistance float64) {
	c.loop.TryDo(func() {
		c.orbit.Nudge(dTheta, dPhi, dDistance)
	})
}

func (c *sessionControls) ToggleCompositor() bool {
	return c.loop.ToggleCompositor()
}

func (c *sessionControls) Resize(layout ui.Layout) {
	width, height := c.cfg.renderSize(layout)
	c.loop.Do(func() {
		c.compositor.Resize(width, height)
		c.direct.Resize(width, height)
		c.multiView.Resize(layout.ViewWidth, layout.ViewHeight)
	})
}
