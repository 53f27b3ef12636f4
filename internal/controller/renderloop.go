package controller

import (
	"context"
	"log/slog"

	"github.com/rotisserie/eris"

	"github.com/cybre/holo-music-sync/internal/dsp"
	"github.com/cybre/holo-music-sync/internal/mapping"
	"github.com/cybre/holo-music-sync/internal/playback"
	"github.com/cybre/holo-music-sync/internal/scene"
)

// Sampler produces the current frequency snapshot.
type Sampler interface {
	Sample() []uint8
}

// AudioSource is the track the loop follows.
type AudioSource interface {
	Play() error
	IsPlaying() bool
}

// CameraRig aims and damps the camera once per frame.
type CameraRig interface {
	SetTarget(v scene.Vec3)
	Update()
}

// Compositor is the post-processing pipeline.
type Compositor interface {
	SetBlur(a, b float64)
	SetBloom(threshold, boost float64)
	SetScanlines(density, boost float64)
	Render() error
}

// DirectRenderer draws the scene without post-processing.
type DirectRenderer interface {
	Clear()
	Render() error
}

// MultiViewRenderer produces the multi-angle output. It runs every frame.
type MultiViewRenderer interface {
	Render() error
}

// FrameStats summarises one completed frame.
type FrameStats struct {
	Frame     uint64
	Energies  dsp.BandEnergies
	DriveTime float64
	Targets   mapping.Targets
}

// Observer receives FrameStats after each frame's render dispatch.
type Observer interface {
	Observe(stats FrameStats)
}

// Options wires a RenderLoop to its collaborators. Scene must be the same
// parameter set the renderers read.
type Options struct {
	Executor      *Executor
	Sampler       Sampler
	Bands         *dsp.BandSet
	Audio         AudioSource
	Scene         *scene.Parameters
	Camera        CameraRig
	Compositor    Compositor
	Direct        DirectRenderer
	MultiView     MultiViewRenderer
	UseCompositor bool
	Observer      Observer
	OnEnded       func()
	Logger        *slog.Logger
	// DebugEvery is the number of frames between debug state records.
	DebugEvery int
}

// RenderLoop runs the per-frame pipeline: sample, aggregate, advance drive time,
// map, write the scene, update the camera and dispatch the renderers. All of its
// state lives on the executor goroutine.
type RenderLoop struct {
	executor      *Executor
	sampler       Sampler
	bands         *dsp.BandSet
	audio         AudioSource
	scene         *scene.Parameters
	camera        CameraRig
	compositor    Compositor
	direct        DirectRenderer
	multiView     MultiViewRenderer
	useCompositor bool
	observer      Observer
	logger        *slog.Logger
	debugEvery    uint64

	drive    dsp.DriveTime
	mapper   mapping.Mapper
	playback *playback.Controller
	frames   uint64
}

// NewRenderLoop builds the loop and its playback controller.
func NewRenderLoop(opts Options) *RenderLoop {
	if opts.DebugEvery <= 0 {
		opts.DebugEvery = 120
	}
	l := &RenderLoop{
		executor:      opts.Executor,
		sampler:       opts.Sampler,
		bands:         opts.Bands,
		audio:         opts.Audio,
		scene:         opts.Scene,
		camera:        opts.Camera,
		compositor:    opts.Compositor,
		direct:        opts.Direct,
		multiView:     opts.MultiView,
		useCompositor: opts.UseCompositor,
		observer:      opts.Observer,
		logger:        opts.Logger,
		debugEvery:    uint64(opts.DebugEvery),
	}
	l.playback = playback.NewController(opts.Audio, opts.Executor, l.Frame, opts.OnEnded, opts.Logger)
	return l
}

// Start asks the executor to begin playback. A second start is logged and ignored;
// any other start failure stops the executor.
func (l *RenderLoop) Start() bool {
	return l.executor.Post(func() error {
		err := l.playback.Start()
		if eris.Is(err, playback.ErrInvalidTransition) {
			l.logger.Debug("ignoring start request", slog.String("state", l.playback.State().String()))
			return nil
		}
		return err
	})
}

// Do runs fn on the executor goroutine, e.g. to nudge the camera from input.
func (l *RenderLoop) Do(fn func()) bool {
	return l.executor.Post(func() error {
		fn()
		return nil
	})
}

// TryDo is Do without waiting for room in the task queue.
func (l *RenderLoop) TryDo(fn func()) bool {
	return l.executor.TryPost(func() error {
		fn()
		return nil
	})
}

// ToggleCompositor flips between the post-processed and the direct render path. It
// reports false when the request was dropped.
func (l *RenderLoop) ToggleCompositor() bool {
	return l.TryDo(func() {
		l.useCompositor = !l.useCompositor
		l.logger.Info("compositor toggled", slog.Bool("enabled", l.useCompositor))
	})
}

// Ended is closed once the track has finished and the loop stopped rescheduling.
func (l *RenderLoop) Ended() <-chan struct{} {
	return l.playback.Ended()
}

// Frame runs one iteration. Collaborator errors end the frame and are returned
// without retry.
func (l *RenderLoop) Frame(ctx context.Context) error {
	snapshot := l.sampler.Sample()
	energies := l.bands.Aggregate(snapshot)
	driveTime := l.drive.Advance(energies.Low)
	targets := l.mapper.Apply(l.scene, energies, driveTime)

	l.compositor.SetBlur(targets.BlurA, targets.BlurB)
	l.compositor.SetBloom(targets.BloomThreshold, targets.Boost)
	l.compositor.SetScanlines(targets.ScanlineDensity, targets.Boost)

	l.camera.SetTarget(l.scene.Core.Position)
	l.camera.Update()

	if l.useCompositor {
		if err := l.compositor.Render(); err != nil {
			return eris.Wrap(err, "composite frame")
		}
	} else {
		l.direct.Clear()
		if err := l.direct.Render(); err != nil {
			return eris.Wrap(err, "render frame")
		}
	}
	if err := l.multiView.Render(); err != nil {
		return eris.Wrap(err, "render multi-view")
	}

	l.frames++
	stats := FrameStats{
		Frame:     l.frames,
		Energies:  energies,
		DriveTime: driveTime,
		Targets:   targets,
	}
	if l.observer != nil {
		l.observer.Observe(stats)
	}
	if l.frames%l.debugEvery == 0 {
		l.logger.Debug("frame state",
			slog.Uint64("frame", l.frames),
			slog.Float64("sub", energies.Sub),
			slog.Float64("low", energies.Low),
			slog.Float64("mid", energies.Mid),
			slog.Float64("high", energies.High),
			slog.Float64("drive_time", driveTime),
			slog.Float64("boost", targets.Boost))
	}

	l.playback.OnFrameComplete(l.audio.IsPlaying())
	return nil
}
