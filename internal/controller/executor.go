package controller

import (
	"context"
	"time"

	"github.com/cybre/holo-music-sync/internal/playback"
)

// Executor runs the render loop on a single goroutine. Frames run on display ticks,
// at most one per tick; posted tasks run between frames. Nothing it runs overlaps.
type Executor struct {
	interval time.Duration
	tasks    chan func() error
	done     chan struct{}
	pending  playback.FrameFunc
}

// NewExecutor creates an executor ticking at fps.
func NewExecutor(fps int) *Executor {
	if fps <= 0 {
		fps = 60
	}
	return &Executor{
		interval: time.Second / time.Duration(fps),
		tasks:    make(chan func() error, 16),
		done:     make(chan struct{}),
	}
}

// RequestFrame schedules frame for the next tick, replacing any frame already
// pending. It must only be called from code running on the executor.
func (e *Executor) RequestFrame(frame playback.FrameFunc) {
	e.pending = frame
}

// Post queues task to run on the executor goroutine. It is safe to call from any
// goroutine and returns false once the executor has stopped.
func (e *Executor) Post(task func() error) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.tasks <- task:
		return true
	case <-e.done:
		return false
	}
}

// TryPost is Post without waiting: it returns false when the queue is full or the
// executor has stopped. Input handlers use it so they never wait on a frame that
// is itself waiting on them.
func (e *Executor) TryPost(task func() error) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.tasks <- task:
		return true
	default:
		return false
	}
}

// Run services tasks and frames until ctx is cancelled or a frame or task fails.
// The failure is returned as is.
func (e *Executor) Run(ctx context.Context) error {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-e.tasks:
			if err := task(); err != nil {
				return err
			}
		case <-ticker.C:
			if e.pending == nil {
				continue
			}
			frame := e.pending
			e.pending = nil
			if err := frame(ctx); err != nil {
				return err
			}
		}
	}
}
