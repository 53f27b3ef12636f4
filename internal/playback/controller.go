// Package playback gates the frame loop on the audio track's lifecycle.
package playback

import (
	"context"
	"log/slog"

	"github.com/rotisserie/eris"
)

// ErrInvalidTransition is returned when Start is called outside Idle.
var ErrInvalidTransition = eris.New("invalid playback transition")

// State is the playback lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateEnded
)

// String returns a human-friendly name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// FrameFunc runs one loop iteration.
type FrameFunc func(ctx context.Context) error

// Scheduler is the "request next frame" primitive.
type Scheduler interface {
	RequestFrame(frame FrameFunc)
}

// Player starts the audio track.
type Player interface {
	Play() error
}

// Controller is the only authority on whether another frame gets scheduled. It is
// not safe for concurrent use; every call must come from the loop's executor.
type Controller struct {
	player    Player
	scheduler Scheduler
	frame     FrameFunc
	onEnded   func()
	logger    *slog.Logger

	state State
	ended chan struct{}
}

// NewController wires the controller. onEnded may be nil.
func NewController(player Player, scheduler Scheduler, frame FrameFunc, onEnded func(), logger *slog.Logger) *Controller {
	return &Controller{
		player:    player,
		scheduler: scheduler,
		frame:     frame,
		onEnded:   onEnded,
		logger:    logger,
		ended:     make(chan struct{}),
	}
}

// State reports the current state.
func (c *Controller) State() State {
	return c.state
}

// Ended is closed once playback reaches StateEnded.
func (c *Controller) Ended() <-chan struct{} {
	return c.ended
}

// Start plays the track and schedules the first frame. It is only valid from Idle;
// when the player fails the controller stays Idle.
func (c *Controller) Start() error {
	if c.state != StateIdle {
		return eris.Wrapf(ErrInvalidTransition, "start from %s", c.state)
	}

	if err := c.player.Play(); err != nil {
		return eris.Wrap(err, "start audio")
	}

	c.state = StatePlaying
	c.logger.Info("playback started")
	c.scheduler.RequestFrame(c.frame)
	return nil
}

// OnFrameComplete is reported at the end of every executed frame. While the audio
// is still playing the next frame is scheduled; otherwise the controller ends and
// fires the ended hook once. Calls outside Playing are ignored.
func (c *Controller) OnFrameComplete(audioStillPlaying bool) {
	if c.state != StatePlaying {
		return
	}

	if audioStillPlaying {
		c.scheduler.RequestFrame(c.frame)
		return
	}

	c.state = StateEnded
	close(c.ended)
	c.logger.Info("playback ended")
	if c.onEnded != nil {
		c.onEnded()
	}
}
