package playback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlayer struct {
	plays int
	err   error
}

func (p *stubPlayer) Play() error {
	p.plays++
	return p.err
}

// queueScheduler runs requested frames synchronously, one at a time.
type queueScheduler struct {
	pending FrameFunc
}

func (s *queueScheduler) RequestFrame(frame FrameFunc) {
	s.pending = frame
}

func (s *queueScheduler) drain(t *testing.T, limit int) int {
	t.Helper()
	ran := 0
	for s.pending != nil && ran < limit {
		frame := s.pending
		s.pending = nil
		require.NoError(t, frame(context.Background()))
		ran++
	}
	return ran
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	ctrl    *Controller
	player  *stubPlayer
	sched   *queueScheduler
	frames  int
	endedAt int
	endings int
}

// newHarness builds a controller whose frame reports "still playing" until frame
// number stopAt.
func newHarness(stopAt int) *harness {
	h := &harness{player: &stubPlayer{}, sched: &queueScheduler{}}
	frame := func(context.Context) error {
		h.frames++
		h.ctrl.OnFrameComplete(h.frames < stopAt)
		return nil
	}
	h.ctrl = NewController(h.player, h.sched, frame, func() {
		h.endings++
		h.endedAt = h.frames
	}, discardLogger())
	return h
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "playing", StatePlaying.String())
	assert.Equal(t, "ended", StateEnded.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestStartPlaysOnceAndSchedules(t *testing.T) {
	h := newHarness(100)
	require.NoError(t, h.ctrl.Start())

	assert.Equal(t, StatePlaying, h.ctrl.State())
	assert.Equal(t, 1, h.player.plays)
	assert.NotNil(t, h.sched.pending)
}

func TestStartOnlyValidFromIdle(t *testing.T) {
	h := newHarness(3)
	require.NoError(t, h.ctrl.Start())

	err := h.ctrl.Start()
	assert.True(t, eris.Is(err, ErrInvalidTransition))
	assert.Equal(t, 1, h.player.plays)

	h.sched.drain(t, 10)
	require.Equal(t, StateEnded, h.ctrl.State())

	err = h.ctrl.Start()
	assert.True(t, eris.Is(err, ErrInvalidTransition))
	assert.Equal(t, 1, h.player.plays)
	assert.Nil(t, h.sched.pending)
}

func TestStartFailureStaysIdle(t *testing.T) {
	h := newHarness(3)
	h.player.err = errors.New("no buffer")

	require.Error(t, h.ctrl.Start())
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Nil(t, h.sched.pending)
}

func TestFramesStopExactlyWhenAudioStops(t *testing.T) {
	h := newHarness(5)
	require.NoError(t, h.ctrl.Start())

	ran := h.sched.drain(t, 100)
	assert.Equal(t, 5, ran)
	assert.Equal(t, 5, h.frames)
	assert.Equal(t, StateEnded, h.ctrl.State())
	assert.Equal(t, 1, h.endings)
	assert.Equal(t, 5, h.endedAt)

	select {
	case <-h.ctrl.Ended():
	default:
		t.Fatal("ended channel should be closed")
	}
}

func TestOnFrameCompleteIsIdempotentAfterEnd(t *testing.T) {
	h := newHarness(1)
	require.NoError(t, h.ctrl.Start())
	h.sched.drain(t, 10)
	require.Equal(t, 1, h.endings)

	h.ctrl.OnFrameComplete(false)
	h.ctrl.OnFrameComplete(true)
	assert.Equal(t, 1, h.endings)
	assert.Nil(t, h.sched.pending)
}

func TestOnFrameCompleteIgnoredWhileIdle(t *testing.T) {
	h := newHarness(1)
	h.ctrl.OnFrameComplete(false)
	assert.Equal(t, StateIdle, h.ctrl.State())
	assert.Zero(t, h.endings)
}
