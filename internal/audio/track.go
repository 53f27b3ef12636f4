package audio

import (
	"encoding/binary"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/ebitengine/oto/v3"
	"github.com/rotisserie/eris"
)

// outputBufferSeconds bounds how far the output device reads ahead of what is
// audible, which is also how far the analysed window leads the sound.
const outputBufferSeconds = 0.05

// pcmTap adapts a Decoder to the byte stream the output device consumes and
// copies a mono mix of everything it hands out into a SampleRing.
type pcmTap struct {
	dec      Decoder
	ring     *SampleRing
	channels int

	samples []int16
	mono    []float64
	frames  atomic.Int64
}

func newPCMTap(dec Decoder, ring *SampleRing) *pcmTap {
	return &pcmTap{dec: dec, ring: ring, channels: max(dec.Format().Channels, 1)}
}

// Read implements io.Reader with signed 16-bit little-endian output.
func (t *pcmTap) Read(p []byte) (int, error) {
	want := wholeFrames(len(p)/2, t.channels)
	if want == 0 {
		return 0, nil
	}
	if cap(t.samples) < want {
		t.samples = make([]int16, want)
		t.mono = make([]float64, want/t.channels)
	}

	n, err := t.dec.Read(t.samples[:want])
	for i, s := range t.samples[:n] {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}

	frames := n / t.channels
	for i := range frames {
		sum := 0
		for c := range t.channels {
			sum += int(t.samples[i*t.channels+c])
		}
		t.mono[i] = float64(sum) / float64(t.channels) / 32768
	}
	if t.ring != nil {
		t.ring.Write(t.mono[:frames])
	}
	t.frames.Add(int64(frames))

	return n * 2, err
}

// Frames reports how many frames have been handed to the output.
func (t *pcmTap) Frames() int64 {
	return t.frames.Load()
}

// outputPlayer is the part of an oto player the track drives.
type outputPlayer interface {
	Play()
	IsPlaying() bool
	Err() error
	Close() error
}

var (
	otoCtx     *oto.Context
	otoFormat  Format
	otoOnce    sync.Once
	otoInitErr error
)

// outputContext opens the process-wide output device on first use.
func outputContext(format Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoInitErr == nil {
			otoFormat = format
			<-ready
		}
	})
	if otoInitErr != nil {
		return nil, eris.Wrap(otoInitErr, "open audio output")
	}
	if otoFormat != format {
		return nil, eris.Errorf("audio output already opened at %d Hz/%d ch", otoFormat.SampleRate, otoFormat.Channels)
	}
	return otoCtx, nil
}

// TrackSource plays a decoded file once, at full volume, and publishes what it
// plays to a SampleRing.
type TrackSource struct {
	path   string
	title  string
	format Format
	frames int64

	dec    Decoder
	tap    *pcmTap
	player outputPlayer
	logger *slog.Logger

	started  atomic.Bool
	reported atomic.Bool
}

// OpenTrack decodes the header of path and prepares playback without starting it.
func OpenTrack(path string, ring *SampleRing, logger *slog.Logger) (*TrackSource, error) {
	dec, err := OpenDecoder(path)
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if format.SampleRate <= 0 || format.Channels <= 0 {
		dec.Close()
		return nil, eris.Errorf("track %s has no playable audio", filepath.Base(path))
	}

	ctx, err := outputContext(format)
	if err != nil {
		dec.Close()
		return nil, err
	}

	tap := newPCMTap(dec, ring)
	player := ctx.NewPlayer(tap)
	player.SetVolume(1)
	player.SetBufferSize(int(float64(format.SampleRate)*outputBufferSeconds) * format.Channels * 2)

	return newTrackSource(path, dec, tap, player, logger), nil
}

func newTrackSource(path string, dec Decoder, tap *pcmTap, player outputPlayer, logger *slog.Logger) *TrackSource {
	return &TrackSource{
		path:   path,
		title:  ReadTitle(path),
		format: dec.Format(),
		frames: dec.Frames(),
		dec:    dec,
		tap:    tap,
		player: player,
		logger: logger,
	}
}

// Title is the display name of the track.
func (s *TrackSource) Title() string { return s.title }

// Format is the decoded PCM format.
func (s *TrackSource) Format() Format { return s.format }

// Play starts output. The track does not loop.
func (s *TrackSource) Play() error {
	if !s.started.CompareAndSwap(false, true) {
		return eris.New("track already started")
	}
	s.player.Play()
	s.logger.Info("track playing",
		slog.String("title", s.title),
		slog.Int("sample_rate", s.format.SampleRate),
		slog.Int("channels", s.format.Channels),
	)
	return nil
}

// IsPlaying reports whether the output is still producing sound.
func (s *TrackSource) IsPlaying() bool {
	if s.player.IsPlaying() {
		return true
	}
	if s.started.Load() && s.reported.CompareAndSwap(false, true) {
		if err := s.player.Err(); err != nil && !eris.Is(err, io.EOF) {
			s.logger.Warn("track stopped early", slog.Any("error", err))
		}
	}
	return false
}

// Position is how much of the track has been handed to the output.
func (s *TrackSource) Position() time.Duration {
	return framesToDuration(s.tap.Frames(), s.format.SampleRate)
}

// Duration is the track length, or 0 when the decoder cannot tell.
func (s *TrackSource) Duration() time.Duration {
	return framesToDuration(s.frames, s.format.SampleRate)
}

// Close stops output and releases the file.
func (s *TrackSource) Close() error {
	perr := s.player.Close()
	derr := s.dec.Close()
	if perr != nil {
		return eris.Wrap(perr, "close output player")
	}
	return eris.Wrap(derr, "close track")
}

func framesToDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// ReadTitle returns the ID3 title of path, falling back to the file name.
func ReadTitle(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title", "Artist"}})
		if err == nil {
			defer tag.Close()
			title := strings.TrimSpace(tag.Title())
			artist := strings.TrimSpace(tag.Artist())
			switch {
			case title != "" && artist != "":
				return artist + " - " + title
			case title != "":
				return title
			}
		}
	}

	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
