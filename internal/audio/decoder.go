// Package audio provides the sources the render loop listens to: a decoded track
// played through the system output and a live capture stream. Both feed a
// SampleRing the spectrum analyser reads from.
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/rotisserie/eris"
)

// ErrUnsupportedFormat is returned for files no decoder understands.
var ErrUnsupportedFormat = eris.New("unsupported audio format")

// Format describes decoded PCM.
type Format struct {
	SampleRate int
	Channels   int
}

// Decoder yields interleaved signed 16-bit samples.
type Decoder interface {
	Format() Format
	// Read fills dst with whole frames of interleaved samples and returns the
	// number of samples written. It returns io.EOF once the stream is drained.
	Read(dst []int16) (int, error)
	// Frames is the total frame count, or 0 when unknown.
	Frames() int64
	Close() error
}

// OpenDecoder picks a decoder by file extension.
func OpenDecoder(path string) (Decoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3", ".wav", ".flac", ".ogg":
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}

	var dec Decoder
	switch ext {
	case ".mp3":
		dec, err = newMP3Decoder(f)
	case ".wav":
		dec, err = newWAVDecoder(f)
	case ".flac":
		dec, err = newFLACDecoder(f)
	case ".ogg":
		dec, err = newOGGDecoder(f)
	}
	if err != nil {
		f.Close()
		return nil, eris.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return dec, nil
}

// backlog holds decoded samples that did not fit the caller's buffer.
type backlog struct {
	samples []int16
}

func (b *backlog) drain(dst []int16) int {
	n := copy(dst, b.samples)
	b.samples = b.samples[n:]
	return n
}

func (b *backlog) empty() bool {
	return len(b.samples) == 0
}

// wholeFrames trims n down to a multiple of channels.
func wholeFrames(n, channels int) int {
	return n - n%channels
}

func clampInt16(v int) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}

// rescale converts a sample of the given bit depth to 16 bits.
func rescale(v, bits int) int16 {
	switch {
	case bits > 16:
		v >>= bits - 16
	case bits < 16:
		v <<= 16 - bits
	}
	return clampInt16(v)
}

type mp3Decoder struct {
	file *os.File
	dec  *mp3.Decoder
	raw  []byte
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{file: f, dec: dec}, nil
}

// go-mp3 always produces 16-bit little-endian stereo.
func (d *mp3Decoder) Format() Format {
	return Format{SampleRate: d.dec.SampleRate(), Channels: 2}
}

func (d *mp3Decoder) Read(dst []int16) (int, error) {
	want := wholeFrames(len(dst), 2)
	if want == 0 {
		return 0, nil
	}
	if cap(d.raw) < want*2 {
		d.raw = make([]byte, want*2)
	}
	raw := d.raw[:want*2]

	n, err := io.ReadFull(d.dec, raw)
	n = wholeFrames(n/2, 2)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	if eris.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

func (d *mp3Decoder) Frames() int64 { return d.dec.Length() / 4 }
func (d *mp3Decoder) Close() error  { return d.file.Close() }

type wavDecoder struct {
	file     *os.File
	dec      *wav.Decoder
	format   Format
	bitDepth int
	frames   int64
	buf      *goaudio.IntBuffer
	backlog
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, eris.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, eris.Wrap(err, "seek to PCM data")
	}

	format := Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans)}
	bitDepth := int(dec.BitDepth)
	if format.Channels < 1 || bitDepth < 8 {
		return nil, eris.Errorf("unsupported WAV layout: %d channels, %d bits", format.Channels, bitDepth)
	}
	frameBytes := int64(format.Channels * bitDepth / 8)

	return &wavDecoder{
		file:     f,
		dec:      dec,
		format:   format,
		bitDepth: bitDepth,
		frames:   dec.PCMLen() / frameBytes,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			Data:   make([]int, 4096*format.Channels),
		},
	}, nil
}

func (d *wavDecoder) Format() Format { return d.format }

func (d *wavDecoder) Read(dst []int16) (int, error) {
	dst = dst[:wholeFrames(len(dst), d.format.Channels)]
	if !d.empty() {
		return d.drain(dst), nil
	}

	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil {
		return 0, eris.Wrap(err, "read WAV samples")
	}
	if n == 0 {
		return 0, io.EOF
	}

	samples := make([]int16, n)
	for i, v := range d.buf.Data[:n] {
		if d.bitDepth == 8 {
			v -= 128
		}
		samples[i] = rescale(v, d.bitDepth)
	}
	d.samples = samples
	return d.drain(dst), nil
}

func (d *wavDecoder) Frames() int64 { return d.frames }
func (d *wavDecoder) Close() error  { return d.file.Close() }

type flacDecoder struct {
	file   *os.File
	stream *flac.Stream
	format Format
	bps    int
	frames int64
	backlog
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, err
	}
	info := stream.Info
	return &flacDecoder{
		file:   f,
		stream: stream,
		format: Format{SampleRate: int(info.SampleRate), Channels: int(info.NChannels)},
		bps:    int(info.BitsPerSample),
		frames: int64(info.NSamples),
	}, nil
}

func (d *flacDecoder) Format() Format { return d.format }

func (d *flacDecoder) Read(dst []int16) (int, error) {
	if d.empty() {
		frame, err := d.stream.ParseNext()
		if err != nil {
			return 0, err
		}
		count := int(frame.Subframes[0].NSamples)
		channels := d.format.Channels
		samples := make([]int16, count*channels)
		for i := range count {
			for ch := range channels {
				samples[i*channels+ch] = rescale(int(frame.Subframes[ch].Samples[i]), d.bps)
			}
		}
		d.samples = samples
	}
	return d.drain(dst[:wholeFrames(len(dst), d.format.Channels)]), nil
}

func (d *flacDecoder) Frames() int64 { return d.frames }
func (d *flacDecoder) Close() error  { return d.file.Close() }

type oggDecoder struct {
	file    *os.File
	reader  *oggvorbis.Reader
	format  Format
	scratch []float32
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, err
	}
	return &oggDecoder{
		file:   f,
		reader: reader,
		format: Format{SampleRate: reader.SampleRate(), Channels: reader.Channels()},
	}, nil
}

func (d *oggDecoder) Format() Format { return d.format }

func (d *oggDecoder) Read(dst []int16) (int, error) {
	want := wholeFrames(len(dst), d.format.Channels)
	if cap(d.scratch) < want {
		d.scratch = make([]float32, want)
	}
	n, err := d.reader.Read(d.scratch[:want])
	for i := range n {
		dst[i] = clampInt16(int(math.Round(float64(d.scratch[i]) * math.MaxInt16)))
	}
	if n == 0 && err == nil {
		err = io.EOF
	}
	return n, err
}

func (d *oggDecoder) Frames() int64 { return d.reader.Length() }
func (d *oggDecoder) Close() error  { return d.file.Close() }
