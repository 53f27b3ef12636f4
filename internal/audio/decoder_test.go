package audio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, bitDepth, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, 8000, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func readAll(t *testing.T, dec Decoder, chunk int) []int16 {
	t.Helper()
	var out []int16
	buf := make([]int16, chunk)
	for range 10000 {
		n, err := dec.Read(buf)
		out = append(out, buf[:n]...)
		if eris.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
	}
	t.Fatal("decoder never reached EOF")
	return nil
}

func TestOpenDecoderRejectsUnknownExtension(t *testing.T) {
	_, err := OpenDecoder("song.aiff")
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestOpenDecoderMissingFile(t *testing.T) {
	_, err := OpenDecoder(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestWAVDecoderStereo16(t *testing.T) {
	data := []int{100, -100, 2000, -2000, 32767, -32768, 0, 5}
	dec, err := OpenDecoder(writeWAV(t, 16, 2, data))
	require.NoError(t, err)
	defer dec.Close()

	assert.Equal(t, Format{SampleRate: 8000, Channels: 2}, dec.Format())
	assert.Equal(t, int64(4), dec.Frames())

	got := readAll(t, dec, 3)
	assert.Equal(t, []int16{100, -100, 2000, -2000, 32767, -32768, 0, 5}, got)
}

func TestRescale(t *testing.T) {
	assert.Equal(t, int16(0x1234), rescale(0x123456, 24))
	assert.Equal(t, int16(-256), rescale(-1, 8))
	assert.Equal(t, int16(7), rescale(7, 16))
}

func TestWholeFrames(t *testing.T) {
	assert.Equal(t, 6, wholeFrames(7, 2))
	assert.Equal(t, 0, wholeFrames(1, 2))
	assert.Equal(t, 5, wholeFrames(5, 1))
}
