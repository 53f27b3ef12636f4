package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cybre/holo-music-sync/internal/render"
)

func TestDetectColorProfile(t *testing.T) {
	tests := []struct {
		name      string
		noColor   string
		term      string
		colorTerm string
		want      colorProfile
	}{
		{"no color wins", "1", "xterm-256color", "truecolor", colorNone},
		{"truecolor", "", "xterm", "truecolor", colorTrueColor},
		{"24bit", "", "xterm", "24BIT", colorTrueColor},
		{"dumb", "", "dumb", "", colorNone},
		{"unset", "", "", "", colorNone},
		{"plain xterm", "", "xterm-256color", "", colorANSI256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectColorProfile(tt.noColor, tt.term, tt.colorTerm))
		})
	}
}

func TestHalfBlockMonochrome(t *testing.T) {
	fb := render.NewFramebuffer(2, 3)
	fb.Fill(render.Pixel{})
	fb.Set(0, 0, render.Pixel{R: 1, G: 1, B: 1})
	fb.Set(0, 1, render.Pixel{R: 1, G: 1, B: 1})

	enc := halfBlockEncoder{profile: colorNone}
	rows := strings.Split(enc.encode(fb), "\n")

	assert.Equal(t, []string{"█ ", "  "}, rows)
}

func TestHalfBlockTrueColorSkipsRepeatedCodes(t *testing.T) {
	fb := render.NewFramebuffer(3, 2)
	fb.Fill(render.Pixel{R: 1})
	fb.Set(2, 1, render.Pixel{B: 1})

	enc := halfBlockEncoder{profile: colorTrueColor}
	out := enc.encode(fb)

	assert.Equal(t, 1, strings.Count(out, "\x1b[38;2;255;0;0m"))
	assert.Equal(t, 1, strings.Count(out, "\x1b[48;2;255;0;0m"))
	assert.Equal(t, 1, strings.Count(out, "\x1b[48;2;0;0;255m"))
	assert.Equal(t, 3, strings.Count(out, "▀"))
	assert.True(t, strings.HasSuffix(out, "\x1b[0m"))
}

func TestHalfBlockANSI256(t *testing.T) {
	fb := render.NewFramebuffer(1, 2)
	fb.Set(0, 0, render.Pixel{R: 1, G: 1, B: 1})
	fb.Set(0, 1, render.Pixel{})

	enc := halfBlockEncoder{profile: colorANSI256}
	out := enc.encode(fb)

	assert.Contains(t, out, "\x1b[38;5;231m")
	assert.Contains(t, out, "\x1b[48;5;16m")
}

func TestPixelRGBClampsOverdrive(t *testing.T) {
	assert.Equal(t, rgb{255, 0, 128}, pixelRGB(render.Pixel{R: 3, G: -1, B: 0.5}))
}
