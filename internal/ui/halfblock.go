package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cybre/holo-music-sync/internal/render"
	"github.com/cybre/holo-music-sync/internal/utils"
)

type colorProfile uint8

const (
	colorNone colorProfile = iota
	colorANSI256
	colorTrueColor
)

var (
	profileOnce sync.Once
	profile     colorProfile
)

func currentColorProfile() colorProfile {
	profileOnce.Do(func() {
		profile = detectColorProfile(os.Getenv("NO_COLOR"), os.Getenv("TERM"), os.Getenv("COLORTERM"))
	})
	return profile
}

func detectColorProfile(noColor, term, colorTerm string) colorProfile {
	term = strings.ToLower(term)
	colorTerm = strings.ToLower(colorTerm)
	switch {
	case noColor != "":
		return colorNone
	case strings.Contains(colorTerm, "truecolor"), strings.Contains(colorTerm, "24bit"):
		return colorTrueColor
	case term == "", term == "dumb":
		return colorNone
	default:
		return colorANSI256
	}
}

type rgb struct {
	R, G, B uint8
}

func pixelRGB(p render.Pixel) rgb {
	return rgb{
		R: utils.ChannelByte(p.R * 255),
		G: utils.ChannelByte(p.G * 255),
		B: utils.ChannelByte(p.B * 255),
	}
}

func ansi256(c rgb) int {
	r := int(c.R) * 5 / 255
	g := int(c.G) * 5 / 255
	b := int(c.B) * 5 / 255
	return 16 + 36*r + 6*g + b
}

// halfBlockEncoder turns a framebuffer into terminal rows. Each cell holds two
// vertically stacked pixels: the upper half block takes the top pixel as its
// foreground and the bottom pixel as its background.
type halfBlockEncoder struct {
	profile colorProfile
	sb      strings.Builder
	fg, bg  rgb
	started bool
}

func (e *halfBlockEncoder) encode(fb *render.Framebuffer) string {
	e.sb.Reset()
	e.sb.Grow(fb.Width * (fb.Height/2 + 1) * 24)

	for y := 0; y < fb.Height; y += 2 {
		if y > 0 {
			e.sb.WriteByte('\n')
		}
		e.started = false
		for x := range fb.Width {
			top := pixelRGB(fb.At(x, y))
			bottom := top
			if y+1 < fb.Height {
				bottom = pixelRGB(fb.At(x, y+1))
			}
			e.cell(top, bottom)
		}
		if e.profile != colorNone {
			e.sb.WriteString("\x1b[0m")
		}
	}
	return e.sb.String()
}

func (e *halfBlockEncoder) cell(top, bottom rgb) {
	switch e.profile {
	case colorNone:
		e.sb.WriteRune(monochromeRune(top, bottom))
		return
	case colorTrueColor:
		if !e.started || top != e.fg {
			fmt.Fprintf(&e.sb, "\x1b[38;2;%d;%d;%dm", top.R, top.G, top.B)
		}
		if !e.started || bottom != e.bg {
			fmt.Fprintf(&e.sb, "\x1b[48;2;%d;%d;%dm", bottom.R, bottom.G, bottom.B)
		}
	default:
		if !e.started || ansi256(top) != ansi256(e.fg) {
			fmt.Fprintf(&e.sb, "\x1b[38;5;%dm", ansi256(top))
		}
		if !e.started || ansi256(bottom) != ansi256(e.bg) {
			fmt.Fprintf(&e.sb, "\x1b[48;5;%dm", ansi256(bottom))
		}
	}
	e.fg, e.bg, e.started = top, bottom, true
	e.sb.WriteRune('▀')
}

// monochromeRune approximates two pixels with a shade block.
func monochromeRune(top, bottom rgb) rune {
	lum := (int(top.R) + int(top.G) + int(top.B) + int(bottom.R) + int(bottom.G) + int(bottom.B)) / 6
	switch {
	case lum > 192:
		return '█'
	case lum > 128:
		return '▓'
	case lum > 64:
		return '▒'
	case lum > 24:
		return '░'
	default:
		return ' '
	}
}
