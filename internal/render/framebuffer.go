// Package render draws the scene into float framebuffers: a direct pass, a
// post-processed composite and a strip of views across a viewing cone.
package render

import "github.com/cybre/holo-music-sync/internal/scene"

// Pixel is linear RGB with 1 as full brightness. Passes may push it past 1;
// presenting clamps.
type Pixel struct {
	R, G, B float64
}

func (p Pixel) add(o Pixel) Pixel { return Pixel{p.R + o.R, p.G + o.G, p.B + o.B} }
func (p Pixel) scale(s float64) Pixel {
	return Pixel{p.R * s, p.G * s, p.B * s}
}

// Luminance uses Rec. 709 weights.
func (p Pixel) Luminance() float64 {
	return 0.2126*p.R + 0.7152*p.G + 0.0722*p.B
}

// PixelFromColor converts a 0-255 scene colour.
func PixelFromColor(c scene.Color) Pixel {
	return Pixel{c.R / 255, c.G / 255, c.B / 255}
}

// Framebuffer is a row-major pixel grid.
type Framebuffer struct {
	Width  int
	Height int
	Pix    []Pixel
}

// NewFramebuffer allocates a w×h buffer.
func NewFramebuffer(w, h int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(w, h)
	return fb
}

// Resize changes the dimensions, reusing the backing array when it is large
// enough. Contents are undefined afterwards.
func (fb *Framebuffer) Resize(w, h int) {
	w, h = max(w, 1), max(h, 1)
	fb.Width, fb.Height = w, h
	if cap(fb.Pix) >= w*h {
		fb.Pix = fb.Pix[:w*h]
		return
	}
	fb.Pix = make([]Pixel, w*h)
}

// Fill sets every pixel to p.
func (fb *Framebuffer) Fill(p Pixel) {
	for i := range fb.Pix {
		fb.Pix[i] = p
	}
}

// At returns the pixel at (x, y).
func (fb *Framebuffer) At(x, y int) Pixel {
	return fb.Pix[y*fb.Width+x]
}

// Set writes the pixel at (x, y).
func (fb *Framebuffer) Set(x, y int, p Pixel) {
	fb.Pix[y*fb.Width+x] = p
}

func (fb *Framebuffer) accumulate(x, y int, p Pixel) {
	if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
		return
	}
	i := y*fb.Width + x
	fb.Pix[i] = fb.Pix[i].add(p)
}

// Blit copies src into fb with its top-left corner at (ox, oy), clipping to fb.
func (fb *Framebuffer) Blit(src *Framebuffer, ox, oy int) {
	for y := range src.Height {
		ty := oy + y
		if ty < 0 || ty >= fb.Height {
			continue
		}
		for x := range src.Width {
			tx := ox + x
			if tx < 0 || tx >= fb.Width {
				continue
			}
			fb.Set(tx, ty, src.At(x, y))
		}
	}
}

// Presenter receives a finished frame. The buffer is reused for the next frame,
// so implementations must copy what they keep.
type Presenter interface {
	Present(fb *Framebuffer) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(fb *Framebuffer) error

func (f PresenterFunc) Present(fb *Framebuffer) error { return f(fb) }
