package render

import (
	"math"

	"github.com/cybre/holo-music-sync/internal/utils"
)

// boxBlur writes a separable box blur of src into dst, using tmp for the
// horizontal pass. All three must share dimensions; dst may alias src.
func boxBlur(dst, src, tmp *Framebuffer, radius int) {
	if radius <= 0 {
		if dst != src {
			copy(dst.Pix, src.Pix)
		}
		return
	}
	w, h := src.Width, src.Height

	for y := range h {
		row := y * w
		for x := range w {
			var sum Pixel
			n := 0
			for k := max(x-radius, 0); k <= min(x+radius, w-1); k++ {
				sum = sum.add(src.Pix[row+k])
				n++
			}
			tmp.Pix[row+x] = sum.scale(1 / float64(n))
		}
	}

	for x := range w {
		for y := range h {
			var sum Pixel
			n := 0
			for k := max(y-radius, 0); k <= min(y+radius, h-1); k++ {
				sum = sum.add(tmp.Pix[k*w+x])
				n++
			}
			dst.Pix[y*w+x] = sum.scale(1 / float64(n))
		}
	}
}

// mix blends b into a by t.
func mix(a, b *Framebuffer, t float64) {
	for i := range a.Pix {
		p, q := a.Pix[i], b.Pix[i]
		a.Pix[i] = Pixel{
			R: utils.Lerp(p.R, q.R, t),
			G: utils.Lerp(p.G, q.G, t),
			B: utils.Lerp(p.B, q.B, t),
		}
	}
}

// brightPass keeps the part of each pixel above the luminance threshold.
func brightPass(dst, src *Framebuffer, threshold float64) {
	for i, p := range src.Pix {
		lum := p.Luminance()
		if lum <= threshold || lum == 0 {
			dst.Pix[i] = Pixel{}
			continue
		}
		dst.Pix[i] = p.scale((lum - threshold) / lum)
	}
}

// addScaled adds s·src onto dst.
func addScaled(dst, src *Framebuffer, s float64) {
	for i := range dst.Pix {
		dst.Pix[i] = dst.Pix[i].add(src.Pix[i].scale(s))
	}
}

// scanlines darkens rows along a sine of the given density. Opacity grows with
// boost up to maxOpacity.
func scanlines(fb *Framebuffer, density, opacity, maxOpacity float64) {
	opacity = utils.Clamp(opacity, 0, maxOpacity)
	for y := range fb.Height {
		wave := 0.5 + 0.5*math.Sin(float64(y)*density*math.Pi)
		factor := 1 - opacity*wave
		row := fb.Pix[y*fb.Width : (y+1)*fb.Width]
		for x := range row {
			row[x] = row[x].scale(factor)
		}
	}
}
