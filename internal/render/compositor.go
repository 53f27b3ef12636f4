package render

import (
	"github.com/rotisserie/eris"

	"github.com/cybre/holo-music-sync/internal/scene"
)

const (
	// blurRadiusScale turns the blur amount into a kernel radius in pixels.
	blurRadiusScale = 2.0
	bloomRadius     = 2
	bloomStrength   = 0.5
	scanlineOpacity = 0.2
	scanlineMax     = 0.85
)

// Compositor renders the scene and runs blur, bloom and scanline passes over it
// before presenting.
type Compositor struct {
	raster  *Rasterizer
	camera  *scene.Camera
	present Presenter

	fb, tmp, blurred, bright *Framebuffer

	blurA, blurB    float64
	bloomThreshold  float64
	bloomBoost      float64
	scanlineDensity float64
	scanlineBoost   float64
}

// NewCompositor renders through camera at w×h.
func NewCompositor(raster *Rasterizer, camera *scene.Camera, w, h int, present Presenter) *Compositor {
	return &Compositor{
		raster:         raster,
		camera:         camera,
		present:        present,
		fb:             NewFramebuffer(w, h),
		tmp:            NewFramebuffer(w, h),
		blurred:        NewFramebuffer(w, h),
		bright:         NewFramebuffer(w, h),
		bloomThreshold: 1,
		bloomBoost:     1,
		scanlineBoost:  1,
	}
}

// SetBlur sets the blur kernel amount and how much of the blurred image is mixed in.
func (c *Compositor) SetBlur(a, b float64) {
	c.blurA, c.blurB = a, b
}

// SetBloom sets the luminance threshold and the bloom gain.
func (c *Compositor) SetBloom(threshold, boost float64) {
	c.bloomThreshold, c.bloomBoost = threshold, boost
}

// SetScanlines sets the line density and the darkening gain.
func (c *Compositor) SetScanlines(density, boost float64) {
	c.scanlineDensity, c.scanlineBoost = density, boost
}

// Resize changes the output size.
func (c *Compositor) Resize(w, h int) {
	for _, fb := range []*Framebuffer{c.fb, c.tmp, c.blurred, c.bright} {
		fb.Resize(w, h)
	}
}

// Render draws and post-processes one frame and hands it to the presenter.
func (c *Compositor) Render() error {
	c.fb.Fill(c.raster.Background())
	c.raster.Draw(c.fb, *c.camera)

	radius := int(c.blurA*blurRadiusScale + 0.5)
	boxBlur(c.blurred, c.fb, c.tmp, radius)
	mix(c.fb, c.blurred, c.blurB)

	brightPass(c.bright, c.fb, c.bloomThreshold)
	boxBlur(c.bright, c.bright, c.tmp, bloomRadius)
	addScaled(c.fb, c.bright, bloomStrength*c.bloomBoost)

	scanlines(c.fb, c.scanlineDensity, scanlineOpacity*c.scanlineBoost, scanlineMax)

	return eris.Wrap(c.present.Present(c.fb), "present composited frame")
}
