package render

import (
	"github.com/rotisserie/eris"

	"github.com/cybre/holo-music-sync/internal/scene"
)

// DirectRenderer draws the scene with no post-processing.
type DirectRenderer struct {
	raster  *Rasterizer
	camera  *scene.Camera
	present Presenter
	fb      *Framebuffer
}

// NewDirectRenderer renders through camera at w×h.
func NewDirectRenderer(raster *Rasterizer, camera *scene.Camera, w, h int, present Presenter) *DirectRenderer {
	return &DirectRenderer{
		raster:  raster,
		camera:  camera,
		present: present,
		fb:      NewFramebuffer(w, h),
	}
}

// Clear fills the frame with the background colour.
func (d *DirectRenderer) Clear() {
	d.fb.Fill(d.raster.Background())
}

// Resize changes the output size.
func (d *DirectRenderer) Resize(w, h int) {
	d.fb.Resize(w, h)
}

// Render draws over the current contents and presents.
func (d *DirectRenderer) Render() error {
	d.raster.Draw(d.fb, *d.camera)
	return eris.Wrap(d.present.Present(d.fb), "present frame")
}
