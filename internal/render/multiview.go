package render

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/cybre/holo-music-sync/internal/scene"
)

// DefaultViewCone is the horizontal angle the views are spread over.
const DefaultViewCone = 40 * math.Pi / 180

// MultiViewOptions sizes the quilt.
type MultiViewOptions struct {
	Views      int
	Cone       float64
	ViewWidth  int
	ViewHeight int
}

// MultiView renders the scene from several cameras swung around the target
// across a viewing cone and lays the views side by side in one quilt.
type MultiView struct {
	raster  *Rasterizer
	camera  *scene.Camera
	present Presenter
	opts    MultiViewOptions

	view  *Framebuffer
	quilt *Framebuffer
}

// NewMultiView follows camera and presents the quilt once per Render.
func NewMultiView(raster *Rasterizer, camera *scene.Camera, opts MultiViewOptions, present Presenter) *MultiView {
	opts.Views = max(opts.Views, 1)
	if opts.Cone <= 0 {
		opts.Cone = DefaultViewCone
	}
	opts.ViewWidth = max(opts.ViewWidth, 1)
	opts.ViewHeight = max(opts.ViewHeight, 1)

	return &MultiView{
		raster:  raster,
		camera:  camera,
		present: present,
		opts:    opts,
		view:    NewFramebuffer(opts.ViewWidth, opts.ViewHeight),
		quilt:   NewFramebuffer(opts.ViewWidth*opts.Views, opts.ViewHeight),
	}
}

// Views is the number of views in the quilt.
func (m *MultiView) Views() int {
	return m.opts.Views
}

// Resize changes the per-view size.
func (m *MultiView) Resize(viewWidth, viewHeight int) {
	m.opts.ViewWidth = max(viewWidth, 1)
	m.opts.ViewHeight = max(viewHeight, 1)
	m.view.Resize(m.opts.ViewWidth, m.opts.ViewHeight)
	m.quilt.Resize(m.opts.ViewWidth*m.opts.Views, m.opts.ViewHeight)
}

// ViewAngle is the yaw offset of view i, from -cone/2 on the left to +cone/2.
func (m *MultiView) ViewAngle(i int) float64 {
	if m.opts.Views == 1 {
		return 0
	}
	return -m.opts.Cone/2 + m.opts.Cone*float64(i)/float64(m.opts.Views-1)
}

// ViewCamera is the main camera swung about its target's vertical axis.
func (m *MultiView) ViewCamera(i int) scene.Camera {
	cam := *m.camera
	offset := cam.Position.Sub(cam.Target).RotateXYZ(scene.Vec3{Y: m.ViewAngle(i)})
	cam.Position = cam.Target.Add(offset)
	return cam
}

// Render draws every view and presents the quilt.
func (m *MultiView) Render() error {
	bg := m.raster.Background()
	for i := range m.opts.Views {
		m.view.Fill(bg)
		m.raster.Draw(m.view, m.ViewCamera(i))
		m.quilt.Blit(m.view, i*m.opts.ViewWidth, 0)
	}
	return eris.Wrap(m.present.Present(m.quilt), "present quilt")
}
