package render

import (
	"math"

	"github.com/cybre/holo-music-sync/internal/scene"
	"github.com/cybre/holo-music-sync/internal/utils"
)

const (
	backgroundHex = 0x120707

	ambient    = 0.15
	lightRange = 100.0
	pointGain  = 0.35
	// depth at which splats start to fade
	fadeDepth = 150.0
)

// Rasterizer projects the scene's point clouds with a pinhole camera and
// accumulates lit splats into a framebuffer.
type Rasterizer struct {
	scene      *scene.Parameters
	background Pixel
}

// NewRasterizer reads meshes and lights from p on every Draw.
func NewRasterizer(p *scene.Parameters) *Rasterizer {
	return &Rasterizer{
		scene:      p,
		background: PixelFromColor(scene.ColorFromHex(backgroundHex)),
	}
}

// Background is the clear colour.
func (r *Rasterizer) Background() Pixel {
	return r.background
}

// view is a camera resolved for one framebuffer.
type view struct {
	eye        scene.Vec3
	right      scene.Vec3
	up         scene.Vec3
	forward    scene.Vec3
	focal      float64
	near       float64
	far        float64
	halfWidth  float64
	halfHeight float64
}

func newView(cam scene.Camera, w, h int) view {
	forward := cam.Target.Sub(cam.Position).Normalize()
	worldUp := scene.Vec3{Y: 1}
	if math.Abs(forward.Dot(worldUp)) > 0.999 {
		worldUp = scene.Vec3{Z: -1}
	}
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward)

	halfHeight := float64(h) / 2
	return view{
		eye:        cam.Position,
		right:      right,
		up:         up,
		forward:    forward,
		focal:      halfHeight / math.Tan(cam.VerticalFOV()/2),
		near:       cam.Near,
		far:        cam.Far,
		halfWidth:  float64(w) / 2,
		halfHeight: halfHeight,
	}
}

// project maps a world point to pixel coordinates and its depth along the view.
func (v *view) project(p scene.Vec3) (x, y, depth float64, ok bool) {
	d := p.Sub(v.eye)
	depth = d.Dot(v.forward)
	if depth < v.near || depth > v.far {
		return 0, 0, 0, false
	}
	x = v.halfWidth + d.Dot(v.right)*v.focal/depth
	y = v.halfHeight - d.Dot(v.up)*v.focal/depth
	return x, y, depth, true
}

// basis is a mesh rotation resolved once per draw.
type basis struct {
	x, y, z, origin scene.Vec3
}

func meshBasis(m *scene.Mesh) basis {
	return basis{
		x:      scene.Vec3{X: 1}.RotateXYZ(m.Rotation),
		y:      scene.Vec3{Y: 1}.RotateXYZ(m.Rotation),
		z:      scene.Vec3{Z: 1}.RotateXYZ(m.Rotation),
		origin: m.Position,
	}
}

func (b *basis) world(p scene.Vec3) scene.Vec3 {
	return b.x.Scale(p.X).Add(b.y.Scale(p.Y)).Add(b.z.Scale(p.Z)).Add(b.origin)
}

// Draw adds both meshes, seen from cam, on top of fb's current contents.
func (r *Rasterizer) Draw(fb *Framebuffer, cam scene.Camera) {
	v := newView(cam, fb.Width, fb.Height)
	lights := [2]scene.PointLight{r.scene.FrontLight, r.scene.BackLight}

	for _, mesh := range [2]*scene.Mesh{&r.scene.Core, &r.scene.Lattice} {
		b := meshBasis(mesh)
		base := PixelFromColor(mesh.Color)
		for _, local := range mesh.Points {
			world := b.world(local)
			x, y, depth, ok := v.project(world)
			if !ok {
				continue
			}
			weight := pointGain * utils.Clamp(fadeDepth/depth, 0.1, 1.0)
			fb.accumulate(int(math.Floor(x)), int(math.Floor(y)), shade(base, world, lights).scale(weight))
		}
	}
}

// shade lights a point with an ambient term plus inverse-square falloff from each
// point light.
func shade(base Pixel, p scene.Vec3, lights [2]scene.PointLight) Pixel {
	light := Pixel{ambient, ambient, ambient}
	for _, l := range lights {
		d := l.Position.Sub(p).Len() / lightRange
		falloff := l.Intensity / (1 + d*d)
		light = light.add(PixelFromColor(l.Color).scale(falloff))
	}
	return Pixel{base.R * light.R, base.G * light.G, base.B * light.B}
}
