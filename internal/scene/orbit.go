package scene

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/cybre/holo-music-sync/internal/utils"
)

// OrbitOptions tunes the OrbitController.
type OrbitOptions struct {
	Distance    float64
	MinDistance float64
	MaxDistance float64
	Phi         float64
	Theta       float64
	// Damping is the share of the remaining distance covered per frame.
	Damping float64
	FPS     int
}

// OrbitController keeps the camera on a sphere around a target and eases it toward
// the requested angles.
type OrbitController struct {
	camera *Camera
	opts   OrbitOptions
	target Vec3

	goal   [3]float64 // theta, phi, distance
	pos    [3]float64
	vel    [3]float64
	spring harmonica.Spring
}

// NewOrbitController places camera on the orbit described by opts.
func NewOrbitController(camera *Camera, opts OrbitOptions) *OrbitController {
	if opts.Distance <= 0 {
		opts.Distance = 200
	}
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = 300
	}
	if opts.Phi == 0 {
		opts.Phi = math.Pi / 2
	}
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = 0.15
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}

	// critically damped spring with the same per-frame convergence as a lerp of Damping
	angular := -math.Log(1-opts.Damping) * float64(opts.FPS)

	o := &OrbitController{
		camera: camera,
		opts:   opts,
		goal:   [3]float64{opts.Theta, opts.Phi, opts.Distance},
		spring: harmonica.NewSpring(harmonica.FPS(opts.FPS), angular, 1.0),
	}
	o.pos = o.goal
	o.place()
	return o
}

// SetTarget points the orbit at v.
func (o *OrbitController) SetTarget(v Vec3) {
	o.target = v
}

// Nudge moves the requested orbit. The camera follows on the next updates.
func (o *OrbitController) Nudge(dTheta, dPhi, dDistance float64) {
	o.goal[0] += dTheta
	o.goal[1] = utils.Clamp(o.goal[1]+dPhi, 0.01, math.Pi-0.01)
	o.goal[2] = utils.Clamp(o.goal[2]+dDistance, o.opts.MinDistance, o.opts.MaxDistance)
}

// Update advances the damping by one frame and re-aims the camera.
func (o *OrbitController) Update() {
	for i := range o.pos {
		o.pos[i], o.vel[i] = o.spring.Update(o.pos[i], o.vel[i], o.goal[i])
	}
	o.place()
}

func (o *OrbitController) place() {
	theta, phi, dist := o.pos[0], o.pos[1], o.pos[2]
	sp, cp := math.Sincos(phi)
	st, ct := math.Sincos(theta)
	o.camera.Position = o.target.Add(Vec3{
		X: dist * sp * st,
		Y: dist * cp,
		Z: dist * sp * ct,
	})
	o.camera.Target = o.target
}
