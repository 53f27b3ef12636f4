// Package scene holds the mutable scene state written by the render loop and read
// by the renderers in the same frame.
package scene

import (
	"math"
	"math/rand"
)

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector, or the zero vector unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// RotateXYZ applies Euler angles in X, Y, Z order (intrinsic), matching the usual
// scene-graph convention.
func (v Vec3) RotateXYZ(r Vec3) Vec3 {
	sx, cx := math.Sincos(r.X)
	sy, cy := math.Sincos(r.Y)
	sz, cz := math.Sincos(r.Z)

	// Rz
	x := v.X*cz - v.Y*sz
	y := v.X*sz + v.Y*cz
	z := v.Z
	// Ry
	x, z = x*cy+z*sy, -x*sy+z*cy
	// Rx
	y, z = y*cx-z*sx, y*sx+z*cx
	return Vec3{x, y, z}
}

// Color channels are on a 0-255 scale and may be overdriven past 255.
type Color struct {
	R, G, B float64
}

// ColorFromHex unpacks 0xRRGGBB.
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float64(hex >> 16 & 0xff),
		G: float64(hex >> 8 & 0xff),
		B: float64(hex & 0xff),
	}
}

// Mesh is a point cloud with a transform and a single material colour.
type Mesh struct {
	Position Vec3
	Rotation Vec3
	Color    Color
	Points   []Vec3
}

// PointLight emits from Position with the given intensity.
type PointLight struct {
	Position  Vec3
	Color     Color
	Intensity float64
}

// Camera is a perspective camera aimed at Target.
type Camera struct {
	Position    Vec3
	Target      Vec3
	FocalLength float64
	FilmGauge   float64
	Near        float64
	Far         float64
}

// VerticalFOV derives the vertical field of view in radians from the focal length.
func (c *Camera) VerticalFOV() float64 {
	return 2 * math.Atan(c.FilmGauge/2/c.FocalLength)
}

// PostProcess carries the compositor controls mapped each frame.
type PostProcess struct {
	BlurA           float64
	BlurB           float64
	BloomThreshold  float64
	ScanlineDensity float64
	Boost           float64
}

// Parameters is the complete set of scene values mutated once per frame by the
// render loop. It has exactly one writer.
type Parameters struct {
	FrontLight PointLight
	BackLight  PointLight
	Core       Mesh
	Lattice    Mesh
	Camera     Camera
	Post       PostProcess
}

// NewParameters lays out the initial scene: two point lights, the core mesh at the
// origin, the lattice around it and the camera on the +Z axis.
func NewParameters(rng *rand.Rand) *Parameters {
	return &Parameters{
		FrontLight: PointLight{
			Position:  Vec3{20, 12, 70},
			Color:     ColorFromHex(0xffcc66),
			Intensity: 1,
		},
		BackLight: PointLight{
			Position:  Vec3{-20, 0, 65},
			Color:     ColorFromHex(0xff66e4),
			Intensity: 0.5,
		},
		Core: Mesh{
			Color:  ColorFromHex(0xd8d8e0),
			Points: CorePoints(7),
		},
		Lattice: Mesh{
			Points: LatticePoints(rng, 200, 40),
		},
		Camera: Camera{
			Position:    Vec3{0, 0, 100},
			FocalLength: 35,
			FilmGauge:   24,
			Near:        0.1,
			Far:         1000,
		},
		Post: PostProcess{
			BlurA:           0.7,
			BlurB:           0.5,
			BloomThreshold:  1,
			ScanlineDensity: 0.1,
			Boost:           1,
		},
	}
}
