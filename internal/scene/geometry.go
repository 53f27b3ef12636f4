package scene

import (
	"math"
	"math/rand"
)

const (
	coreRadius    = 10.0
	coreAngleStep = 4
	latticeRing   = 10
	latticeJitter = 50.0
)

// CorePoints builds the spiralling core cloud. Each ring layer spreads further out
// and is stretched along Z.
func CorePoints(layers int) []Vec3 {
	points := make([]Vec3, 0, 360/coreAngleStep*layers)
	for i := 0; i < 360; i += coreAngleStep {
		// degrees-of-radians on purpose: it scatters the angle instead of sweeping it
		a := float64(i) * 180 / math.Pi
		s, c := math.Sincos(a)
		for j := 1; j <= layers; j++ {
			fj := float64(j)
			points = append(points, Vec3{
				X: s * coreRadius * fj,
				Y: c * coreRadius * fj,
				Z: s * coreRadius * 3 * fj / 10,
			})
		}
	}
	return points
}

// LatticePoints scatters wireframe spheres over a jittered grid and samples each
// sphere as an equatorial ring.
func LatticePoints(rng *rand.Rand, totalSize, sphereSize float64) []Vec3 {
	var points []Vec3
	for x := -totalSize / 2; x < totalSize+sphereSize; x += sphereSize {
		for y := -totalSize / 2; y < totalSize+sphereSize; y += sphereSize {
			for z := -totalSize / 2; z < totalSize+sphereSize; z += sphereSize {
				center := Vec3{
					X: x + rng.Float64()*latticeJitter,
					Y: y + rng.Float64()*latticeJitter,
					Z: z + rng.Float64()*latticeJitter,
				}
				for k := range latticeRing {
					s, c := math.Sincos(2 * math.Pi * float64(k) / latticeRing)
					points = append(points, center.Add(Vec3{X: c * sphereSize, Y: s * sphereSize}))
				}
			}
		}
	}
	return points
}
