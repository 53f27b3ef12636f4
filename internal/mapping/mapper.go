// Package mapping turns per-frame band energies into scene parameters.
package mapping

import (
	"math"

	"github.com/cybre/holo-music-sync/internal/dsp"
	"github.com/cybre/holo-music-sync/internal/scene"
	"github.com/cybre/holo-music-sync/internal/utils"
)

const (
	// FrontLightGain scales the low band into the front light intensity.
	FrontLightGain = 2.5
	// BackLightGain scales the high band into the back light intensity.
	BackLightGain  = 3.5

	// BoostThreshold is the combined mid+high energy above which lights flash.
	BoostThreshold = 1.25
	boostInMax     = 1.5
	boostOutMin    = 1.0
	boostOutMax    = 20.0

	// SubKickThreshold arms the one-shot core rotation kick.
	SubKickThreshold = 0.85

	coreSpin    = 0.005
	latticeSpin = 0.0025
)

// Targets are the mapped values for one frame.
type Targets struct {
	Boost           float64
	FrontIntensity  float64
	BackIntensity   float64
	FocalLength     float64
	BlurA           float64
	BlurB           float64
	BloomThreshold  float64
	ScanlineDensity float64
	LatticeColor    scene.Color
}

// IntensityBoost returns the light multiplier for a mid/high transient.
func IntensityBoost(mid, high float64) float64 {
	sum := mid + high
	if sum > BoostThreshold {
		return utils.MapLinear(sum, 0, boostInMax, boostOutMin, boostOutMax)
	}
	return 1
}

// Compute evaluates the mapping table. Inputs above 1 overshoot the output ranges.
func Compute(e dsp.BandEnergies) Targets {
	boost := IntensityBoost(e.Mid, e.High)
	return Targets{
		Boost:           boost,
		FrontIntensity:  e.Low * FrontLightGain * boost,
		BackIntensity:   e.High * BackLightGain * boost,
		FocalLength:     utils.MapLinear(e.Low, 0, 1, 20, 30),
		BlurA:           utils.MapLinear(e.High, 0, 1, 0.7, 0.9),
		BlurB:           utils.MapLinear(e.High, 0, 1, 0.5, 0.7),
		BloomThreshold:  utils.MapLinear(e.Low, 0, 1, 0.0001, 1),
		ScanlineDensity: utils.MapLinear(e.Low, 0, 1, 0.1, 5),
		LatticeColor: scene.Color{
			R: utils.MapLinear(e.Low, 0, 1, 20, 125),
			G: utils.MapLinear(e.Mid, 0, 1, 125, 255),
			B: 0,
		},
	}
}

// Mapper writes mapped values into the scene. It remembers whether the sub band was
// already above the kick threshold so the kick fires on the rising edge only.
type Mapper struct {
	subArmed bool
}

// Apply writes one frame of targets and rotations into p and returns the targets.
func (m *Mapper) Apply(p *scene.Parameters, e dsp.BandEnergies, t float64) Targets {
	tg := Compute(e)

	p.FrontLight.Intensity = tg.FrontIntensity
	p.BackLight.Intensity = tg.BackIntensity
	p.Camera.FocalLength = tg.FocalLength
	p.Lattice.Color = tg.LatticeColor
	p.Post = scene.PostProcess{
		BlurA:           tg.BlurA,
		BlurB:           tg.BlurB,
		BloomThreshold:  tg.BloomThreshold,
		ScanlineDensity: tg.ScanlineDensity,
		Boost:           tg.Boost,
	}

	p.Core.Rotation.X = math.Sin(math.Pi*10) + t
	p.Core.Rotation.Y = math.Cos(math.Pi*7.5) + t
	p.Core.Rotation.Z += coreSpin

	above := e.Sub > SubKickThreshold
	if above && !m.subArmed {
		p.Core.Rotation.Z += e.Sub
	}
	m.subArmed = above

	p.Lattice.Rotation.X = math.Sin(math.Pi*0.5) + t/10
	p.Lattice.Rotation.Y = math.Cos(math.Pi*0.5) + t/10
	p.Lattice.Rotation.Z -= latticeSpin

	return tg
}
