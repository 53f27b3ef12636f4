package mapping

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cybre/holo-music-sync/internal/dsp"
	"github.com/cybre/holo-music-sync/internal/scene"
)

func TestIntensityBoostBelowThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for range 200 {
		mid := rng.Float64() * BoostThreshold
		high := rng.Float64() * (BoostThreshold - mid)
		assert.Equal(t, 1.0, IntensityBoost(mid, high))
	}
	assert.Equal(t, 1.0, IntensityBoost(0.625, 0.625))
}

func TestIntensityBoostAboveThreshold(t *testing.T) {
	prev := IntensityBoost(0.7, 0.56)
	assert.Greater(t, prev, 1.0)
	for sum := 1.27; sum <= 1.5; sum += 0.01 {
		b := IntensityBoost(sum/2, sum/2)
		assert.Greater(t, b, prev)
		prev = b
	}
	assert.InDelta(t, 20.0, IntensityBoost(0.75, 0.75), 1e-9)
}

func TestComputeSilence(t *testing.T) {
	tg := Compute(dsp.BandEnergies{})
	assert.Equal(t, 1.0, tg.Boost)
	assert.Equal(t, 0.0, tg.FrontIntensity)
	assert.Equal(t, 0.0, tg.BackIntensity)
	assert.Equal(t, 20.0, tg.FocalLength)
	assert.InDelta(t, 0.7, tg.BlurA, 1e-12)
	assert.InDelta(t, 0.5, tg.BlurB, 1e-12)
	assert.InDelta(t, 0.0001, tg.BloomThreshold, 1e-12)
	assert.InDelta(t, 0.1, tg.ScanlineDensity, 1e-12)
	assert.Equal(t, scene.Color{R: 20, G: 125}, tg.LatticeColor)
}

func TestComputeLowOnly(t *testing.T) {
	tg := Compute(dsp.BandEnergies{Low: 1})
	assert.Equal(t, 1.0, tg.Boost)
	assert.InDelta(t, 2.5, tg.FrontIntensity, 1e-12)
	assert.Equal(t, 0.0, tg.BackIntensity)
	assert.InDelta(t, 30, tg.FocalLength, 1e-12)
	assert.InDelta(t, 1, tg.BloomThreshold, 1e-12)
	assert.InDelta(t, 5, tg.ScanlineDensity, 1e-12)
	assert.InDelta(t, 125, tg.LatticeColor.R, 1e-12)
}

func TestComputeHighTransientBoostsBothLights(t *testing.T) {
	tg := Compute(dsp.BandEnergies{Low: 0.5, Mid: 0.7, High: 0.7})
	boost := IntensityBoost(0.7, 0.7)
	assert.InDelta(t, 0.5*FrontLightGain*boost, tg.FrontIntensity, 1e-9)
	assert.InDelta(t, 0.7*BackLightGain*boost, tg.BackIntensity, 1e-9)
}

func TestComputeOvershoots(t *testing.T) {
	tg := Compute(dsp.BandEnergies{Low: 1.2, High: 1.1})
	assert.Greater(t, tg.FocalLength, 30.0)
	assert.Greater(t, tg.BlurA, 0.9)
}

func TestApplyRotations(t *testing.T) {
	p := scene.NewParameters(rand.New(rand.NewSource(1)))
	var m Mapper

	m.Apply(p, dsp.BandEnergies{}, 0.4)
	assert.InDelta(t, math.Sin(10*math.Pi)+0.4, p.Core.Rotation.X, 1e-12)
	assert.InDelta(t, math.Cos(7.5*math.Pi)+0.4, p.Core.Rotation.Y, 1e-12)
	assert.InDelta(t, 0.005, p.Core.Rotation.Z, 1e-12)
	assert.InDelta(t, 1+0.04, p.Lattice.Rotation.X, 1e-12)
	assert.InDelta(t, math.Cos(math.Pi/2)+0.04, p.Lattice.Rotation.Y, 1e-12)
	assert.InDelta(t, -0.0025, p.Lattice.Rotation.Z, 1e-12)

	m.Apply(p, dsp.BandEnergies{}, 0.4)
	assert.InDelta(t, 0.01, p.Core.Rotation.Z, 1e-12)
}

func TestApplySubKickIsEdgeTriggered(t *testing.T) {
	p := scene.NewParameters(rand.New(rand.NewSource(1)))
	var m Mapper

	m.Apply(p, dsp.BandEnergies{Sub: 0.9}, 0)
	assert.InDelta(t, 0.005+0.9, p.Core.Rotation.Z, 1e-12)

	m.Apply(p, dsp.BandEnergies{Sub: 0.95}, 0)
	assert.InDelta(t, 0.005*2+0.9, p.Core.Rotation.Z, 1e-12, "held sub must not kick again")

	m.Apply(p, dsp.BandEnergies{Sub: 0.5}, 0)
	m.Apply(p, dsp.BandEnergies{Sub: 0.9}, 0)
	assert.InDelta(t, 0.005*4+1.8, p.Core.Rotation.Z, 1e-12)
}

func TestApplyWritesParameterSet(t *testing.T) {
	p := scene.NewParameters(rand.New(rand.NewSource(1)))
	var m Mapper
	tg := m.Apply(p, dsp.BandEnergies{Low: 1}, 0)

	assert.Equal(t, tg.FrontIntensity, p.FrontLight.Intensity)
	assert.Equal(t, tg.FocalLength, p.Camera.FocalLength)
	assert.Equal(t, tg.BloomThreshold, p.Post.BloomThreshold)
	assert.Equal(t, tg.LatticeColor, p.Lattice.Color)
}
