package utils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1.0, 0.0, 1.0))
	assert.Equal(t, 1.0, Clamp(3.0, 0.0, 1.0))
	assert.Equal(t, 5, Clamp(5, 0, 10))
}

func TestMapLinearEndpoints(t *testing.T) {
	assert.Equal(t, 20.0, MapLinear(0, 0, 1, 20, 30))
	assert.Equal(t, 30.0, MapLinear(1, 0, 1, 20, 30))
	assert.InDelta(t, 25.0, MapLinear(0.5, 0, 1, 20, 30), 1e-12)
}

func TestMapLinearExtrapolates(t *testing.T) {
	assert.InDelta(t, 35.0, MapLinear(1.5, 0, 1, 20, 30), 1e-12)
	assert.InDelta(t, 15.0, MapLinear(-0.5, 0, 1, 20, 30), 1e-12)
}

func TestMapLinearIsAffine(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for range 200 {
		a := rng.Float64()*200 - 100
		b := rng.Float64()*200 - 100
		x := rng.Float64()*4 - 2
		y := rng.Float64()*4 - 2
		s := rng.Float64()

		mixed := MapLinear(s*x+(1-s)*y, 0, 1, a, b)
		expected := s*MapLinear(x, 0, 1, a, b) + (1-s)*MapLinear(y, 0, 1, a, b)
		assert.InDelta(t, expected, mixed, 1e-9)
	}
}

func TestClampIndex(t *testing.T) {
	assert.Equal(t, 0, ClampIndex(-3, 4))
	assert.Equal(t, 3, ClampIndex(9, 4))
	assert.Equal(t, 0, ClampIndex(2, 0))
}

func TestChannelByte(t *testing.T) {
	assert.Equal(t, uint8(255), ChannelByte(300))
	assert.Equal(t, uint8(0), ChannelByte(-5))
	assert.Equal(t, uint8(125), ChannelByte(125))
}
