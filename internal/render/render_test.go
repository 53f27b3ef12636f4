package render

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybre/holo-music-sync/internal/scene"
)

func singlePointScene() *scene.Parameters {
	return &scene.Parameters{
		FrontLight: scene.PointLight{Position: scene.Vec3{Z: 50}, Color: scene.ColorFromHex(0xffffff), Intensity: 1},
		Core: scene.Mesh{
			Color:  scene.ColorFromHex(0xffffff),
			Points: []scene.Vec3{{}},
		},
		Camera: scene.Camera{
			Position:    scene.Vec3{Z: 100},
			FocalLength: 35,
			FilmGauge:   24,
			Near:        0.1,
			Far:         1000,
		},
	}
}

type capture struct {
	calls int
	last  []Pixel
	w, h  int
	err   error
}

func (c *capture) Present(fb *Framebuffer) error {
	c.calls++
	c.last = append(c.last[:0], fb.Pix...)
	c.w, c.h = fb.Width, fb.Height
	return c.err
}

func brightest(fb *Framebuffer) (int, int) {
	bx, by, best := -1, -1, 0.0
	for y := range fb.Height {
		for x := range fb.Width {
			if l := fb.At(x, y).Luminance(); l > best {
				bx, by, best = x, y, l
			}
		}
	}
	return bx, by
}

func TestRasterizerProjectsTargetToCenter(t *testing.T) {
	p := singlePointScene()
	fb := NewFramebuffer(40, 20)
	NewRasterizer(p).Draw(fb, p.Camera)

	x, y := brightest(fb)
	assert.Equal(t, 20, x)
	assert.Equal(t, 10, y)
}

func TestRasterizerHonoursMeshTransform(t *testing.T) {
	p := singlePointScene()
	p.Core.Points = []scene.Vec3{{X: 10}}
	p.Core.Rotation = scene.Vec3{Z: math.Pi / 2}
	fb := NewFramebuffer(40, 20)
	NewRasterizer(p).Draw(fb, p.Camera)

	// rotated onto +Y, which is up on screen
	x, y := brightest(fb)
	assert.Equal(t, 20, x)
	assert.Less(t, y, 10)
}

func TestRasterizerCullsPointsBehindCamera(t *testing.T) {
	p := singlePointScene()
	p.Core.Position = scene.Vec3{Z: 200}
	fb := NewFramebuffer(40, 20)
	NewRasterizer(p).Draw(fb, p.Camera)

	for _, px := range fb.Pix {
		require.Equal(t, Pixel{}, px)
	}
}

func TestShadeAmbientOnly(t *testing.T) {
	base := Pixel{1, 0.5, 0}
	got := shade(base, scene.Vec3{}, [2]scene.PointLight{})
	assert.InDelta(t, ambient, got.R, 1e-12)
	assert.InDelta(t, ambient/2, got.G, 1e-12)
	assert.Zero(t, got.B)
}

func TestShadeFallsOffWithDistance(t *testing.T) {
	light := scene.PointLight{Color: scene.ColorFromHex(0xffffff), Intensity: 2}
	near := shade(Pixel{1, 1, 1}, scene.Vec3{X: 10}, [2]scene.PointLight{light})
	far := shade(Pixel{1, 1, 1}, scene.Vec3{X: 300}, [2]scene.PointLight{light})
	assert.Greater(t, near.R, far.R)
	assert.Greater(t, far.R, ambient)
}

func TestBoxBlurKeepsUniformImage(t *testing.T) {
	src := NewFramebuffer(8, 6)
	src.Fill(Pixel{0.3, 0.2, 0.1})
	dst := NewFramebuffer(8, 6)
	tmp := NewFramebuffer(8, 6)
	boxBlur(dst, src, tmp, 2)

	for _, px := range dst.Pix {
		assert.InDelta(t, 0.3, px.R, 1e-12)
		assert.InDelta(t, 0.1, px.B, 1e-12)
	}
}

func TestBoxBlurSpreadsSpike(t *testing.T) {
	fb := NewFramebuffer(9, 9)
	fb.Set(4, 4, Pixel{R: 9})
	tmp := NewFramebuffer(9, 9)
	boxBlur(fb, fb, tmp, 1)

	assert.InDelta(t, 1.0, fb.At(4, 4).R, 1e-12)
	assert.InDelta(t, 1.0, fb.At(3, 5).R, 1e-12)
	assert.Zero(t, fb.At(2, 4).R)

	sum := 0.0
	for _, px := range fb.Pix {
		sum += px.R
	}
	assert.InDelta(t, 9.0, sum, 1e-9)
}

func TestBrightPass(t *testing.T) {
	src := NewFramebuffer(2, 1)
	src.Set(0, 0, Pixel{0.2, 0.2, 0.2})
	src.Set(1, 0, Pixel{1, 1, 1})
	dst := NewFramebuffer(2, 1)
	brightPass(dst, src, 0.5)

	assert.Equal(t, Pixel{}, dst.At(0, 0))
	assert.InDelta(t, 0.5, dst.At(1, 0).R, 1e-12)
}

func TestScanlinesOnlyDarken(t *testing.T) {
	fb := NewFramebuffer(3, 8)
	fb.Fill(Pixel{1, 1, 1})
	scanlines(fb, 0.5, 0.4, 0.85)

	darkest := 1.0
	for _, px := range fb.Pix {
		assert.LessOrEqual(t, px.R, 1.0)
		darkest = min(darkest, px.R)
	}
	assert.InDelta(t, 0.6, darkest, 1e-9)
	assert.InDelta(t, 0.8, fb.At(0, 0).R, 1e-12)
}

func TestScanlinesOpacityIsCapped(t *testing.T) {
	fb := NewFramebuffer(1, 4)
	fb.Fill(Pixel{1, 1, 1})
	scanlines(fb, 0.5, 20*scanlineOpacity, scanlineMax)
	for _, px := range fb.Pix {
		assert.GreaterOrEqual(t, px.R, 1-scanlineMax-1e-12)
	}
}

func TestCompositorWithoutPassesMatchesDirect(t *testing.T) {
	p := scene.NewParameters(rand.New(rand.NewSource(3)))
	p.Lattice.Points = nil
	raster := NewRasterizer(p)

	direct := &capture{}
	d := NewDirectRenderer(raster, &p.Camera, 32, 16, direct)
	d.Clear()
	require.NoError(t, d.Render())

	composed := &capture{}
	c := NewCompositor(raster, &p.Camera, 32, 16, composed)
	c.SetBlur(0, 0)
	c.SetBloom(1e9, 0)
	c.SetScanlines(1, 0)
	require.NoError(t, c.Render())

	require.Equal(t, 1, composed.calls)
	require.Len(t, composed.last, len(direct.last))
	for i := range direct.last {
		assert.InDelta(t, direct.last[i].R, composed.last[i].R, 1e-12)
		assert.InDelta(t, direct.last[i].G, composed.last[i].G, 1e-12)
	}
}

func TestCompositorBloomBrightens(t *testing.T) {
	p := singlePointScene()
	raster := NewRasterizer(p)
	out := &capture{}
	c := NewCompositor(raster, &p.Camera, 40, 20, out)
	c.SetBlur(0, 0)
	c.SetScanlines(1, 0)

	c.SetBloom(1e9, 1)
	require.NoError(t, c.Render())
	plain := out.last[10*40+21]

	c.SetBloom(0.0001, 20)
	require.NoError(t, c.Render())
	assert.Greater(t, out.last[10*40+21].R, plain.R)
}

func TestCompositorPresentErrorIsWrapped(t *testing.T) {
	p := singlePointScene()
	boom := errors.New("terminal gone")
	c := NewCompositor(NewRasterizer(p), &p.Camera, 4, 4, &capture{err: boom})
	err := c.Render()
	assert.True(t, eris.Is(err, boom))
}

func TestDirectClearResetsToBackground(t *testing.T) {
	p := singlePointScene()
	raster := NewRasterizer(p)
	out := &capture{}
	d := NewDirectRenderer(raster, &p.Camera, 4, 4, out)
	d.Clear()
	p.Core.Points = nil
	require.NoError(t, d.Render())
	for _, px := range out.last {
		assert.Equal(t, raster.Background(), px)
	}
}

func TestMultiViewAngles(t *testing.T) {
	p := singlePointScene()
	mv := NewMultiView(NewRasterizer(p), &p.Camera, MultiViewOptions{Views: 5, ViewWidth: 8, ViewHeight: 4}, &capture{})

	assert.InDelta(t, -DefaultViewCone/2, mv.ViewAngle(0), 1e-12)
	assert.InDelta(t, 0, mv.ViewAngle(2), 1e-12)
	assert.InDelta(t, DefaultViewCone/2, mv.ViewAngle(4), 1e-12)

	left, right := mv.ViewCamera(0), mv.ViewCamera(4)
	assert.InDelta(t, 100, left.Position.Len(), 1e-9)
	assert.InDelta(t, -left.Position.X, right.Position.X, 1e-9)
	assert.Equal(t, p.Camera.Target, left.Target)
}

func TestMultiViewSingleView(t *testing.T) {
	p := singlePointScene()
	mv := NewMultiView(NewRasterizer(p), &p.Camera, MultiViewOptions{}, &capture{})
	assert.Equal(t, 1, mv.Views())
	assert.Zero(t, mv.ViewAngle(0))
}

func TestMultiViewPresentsQuilt(t *testing.T) {
	p := singlePointScene()
	out := &capture{}
	mv := NewMultiView(NewRasterizer(p), &p.Camera, MultiViewOptions{Views: 3, ViewWidth: 10, ViewHeight: 6}, out)
	require.NoError(t, mv.Render())

	assert.Equal(t, 1, out.calls)
	assert.Equal(t, 30, out.w)
	assert.Equal(t, 6, out.h)

	// every view is aimed at the point, so each tile has it at its centre
	fb := &Framebuffer{Width: out.w, Height: out.h, Pix: out.last}
	bg := NewRasterizer(p).Background().Luminance()
	for _, cx := range []int{5, 15, 25} {
		assert.Greater(t, fb.At(cx, 3).Luminance(), bg)
		assert.InDelta(t, bg, fb.At(cx+2, 3).Luminance(), 1e-12)
	}
}

func TestFramebufferBlitClips(t *testing.T) {
	dst := NewFramebuffer(3, 3)
	src := NewFramebuffer(2, 2)
	src.Fill(Pixel{R: 1})
	dst.Blit(src, 2, 2)

	assert.Equal(t, Pixel{R: 1}, dst.At(2, 2))
	assert.Equal(t, Pixel{}, dst.At(1, 1))
}

func TestFramebufferResizeReusesStorage(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	backing := &fb.Pix[0]
	fb.Resize(2, 3)
	assert.Len(t, fb.Pix, 6)
	assert.Same(t, backing, &fb.Pix[0])

	fb.Resize(0, -1)
	assert.Equal(t, 1, fb.Width)
	assert.Equal(t, 1, fb.Height)
}
