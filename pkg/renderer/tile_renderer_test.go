package renderer

import (
	"context"
	"image/color"
	"math"
	"sync/atomic"
	"testing"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/environment"
	"github.com/df07/go-rtrace/pkg/integrator"
	"github.com/df07/go-rtrace/pkg/material"
)

// MockIntegrator returns a fixed color and counts calls
type MockIntegrator struct {
	returnColor core.Vec3
	callCount   atomic.Int64
	panicOn     func(ray core.Ray) bool
	lastDepth   atomic.Int64
}

func (m *MockIntegrator) RayColor(ray core.Ray, scene integrator.Scene, sampler core.Sampler, depth int) (core.Vec3, error) {
	m.callCount.Add(1)
	m.lastDepth.Store(int64(depth))
	if m.panicOn != nil && m.panicOn(ray) {
		panic("malformed lookup")
	}
	return m.returnColor, nil
}

func newTestTileRenderer(t *testing.T, integ integrator.Integrator, config RenderConfig) *TileRenderer {
	t.Helper()
	camera, err := NewCamera(frontCamera(), config.Width, config.Height)
	if err != nil {
		t.Fatal(err)
	}
	scene := newTestScene(t, environment.NewDefaultGradient())
	return NewTileRenderer(scene, integ, camera, config)
}

func smallConfig(width, height, samples int) RenderConfig {
	config := DefaultRenderConfig()
	config.Width, config.Height = width, height
	config.SamplesPerPixel = samples
	config.MaxDepth = 3
	config.TileSize = 4
	return config
}

func TestTileRendererPixelSampling(t *testing.T) {
	mock := &MockIntegrator{returnColor: core.NewVec3(0.25, 0.25, 0.25)}
	tr := newTestTileRenderer(t, mock, smallConfig(2, 2, 4))

	fb := NewFrameBuffer(2, 2)
	tile := NewTileGrid(2, 2, 4)[0]
	stats, err := tr.RenderTile(context.Background(), fb, tile)
	if err != nil {
		t.Fatal(err)
	}

	if got := mock.callCount.Load(); got != 16 {
		t.Errorf("Expected 16 integrator calls, got %d", got)
	}
	// Depth budget counts the camera ray as the first segment
	if got := mock.lastDepth.Load(); got != 4 {
		t.Errorf("Expected depth 4 for max depth 3, got %d", got)
	}
	if stats.Pixels != 4 || stats.Samples != 16 || stats.Faults != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	c, ok := fb.At(1, 1)
	if !ok || c != (color.RGBA{R: 127, G: 127, B: 127, A: 255}) {
		t.Errorf("Expected gamma-corrected gray, got %v", c)
	}
}

func TestTileRendererDeterministic(t *testing.T) {
	scene := newTestScene(t, environment.NewDefaultGradient(), unitSphere(t, material.NewDefault(core.NewVec3(0.5, 0.5, 0.5))))
	config := smallConfig(8, 8, 8)
	config.Seed = 1234
	camera, err := NewCamera(frontCamera(), 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	tr := NewTileRenderer(scene, integrator.NewPathTracingIntegrator(), camera, config)

	a, err := tr.RenderPixel(3, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := tr.RenderPixel(3, 4, 4)
	if !a.Equals(b) {
		t.Errorf("Expected identical colors for the same tile and pixel, got %v and %v", a, b)
	}
	c, _ := tr.RenderPixel(4, 4, 4)
	if a.Equals(c) {
		t.Error("Expected a different tile id to change the random stream")
	}
}

// MaxDepth counts bounces after the primary hit
func TestTileRendererMaxDepth(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.5, 0.5)
	skyColor := core.NewVec3(1, 1, 1)
	scene := newTestScene(t, environment.NewSolid(skyColor), unitSphere(t, material.NewDefault(albedo)))
	camera, err := NewCamera(frontCamera(), 16, 16)
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		depth    int
		interior core.Vec3
	}{
		{0, core.Vec3{}},
		{1, albedo.MultiplyVec(skyColor)},
	}
	for _, tc := range testCases {
		config := smallConfig(16, 16, 4)
		config.MaxDepth = tc.depth
		tr := NewTileRenderer(scene, integrator.NewPathTracingIntegrator(), camera, config)

		if c, err := tr.RenderPixel(0, 7, 7); err != nil || c.Subtract(tc.interior).Length() > 1e-9 {
			t.Errorf("depth %d: expected %v on the sphere, got %v (err %v)", tc.depth, tc.interior, c, err)
		}
		if c, _ := tr.RenderPixel(0, 0, 0); !c.Equals(skyColor) {
			t.Errorf("depth %d: expected sky %v, got %v", tc.depth, skyColor, c)
		}
	}
}

// A panic inside one pixel is replaced by the error color and the tile carries on
func TestTileRendererFaultIsolation(t *testing.T) {
	mock := &MockIntegrator{
		returnColor: core.NewVec3(1, 1, 1),
		panicOn:     func(ray core.Ray) bool { return ray.Direction.X < 0 && ray.Direction.Y > 0 },
	}
	tr := newTestTileRenderer(t, mock, smallConfig(4, 4, 1))

	fb := NewFrameBuffer(4, 4)
	stats, err := tr.RenderTile(context.Background(), fb, NewTileGrid(4, 4, 4)[0])
	if err != nil {
		t.Fatal(err)
	}
	if stats.Faults != 4 {
		t.Errorf("Expected 4 faulted pixels (upper-left quadrant), got %d", stats.Faults)
	}
	if stats.FirstFault == nil {
		t.Error("Expected first fault to be recorded")
	}
	if stats.Pixels != 16 {
		t.Errorf("Expected every pixel written, got %d", stats.Pixels)
	}

	magenta := ColorToRGBA(ErrorColor)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c, _ := fb.At(x, y)
			faulted := x < 2 && y < 2
			if faulted && c != magenta {
				t.Errorf("Expected error color at (%d,%d), got %v", x, y, c)
			}
			if !faulted && c != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
				t.Errorf("Expected white at (%d,%d), got %v", x, y, c)
			}
		}
	}
}

func TestTileRendererNonFiniteColor(t *testing.T) {
	testCases := []struct {
		name  string
		color core.Vec3
	}{
		{"NaN", core.NewVec3(math.NaN(), 0.5, 0.5)},
		{"positive infinity", core.NewVec3(0.5, math.Inf(1), 0.5)},
		{"negative infinity", core.NewVec3(0.5, 0.5, math.Inf(-1))},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &MockIntegrator{returnColor: tc.color}
			tr := newTestTileRenderer(t, mock, smallConfig(2, 2, 2))

			if _, err := tr.RenderPixel(0, 1, 1); err == nil {
				t.Fatal("Expected an error for a non-finite color")
			}

			fb := NewFrameBuffer(2, 2)
			stats, err := tr.RenderTile(context.Background(), fb, NewTileGrid(2, 2, 4)[0])
			if err != nil {
				t.Fatal(err)
			}
			if stats.Faults != 4 || stats.Pixels != 4 {
				t.Errorf("Expected 4 faulted pixels, got %+v", stats)
			}
			if c, _ := fb.At(0, 0); c != ColorToRGBA(ErrorColor) {
				t.Errorf("Expected error color, got %v", c)
			}
		})
	}
}

func TestTileRendererStopsWhenCancelled(t *testing.T) {
	mock := &MockIntegrator{returnColor: core.NewVec3(1, 1, 1)}
	tr := newTestTileRenderer(t, mock, smallConfig(4, 4, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fb := NewFrameBuffer(4, 4)
	stats, err := tr.RenderTile(ctx, fb, NewTileGrid(4, 4, 4)[0])
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if stats.Pixels != 0 || fb.Written() != 0 {
		t.Errorf("Expected no pixels written, got %d", fb.Written())
	}
}

// With a fixed seed more samples tighten the estimate without moving it
func TestSamplesConvergeToSameMean(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.5, 0.5)
	skyColor := core.NewVec3(1, 1, 1)
	// Equal gradient ends make a constant sky
	sky := environment.NewGradient(skyColor, skyColor)
	scene := newTestScene(t, sky, unitSphere(t, material.NewDefault(albedo)))
	hitColor := albedo.MultiplyVec(skyColor)

	render := func(samples, i, j int) core.Vec3 {
		config := smallConfig(16, 16, samples)
		config.Seed = 7
		camera, err := NewCamera(frontCamera(), 16, 16)
		if err != nil {
			t.Fatal(err)
		}
		tr := NewTileRenderer(scene, integrator.NewPathTracingIntegrator(), camera, config)
		c, err := tr.RenderPixel(0, i, j)
		if err != nil {
			t.Fatal(err)
		}
		return c
	}

	for _, samples := range []int{1, 4, 64} {
		// Fully inside the silhouette every path is albedo * sky
		if c := render(samples, 7, 7); c.Subtract(hitColor).Length() > 1e-9 {
			t.Errorf("spp %d: expected interior %v, got %v", samples, hitColor, c)
		}
		// Fully outside every path is the sky
		if c := render(samples, 0, 0); c.Subtract(skyColor).Length() > 1e-9 {
			t.Errorf("spp %d: expected exterior %v, got %v", samples, skyColor, c)
		}
	}

	// Pixel (14, 7) straddles the silhouette
	low := render(256, 14, 7)
	high := render(4096, 14, 7)
	if low.X < hitColor.X-1e-9 || low.X > skyColor.X+1e-9 {
		t.Errorf("Expected edge estimate between hit and sky colors, got %v", low)
	}
	if math.Abs(low.X-high.X) > 0.05 {
		t.Errorf("Expected estimates to agree, got %f (256 spp) and %f (4096 spp)", low.X, high.X)
	}
	if high.X == hitColor.X || high.X == skyColor.X {
		t.Errorf("Expected partial coverage at the edge, got %v", high)
	}
}
