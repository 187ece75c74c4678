package renderer

import (
	"context"
	"fmt"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/integrator"
)

// TileRenderer computes the pixels of individual tiles
type TileRenderer struct {
	scene      integrator.Scene
	integrator integrator.Integrator
	camera     *Camera
	config     RenderConfig
}

// NewTileRenderer creates a new tile renderer with the given scene and integrator
func NewTileRenderer(scene integrator.Scene, integratorInst integrator.Integrator, camera *Camera, config RenderConfig) *TileRenderer {
	return &TileRenderer{
		scene:      scene,
		integrator: integratorInst,
		camera:     camera,
		config:     config,
	}
}

// RenderTile writes every pixel of the tile into fb. Cancellation is checked before each pixel;
// a cancelled tile reports ctx.Err() and leaves its remaining pixels unwritten.
func (tr *TileRenderer) RenderTile(ctx context.Context, fb *FrameBuffer, tile *Tile) (TileStats, error) {
	var stats TileStats
	bounds := tile.Bounds

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			color, err := tr.RenderPixel(tile.ID, i, j)
			if err != nil {
				if stats.Faults == 0 {
					stats.FirstFault = err
					stats.FaultedPixel = [2]int{i, j}
				}
				stats.Faults++
				color = ErrorColor
			}
			fb.Set(i, j, ColorToRGBA(color))
			stats.Pixels++
			stats.Samples += tr.config.SamplesPerPixel
		}
	}

	return stats, nil
}

// RenderPixel averages SamplesPerPixel camera rays through pixel (i, j).
// A panic during the computation, or a NaN or infinite average, is returned as an error.
func (tr *TileRenderer) RenderPixel(tileID, i, j int) (color core.Vec3, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pixel (%d, %d): %v", i, j, r)
		}
	}()

	pixelIndex := uint64(j*tr.camera.Width() + i)
	sampler := core.NewSeededSampler(tr.config.Seed, uint64(tileID), pixelIndex)

	samples := tr.config.SamplesPerPixel
	var sum core.Vec3
	for s := 0; s < samples; s++ {
		// A single sample goes through the pixel center
		var offset core.Vec2
		if samples > 1 {
			jitter := sampler.Get2D()
			offset = core.NewVec2(jitter.X-0.5, jitter.Y-0.5)
		}

		ray := tr.camera.GetRay(i, j, offset, sampler)
		c, err := tr.integrator.RayColor(ray, tr.scene, sampler, tr.config.MaxDepth+1)
		if err != nil {
			return core.Vec3{}, err
		}
		sum = sum.Add(c)
	}

	color = sum.Multiply(1.0 / float64(samples))
	if !color.IsFinite() {
		return core.Vec3{}, fmt.Errorf("pixel (%d, %d): non-finite color %v", i, j, color)
	}
	return color, nil
}
