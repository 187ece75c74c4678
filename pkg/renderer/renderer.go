package renderer

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/integrator"
)

// RenderConfig contains configuration for a render pass
type RenderConfig struct {
	Width           int    // Image width in pixels
	Height          int    // Image height in pixels
	SamplesPerPixel int    // Camera rays averaged per pixel
	MaxDepth        int    // Bounces after the primary hit; 0 leaves surfaces black
	TileSize        int    // Edge length of a square tile
	NumWorkers      int    // Number of parallel workers (0 = use CPU count)
	Seed            uint64 // Global seed; with the tile id and pixel index it fixes every random stream
}

// DefaultRenderConfig returns sensible default values
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		Width:           768,
		Height:          432, // 16:9
		SamplesPerPixel: 4,
		MaxDepth:        16,
		TileSize:        16,
		NumWorkers:      0, // Auto-detect CPU count
	}
}

// Validate checks the render parameters
func (c RenderConfig) Validate() error {
	switch {
	case c.Width <= 0:
		return core.NewConfigurationError("render", "width", c.Width, "must be positive")
	case c.Height <= 0:
		return core.NewConfigurationError("render", "height", c.Height, "must be positive")
	case c.SamplesPerPixel <= 0:
		return core.NewConfigurationError("render", "samples per pixel", c.SamplesPerPixel, "must be positive")
	case c.MaxDepth < 0:
		return core.NewConfigurationError("render", "max depth", c.MaxDepth, "must not be negative")
	case c.TileSize <= 0:
		return core.NewConfigurationError("render", "tile size", c.TileSize, "must be positive")
	case c.NumWorkers < 0:
		return core.NewConfigurationError("render", "workers", c.NumWorkers, "must not be negative")
	}
	return nil
}

// TileCompletionResult describes a finished tile for preview collaborators
type TileCompletionResult struct {
	TileX, TileY int         // Tile coordinates (not pixel coordinates)
	Bounds       image.Rectangle
	TileImage    *image.RGBA // Image data for just this tile
	Progress     Progress
}

// RenderOptions configures the callbacks of a render pass.
// Callbacks run on the dispatching goroutine, one at a time, and block the pass
// until they return. Under a Session they must not call back into the Session.
type RenderOptions struct {
	OnProgress func(Progress)
	OnTile     func(TileCompletionResult)
	// FrameBuffer receives the pixels; a fresh buffer is allocated when nil
	FrameBuffer *FrameBuffer
}

// Renderer renders one scene from one camera
type Renderer struct {
	scene        integrator.Scene
	camera       *Camera
	config       RenderConfig
	tiles        []*Tile
	tileRenderer *TileRenderer
	logger       *slog.Logger
}

// NewRenderer validates the configuration and prepares the camera and tile grid
func NewRenderer(scene integrator.Scene, cameraConfig CameraConfig, config RenderConfig, logger *slog.Logger) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	camera, err := NewCamera(cameraConfig, config.Width, config.Height)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		scene:        scene,
		camera:       camera,
		config:       config,
		tiles:        NewTileGrid(config.Width, config.Height, config.TileSize),
		tileRenderer: NewTileRenderer(scene, integrator.NewPathTracingIntegrator(), camera, config),
		logger:       core.LoggerOrDefault(logger),
	}, nil
}

// Camera returns the camera used for primary rays
func (r *Renderer) Camera() *Camera { return r.camera }

// Config returns the render configuration
func (r *Renderer) Config() RenderConfig { return r.config }

// Tiles returns the tile grid
func (r *Renderer) Tiles() []*Tile { return r.tiles }

// Render runs one pass over every tile and blocks until all workers have stopped.
// When ctx is cancelled the partial frame buffer is returned with an error wrapping
// core.ErrRenderCancelled; the buffer must not be treated as final.
func (r *Renderer) Render(ctx context.Context, opts RenderOptions) (*FrameBuffer, RenderStats, error) {
	start := time.Now()

	fb := opts.FrameBuffer
	if fb == nil {
		fb = NewFrameBuffer(r.config.Width, r.config.Height)
	}

	stats := RenderStats{
		TotalPixels: r.config.Width * r.config.Height,
		TilesTotal:  len(r.tiles),
	}

	pool := NewWorkerPool(r.config.NumWorkers, len(r.tiles), func(ctx context.Context, task TileTask) TileResult {
		tileStats, err := r.tileRenderer.RenderTile(ctx, fb, task.Tile)
		return TileResult{TaskID: task.TaskID, Stats: tileStats, Err: err}
	})
	pool.Start(ctx)

	r.logger.Debug("render started",
		"width", r.config.Width, "height", r.config.Height,
		"samples", r.config.SamplesPerPixel, "depth", r.config.MaxDepth,
		"tiles", len(r.tiles), "workers", pool.NumWorkers())

	for i, tile := range r.tiles {
		pool.Submit(TileTask{Tile: tile, TaskID: i})
	}

	// Collect every result and dispatch callbacks single-threaded
	var firstFault error
	cancelled := false
	for i := 0; i < len(r.tiles); i++ {
		result, ok := pool.Result()
		if !ok {
			break
		}
		stats.add(result.Stats)
		if result.Stats.FirstFault != nil && firstFault == nil {
			firstFault = result.Stats.FirstFault
		}
		if result.Err != nil {
			cancelled = true
			continue
		}
		stats.TilesDone++

		progress := Progress{TilesTotal: len(r.tiles), TilesDone: stats.TilesDone}
		if opts.OnTile != nil {
			tile := r.tiles[result.TaskID]
			opts.OnTile(TileCompletionResult{
				TileX:     tile.Bounds.Min.X / r.config.TileSize,
				TileY:     tile.Bounds.Min.Y / r.config.TileSize,
				Bounds:    tile.Bounds,
				TileImage: fb.TileImage(tile.Bounds),
				Progress:  progress,
			})
		}
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}
	}

	if err := pool.Stop(); err != nil {
		return fb, stats, errors.Wrap(err, "worker pool")
	}

	stats.finalize()
	stats.Duration = time.Since(start)

	if stats.FaultedPixels > 0 {
		r.logger.Warn("pixels replaced with error color",
			"count", stats.FaultedPixels, "first_error", firstFault)
	}

	if cancelled {
		r.logger.Info("render cancelled",
			"tiles_done", stats.TilesDone, "tiles_total", stats.TilesTotal)
		return fb, stats, errors.Wrapf(core.ErrRenderCancelled, "%d of %d tiles finished", stats.TilesDone, stats.TilesTotal)
	}

	r.logger.Info("render finished",
		"duration", stats.Duration, "pixels", stats.PixelsWritten,
		"samples", stats.TotalSamples)
	return fb, stats, nil
}
