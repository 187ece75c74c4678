package scene

import (
	"log/slog"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/environment"
	"github.com/df07/go-rtrace/pkg/geometry"
	"github.com/df07/go-rtrace/pkg/material"
	"github.com/df07/go-rtrace/pkg/renderer"
)

// Scene is a frozen set of primitives together with the skybox, camera and render
// settings chosen while authoring. It is never modified after Freeze, so any number
// of render workers may read it concurrently.
type Scene struct {
	name         string
	primitives   *geometry.List
	skybox       *environment.Skybox
	cameraConfig renderer.CameraConfig
	renderConfig renderer.RenderConfig
}

// Name returns the scene name (empty for anonymous scenes)
func (s *Scene) Name() string { return s.name }

// Primitives returns the primitives in insertion order
func (s *Scene) Primitives() []geometry.Primitive { return s.primitives.Primitives() }

// GetPrimitiveCount returns the number of primitives in the scene
func (s *Scene) GetPrimitiveCount() int { return s.primitives.Len() }

// Skybox returns the background used for rays that miss every primitive
func (s *Scene) Skybox() *environment.Skybox { return s.skybox }

// CameraConfig returns the camera chosen while authoring
func (s *Scene) CameraConfig() renderer.CameraConfig { return s.cameraConfig }

// RenderConfig returns the render settings chosen while authoring
func (s *Scene) RenderConfig() renderer.RenderConfig { return s.renderConfig }

// Intersect finds the nearest primitive hit by the ray
func (s *Scene) Intersect(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return s.primitives.Intersect(ray, tMin, tMax)
}

// Background returns the skybox color for a ray direction
func (s *Scene) Background(direction core.Vec3) (core.Vec3, error) {
	return s.skybox.Color(direction)
}

// Bounds returns the box enclosing all primitives, false for an empty scene
func (s *Scene) Bounds() (geometry.AABB, bool) {
	return s.primitives.Bounds()
}

// NewRenderer creates a renderer for this scene using its own camera and render settings
func (s *Scene) NewRenderer(logger *slog.Logger) (*renderer.Renderer, error) {
	return s.NewRendererWithConfig(s.renderConfig, logger)
}

// NewRendererWithConfig creates a renderer for this scene with overridden render settings
func (s *Scene) NewRendererWithConfig(config renderer.RenderConfig, logger *slog.Logger) (*renderer.Renderer, error) {
	return renderer.NewRenderer(s, s.cameraConfig, config, logger)
}
