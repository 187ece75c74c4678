package integrator

import (
	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/geometry"
)

// Scene is what an integrator needs from the world: surfaces to hit and a sky for rays that escape
type Scene interface {
	geometry.Intersector
	Background(direction core.Vec3) (core.Vec3, error)
}

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor estimates the radiance along ray with at most depth scattering events.
	// An error means the color could not be computed (for example a missing texture).
	RayColor(ray core.Ray, scene Scene, sampler core.Sampler, depth int) (core.Vec3, error)
}
