package integrator

import (
	"math"

	"github.com/df07/go-rtrace/pkg/core"
)

// PathTracingIntegrator implements the bounded recursive estimator:
// attenuation times the color of the scattered ray, down to the sky on a miss.
type PathTracingIntegrator struct {
	// MinT skips self-intersections just above the surface a ray leaves from
	MinT float64
}

// DefaultMinT is the ray offset used to avoid shadow acne
const DefaultMinT = 0.001

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator() *PathTracingIntegrator {
	return &PathTracingIntegrator{MinT: DefaultMinT}
}

// RayColor computes the color for a single ray using unidirectional path tracing
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, scene Scene, sampler core.Sampler, depth int) (core.Vec3, error) {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Vec3{}, nil
	}

	hit, isHit := scene.Intersect(ray, pt.MinT, math.Inf(1))
	if !isHit {
		return scene.Background(ray.Direction)
	}

	scatter, didScatter, err := hit.Material.Scatter(ray, *hit, sampler)
	if err != nil {
		return core.Vec3{}, err
	}
	if !didScatter {
		// Absorbed
		return core.Vec3{}, nil
	}

	incoming, err := pt.RayColor(scatter.Scattered, scene, sampler, depth-1)
	if err != nil {
		return core.Vec3{}, err
	}
	return scatter.Attenuation.MultiplyVec(incoming), nil
}
