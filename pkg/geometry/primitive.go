package geometry

import (
	"fmt"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/material"
)

// Shape identifies the kind of a Primitive
type Shape int

const (
	ShapeSphere Shape = iota
	ShapeCube
)

func (s Shape) String() string {
	switch s {
	case ShapeSphere:
		return "sphere"
	case ShapeCube:
		return "cube"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Primitive is a closed set of shapes that can be hit by rays.
// Primitives are immutable once built and safe to share between workers.
type Primitive struct {
	shape       Shape
	center      core.Vec3
	radius      float64   // Sphere only
	halfExtents core.Vec3 // Cube only
	material    *material.Material
}

// NewSphere creates a sphere. The radius must be positive.
func NewSphere(center core.Vec3, radius float64, mat *material.Material) (Primitive, error) {
	if !(radius > 0) {
		return Primitive{}, core.NewConfigurationError("sphere", "radius", radius, "must be positive")
	}
	return Primitive{shape: ShapeSphere, center: center, radius: radius, material: mat}, nil
}

// NewCube creates an axis-aligned cube from its center and half-extents.
// Every half-extent must be positive.
func NewCube(center, halfExtents core.Vec3, mat *material.Material) (Primitive, error) {
	if !(halfExtents.X > 0 && halfExtents.Y > 0 && halfExtents.Z > 0) {
		return Primitive{}, core.NewConfigurationError("cube", "half-extents", halfExtents, "every component must be positive")
	}
	return Primitive{shape: ShapeCube, center: center, halfExtents: halfExtents, material: mat}, nil
}

// Shape returns the kind of primitive
func (p Primitive) Shape() Shape { return p.shape }

// Center returns the primitive center
func (p Primitive) Center() core.Vec3 { return p.center }

// Radius returns the sphere radius, zero for other shapes
func (p Primitive) Radius() float64 { return p.radius }

// HalfExtents returns the cube half-extents, zero for other shapes
func (p Primitive) HalfExtents() core.Vec3 { return p.halfExtents }

// Material returns the material shared by every hit on this primitive
func (p Primitive) Material() *material.Material { return p.material }

// Intersect tests the ray against the primitive within [tMin, tMax]
func (p Primitive) Intersect(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var (
		hit *material.HitRecord
		ok  bool
	)
	switch p.shape {
	case ShapeSphere:
		hit, ok = hitSphere(p.center, p.radius, ray, tMin, tMax)
	case ShapeCube:
		hit, ok = hitCube(p.center, p.halfExtents, ray, tMin, tMax)
	default:
		panic(fmt.Sprintf("geometry: unknown shape %v", p.shape))
	}
	if !ok {
		return nil, false
	}
	hit.Material = p.material
	return hit, true
}

// Bounds returns the axis-aligned bounding box of the primitive
func (p Primitive) Bounds() AABB {
	switch p.shape {
	case ShapeSphere:
		r := core.NewVec3(p.radius, p.radius, p.radius)
		return NewAABB(p.center.Subtract(r), p.center.Add(r))
	case ShapeCube:
		return NewAABB(p.center.Subtract(p.halfExtents), p.center.Add(p.halfExtents))
	default:
		panic(fmt.Sprintf("geometry: unknown shape %v", p.shape))
	}
}
