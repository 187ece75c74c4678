package geometry

import (
	"math"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/material"
)

// parallelEpsilon is the direction component below which a ray is treated as parallel to a slab
const parallelEpsilon = 1e-8

// hitCube intersects an axis-aligned cube with the slab method.
// The face hit is the slab whose entry is latest; a ray starting inside the cube
// leaves through the slab whose exit is earliest.
func hitCube(center, halfExtents core.Vec3, ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	lo := center.Subtract(halfExtents)
	hi := center.Add(halfExtents)

	tEnter, tExit := math.Inf(-1), math.Inf(1)
	enterAxis, exitAxis := -1, -1

	for axis := 0; axis < 3; axis++ {
		origin, direction := ray.Origin.Axis(axis), ray.Direction.Axis(axis)
		slabLo, slabHi := lo.Axis(axis), hi.Axis(axis)

		if math.Abs(direction) < parallelEpsilon {
			if origin < slabLo || origin > slabHi {
				return nil, false
			}
			continue
		}

		t1 := (slabLo - origin) / direction
		t2 := (slabHi - origin) / direction
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter, enterAxis = t1, axis
		}
		if t2 < tExit {
			tExit, exitAxis = t2, axis
		}
		if tEnter > tExit {
			return nil, false
		}
	}
	if enterAxis < 0 {
		// Zero-length direction
		return nil, false
	}

	t, axis, sign := tEnter, enterAxis, -1.0
	if t < tMin {
		t, axis, sign = tExit, exitAxis, 1.0
	}
	if t < tMin || t > tMax {
		return nil, false
	}
	if ray.Direction.Axis(axis) < 0 {
		sign = -sign
	}

	var outwardNormal core.Vec3
	switch axis {
	case 0:
		outwardNormal = core.NewVec3(sign, 0, 0)
	case 1:
		outwardNormal = core.NewVec3(0, sign, 0)
	default:
		outwardNormal = core.NewVec3(0, 0, sign)
	}

	hit := &material.HitRecord{
		T:     t,
		Point: ray.At(t),
	}
	hit.SetFaceNormal(ray, outwardNormal)
	hit.UV = cubeFaceUV(hit.Point, lo, hi, axis)

	return hit, true
}

// cubeFaceUV projects the hit point onto the face plane and normalizes it by the face size.
// X faces use (z, y), Y faces use (x, z), Z faces use (x, y).
func cubeFaceUV(p, lo, hi core.Vec3, axis int) core.Vec2 {
	size := hi.Subtract(lo)
	rel := core.NewVec3(
		clamp01((p.X-lo.X)/size.X),
		clamp01((p.Y-lo.Y)/size.Y),
		clamp01((p.Z-lo.Z)/size.Z),
	)
	switch axis {
	case 0:
		return core.NewVec2(rel.Z, rel.Y)
	case 1:
		return core.NewVec2(rel.X, rel.Z)
	default:
		return core.NewVec2(rel.X, rel.Y)
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
