package geometry

import (
	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/material"
)

// Intersector finds the nearest surface a ray hits. A spatial index can replace List
// behind this interface.
type Intersector interface {
	Intersect(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
}

// List is a linear-scan Intersector over primitives in insertion order.
// Each primitive's bounding box is tested before the primitive itself.
type List struct {
	primitives []Primitive
	boxes      []AABB
}

// boxPadding widens cached boxes so rays grazing a face are not culled
const boxPadding = 1e-7

// NewList creates a list holding the given primitives
func NewList(primitives ...Primitive) *List {
	l := &List{}
	for _, p := range primitives {
		l.Add(p)
	}
	return l
}

// Add appends a primitive
func (l *List) Add(p Primitive) {
	l.primitives = append(l.primitives, p)
	l.boxes = append(l.boxes, p.Bounds().Pad(boxPadding))
}

// Len returns the number of primitives
func (l *List) Len() int {
	return len(l.primitives)
}

// Primitives returns the primitives in insertion order
func (l *List) Primitives() []Primitive {
	return l.primitives
}

// Intersect returns the nearest hit. On exactly equal t the earlier primitive wins.
func (l *List) Intersect(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	closestT := tMax

	for i, p := range l.primitives {
		if !l.boxes[i].Hit(ray, tMin, closestT) {
			continue
		}
		hit, ok := p.Intersect(ray, tMin, closestT)
		if !ok {
			continue
		}
		if closest == nil || hit.T < closest.T {
			closest = hit
			closestT = hit.T
		}
	}

	return closest, closest != nil
}

// Bounds returns the box enclosing every primitive. It reports false for an empty list.
func (l *List) Bounds() (AABB, bool) {
	if len(l.primitives) == 0 {
		return AABB{}, false
	}
	box := l.primitives[0].Bounds()
	for _, p := range l.primitives[1:] {
		box = box.Union(p.Bounds())
	}
	return box, true
}
