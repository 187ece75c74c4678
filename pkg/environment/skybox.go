package environment

import (
	"fmt"
	"math"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/material"
)

// Kind identifies how a Skybox colors escaping rays
type Kind int

const (
	KindGradient Kind = iota // Vertical blend between two colors
	KindSolid                // One color in every direction
	KindEquirect             // Equirectangular texture lookup
)

func (k Kind) String() string {
	switch k {
	case KindGradient:
		return "gradient"
	case KindSolid:
		return "solid"
	case KindEquirect:
		return "equirect"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Default gradient colors
var (
	DefaultUpper = core.NewVec3(0.7, 0.5, 1.0)
	DefaultLower = core.NewVec3(1.0, 1.0, 1.0)
)

// Skybox is the background color source for rays that miss every primitive.
// The zero value is not usable; use one of the constructors.
type Skybox struct {
	kind    Kind
	upper   core.Vec3 // Gradient top, or the solid color
	lower   core.Vec3 // Gradient bottom
	texture *material.TextureHandle
	offsetU float64 // Horizontal rotation as a fraction of a turn
	offsetV float64 // Vertical shift as a fraction of the half turn
	scale   float64 // Intensity multiplier for textured skies
}

// NewGradient blends from lower (straight down) to upper (straight up)
func NewGradient(upper, lower core.Vec3) *Skybox {
	return &Skybox{kind: KindGradient, upper: upper, lower: lower}
}

// NewDefaultGradient returns the gradient used when nothing else is configured
func NewDefaultGradient() *Skybox {
	return NewGradient(DefaultUpper, DefaultLower)
}

// NewSolid returns the same color for every direction
func NewSolid(color core.Vec3) *Skybox {
	return &Skybox{kind: KindSolid, upper: color}
}

// NewEquirect maps directions onto an equirectangular texture.
// Offsets are in degrees; multiplier scales the looked-up color.
func NewEquirect(texture *material.TextureHandle, offsetXDeg, offsetYDeg, multiplier float64) *Skybox {
	return &Skybox{
		kind:    KindEquirect,
		texture: texture,
		offsetU: offsetXDeg / 360.0,
		offsetV: offsetYDeg / 180.0,
		scale:   multiplier,
	}
}

// Kind returns how the skybox colors rays
func (s *Skybox) Kind() Kind { return s.kind }

// Color returns the background color seen along direction.
// Only textured skies can fail, with the texture's *core.ResourceError.
func (s *Skybox) Color(direction core.Vec3) (core.Vec3, error) {
	unit := direction.Normalize()
	switch s.kind {
	case KindGradient:
		t := 0.5 * (unit.Y + 1.0) // Map Y from [-1,1] to [0,1]
		return s.lower.Lerp(s.upper, t), nil

	case KindSolid:
		return s.upper, nil

	case KindEquirect:
		color, err := s.texture.Lookup(s.equirectUV(unit))
		if err != nil {
			return core.Vec3{}, err
		}
		return color.Multiply(s.scale), nil

	default:
		panic(fmt.Sprintf("environment: unknown skybox kind %v", s.kind))
	}
}

// equirectUV maps a unit direction to (longitude, latitude) texture coordinates
func (s *Skybox) equirectUV(unit core.Vec3) core.Vec2 {
	phi := math.Atan2(unit.Z, unit.X)
	theta := math.Asin(math.Max(-1, math.Min(1, unit.Y)))
	u := (phi+math.Pi)/(2*math.Pi) + s.offsetU
	v := (theta+math.Pi/2)/math.Pi + s.offsetV
	return core.NewVec2(u, v)
}
