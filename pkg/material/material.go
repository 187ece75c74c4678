package material

import (
	"fmt"
	"log/slog"

	"github.com/df07/go-rtrace/pkg/core"
)

// Kind identifies which scattering rule a Material uses
type Kind int

const (
	KindDefault Kind = iota // Diffuse with a constant albedo
	KindMetal               // Mirror reflection perturbed by fuzz
	KindImage               // Diffuse with albedo read from a texture
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindMetal:
		return "metal"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Material is a closed set of surface types. Build one with NewDefault, NewMetal or NewImage.
// A Material is immutable after construction and safe for concurrent use.
type Material struct {
	kind    Kind
	albedo  core.Vec3 // Default albedo or metal color
	fuzz    float64
	texture *TextureHandle
}

// DefaultAlbedo is the albedo of a diffuse material built without a color
var DefaultAlbedo = core.NewVec3(1, 1, 1)

// DefaultMetalColor is the color of a metal material built without a color
var DefaultMetalColor = core.NewVec3(0.5, 0.5, 0.5)

// NewDefault creates a diffuse material
func NewDefault(albedo core.Vec3) *Material {
	return &Material{kind: KindDefault, albedo: albedo}
}

// NewMetal creates a metallic material. Fuzz outside [0, 1] is rejected.
func NewMetal(color core.Vec3, fuzz float64) (*Material, error) {
	if !(fuzz >= 0 && fuzz <= 1) {
		return nil, core.NewConfigurationError("Material.metal", "fuzz", fuzz, "must be within [0, 1]")
	}
	return &Material{kind: KindMetal, albedo: color, fuzz: fuzz}, nil
}

// NewImage creates a texture-mapped diffuse material. The texture is resolved on first lookup.
func NewImage(name string, resolver TextureResolver, logger *slog.Logger) *Material {
	return &Material{kind: KindImage, texture: NewTextureHandle(name, resolver, logger)}
}

// Kind returns the scattering rule of the material
func (m *Material) Kind() Kind { return m.kind }

// Albedo returns the diffuse albedo or metal color
func (m *Material) Albedo() core.Vec3 { return m.albedo }

// Fuzz returns the metal roughness
func (m *Material) Fuzz() float64 { return m.fuzz }

// Texture returns the lazily resolved texture of an image material, or nil
func (m *Material) Texture() *TextureHandle { return m.texture }

// Scatter computes the outgoing ray and attenuation for a hit.
// It returns false when the ray is absorbed. An error means the material
// could not be evaluated (for example a missing texture) and the caller
// should substitute its error color.
func (m *Material) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool, error) {
	switch m.kind {
	case KindDefault:
		return diffuse(rayIn, hit, sampler, m.albedo), true, nil

	case KindMetal:
		reflected := Reflect(rayIn.Direction.Normalize(), hit.Normal)
		if m.fuzz > 0 {
			reflected = reflected.Add(core.RandomInUnitSphere(sampler).Multiply(m.fuzz))
		}
		if reflected.Dot(hit.Normal) <= 0 {
			return ScatterResult{}, false, nil
		}
		return ScatterResult{
			Incoming:    rayIn,
			Scattered:   core.NewRay(hit.Point, reflected),
			Attenuation: m.albedo,
		}, true, nil

	case KindImage:
		color, err := m.texture.Lookup(hit.UV)
		if err != nil {
			return ScatterResult{}, false, err
		}
		return diffuse(rayIn, hit, sampler, color.Clamp(0, 1)), true, nil

	default:
		panic(fmt.Sprintf("material: unknown kind %v", m.kind))
	}
}

// diffuse scatters around the normal with a Lambertian distribution
func diffuse(rayIn core.Ray, hit HitRecord, sampler core.Sampler, albedo core.Vec3) ScatterResult {
	direction := hit.Normal.Add(core.RandomUnitVector(sampler))
	if direction.NearZero() {
		direction = hit.Normal
	}
	return ScatterResult{
		Incoming:    rayIn,
		Scattered:   core.NewRay(hit.Point, direction),
		Attenuation: albedo,
	}
}

// Reflect calculates the reflection of a vector v off a surface with normal n
func Reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}
