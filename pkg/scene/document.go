package scene

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/environment"
	"github.com/df07/go-rtrace/pkg/material"
)

// Vector is a YAML triple such as [0, 1, 2]
type Vector [3]float64

// Vec3 converts the triple to a vector
func (v Vector) Vec3() core.Vec3 { return core.NewVec3(v[0], v[1], v[2]) }

// Document is the YAML form of a scene. Every primitive is added through the
// Builder, so a document is rejected with the same errors as the equivalent calls.
type Document struct {
	Name       string              `yaml:"name"`
	Camera     *CameraDocument     `yaml:"camera"`
	Render     *RenderDocument     `yaml:"render"`
	Skybox     *SkyboxDocument     `yaml:"skybox"`
	Ground     *GroundDocument     `yaml:"ground"`
	Primitives []PrimitiveDocument `yaml:"primitives"`
}

// CameraDocument overrides camera settings; absent fields keep their defaults
type CameraDocument struct {
	Center        *Vector  `yaml:"center"`
	Target        *Vector  `yaml:"target"`
	Up            *Vector  `yaml:"up"`
	Fov           *float64 `yaml:"fov"`
	DefocusAngle  float64  `yaml:"defocus_angle"`
	FocusDistance float64  `yaml:"focus_distance"`
}

// RenderDocument overrides render settings; zero fields keep their defaults
type RenderDocument struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Aspect   float64 `yaml:"aspect"` // Width / height, used when height is absent
	Samples  int     `yaml:"samples"`
	Depth    *int    `yaml:"depth"`
	TileSize int     `yaml:"tile_size"`
	Seed     uint64  `yaml:"seed"`
}

// SkyboxDocument selects the background: "gradient", "solid" or "texture"
type SkyboxDocument struct {
	Type       string     `yaml:"type"`
	Upper      *Vector    `yaml:"upper"`
	Lower      *Vector    `yaml:"lower"`
	Color      *Vector    `yaml:"color"`
	Texture    string     `yaml:"texture"`
	Offset     [2]float64 `yaml:"offset"` // Degrees along x and y
	Multiplier *float64   `yaml:"multiplier"`
}

// GroundDocument adds the ground sphere, optionally with its own material
type GroundDocument struct {
	Material *MaterialDocument `yaml:"material"`
}

// PrimitiveDocument is one sphere or cube
type PrimitiveDocument struct {
	Type      string            `yaml:"type"`
	Center    Vector            `yaml:"center"`
	Radius    float64           `yaml:"radius"`
	Dimension *Vector           `yaml:"dimension"`
	Material  *MaterialDocument `yaml:"material"`
}

// MaterialDocument is one of "default", "metal" or "image"
type MaterialDocument struct {
	Type    string  `yaml:"type"`
	Albedo  *Vector `yaml:"albedo"`
	Color   *Vector `yaml:"color"`
	Fuzz    float64 `yaml:"fuzz"`
	Texture string  `yaml:"texture"`
}

// ParseDocument decodes a YAML scene document. Unknown keys are rejected.
func ParseDocument(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, errors.Wrap(err, "decoding scene document")
	}
	return &doc, nil
}

// LoadDocument decodes a YAML scene document and builds it
func LoadDocument(r io.Reader, resolver material.TextureResolver, logger *slog.Logger) (*Scene, error) {
	doc, err := ParseDocument(r)
	if err != nil {
		return nil, err
	}
	return doc.Build(resolver, logger)
}

// LoadDocumentFile reads and builds the YAML scene document at path
func LoadDocumentFile(path string, resolver material.TextureResolver, logger *slog.Logger) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scene %s", path)
	}
	s, err := LoadDocument(bytes.NewReader(data), resolver, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "loading scene %s", path)
	}
	return s, nil
}

// Build runs the document through a Builder and freezes the result
func (d *Document) Build(resolver material.TextureResolver, logger *slog.Logger) (*Scene, error) {
	b := NewBuilder(resolver, logger)
	b.SetName(d.Name)

	if d.Camera != nil {
		if err := d.Camera.apply(b); err != nil {
			return nil, err
		}
	}
	if d.Render != nil {
		if err := d.Render.apply(b); err != nil {
			return nil, err
		}
	}
	if d.Skybox != nil {
		if err := d.Skybox.apply(b); err != nil {
			return nil, err
		}
	}
	if d.Ground != nil {
		mat, err := d.Ground.Material.build(b)
		if err != nil {
			return nil, errors.Wrap(err, "ground")
		}
		if err := b.UseGround(mat); err != nil {
			return nil, errors.Wrap(err, "ground")
		}
	}
	for i, p := range d.Primitives {
		if err := p.add(b); err != nil {
			return nil, errors.Wrapf(err, "primitive %d", i)
		}
	}

	return b.Freeze(), nil
}

func (c *CameraDocument) apply(b *Builder) error {
	config := b.cameraConfig
	if c.Center != nil {
		config.Center = c.Center.Vec3()
	}
	if c.Target != nil {
		config.LookAt = c.Target.Vec3()
	}
	if c.Up != nil {
		config.Up = c.Up.Vec3()
	}
	if c.Fov != nil {
		config.VFov = *c.Fov
	}
	config.DefocusAngle = c.DefocusAngle
	config.FocusDistance = c.FocusDistance
	return errors.Wrap(b.SetCamera(config), "camera")
}

func (r *RenderDocument) apply(b *Builder) error {
	config := b.renderConfig
	if r.Width > 0 {
		config.Width = r.Width
	}
	switch {
	case r.Height > 0:
		config.Height = r.Height
	case r.Aspect > 0:
		config.Height = max(1, int(float64(config.Width)/r.Aspect))
	case r.Width > 0:
		config.Height = max(1, config.Width*9/16)
	}
	if r.Samples > 0 {
		config.SamplesPerPixel = r.Samples
	}
	if r.Depth != nil {
		config.MaxDepth = *r.Depth
	}
	if r.TileSize > 0 {
		config.TileSize = r.TileSize
	}
	config.Seed = r.Seed
	return errors.Wrap(b.SetRender(config), "render")
}

func (s *SkyboxDocument) apply(b *Builder) error {
	switch strings.ToLower(s.Type) {
	case "", "gradient":
		upper, lower := environment.DefaultUpper, environment.DefaultLower
		if s.Upper != nil {
			upper = s.Upper.Vec3()
		}
		if s.Lower != nil {
			lower = s.Lower.Vec3()
		}
		b.SetSkybox(environment.NewGradient(upper, lower))
	case "solid":
		if s.Color == nil {
			return core.NewConfigurationError("set_skybox", "color", nil, "solid skybox needs a color")
		}
		b.SetSkybox(environment.NewSolid(s.Color.Vec3()))
	case "texture":
		if s.Texture == "" {
			return core.NewConfigurationError("set_skybox", "texture", s.Texture, "texture skybox needs a texture name")
		}
		multiplier := 1.0
		if s.Multiplier != nil {
			multiplier = *s.Multiplier
		}
		b.TextureSkybox(s.Texture, s.Offset[0], s.Offset[1], multiplier)
	default:
		return core.NewConfigurationError("set_skybox", "type", s.Type, "must be gradient, solid or texture")
	}
	return nil
}

func (p PrimitiveDocument) add(b *Builder) error {
	mat, err := p.Material.build(b)
	if err != nil {
		return err
	}
	switch strings.ToLower(p.Type) {
	case "sphere":
		return b.AddSphere(p.Center.Vec3(), p.Radius, mat)
	case "cube":
		dimension := DefaultCubeDimension
		if p.Dimension != nil {
			dimension = p.Dimension.Vec3()
		}
		return b.AddCube(p.Center.Vec3(), dimension, mat)
	default:
		return core.NewConfigurationError("add_primitive", "type", p.Type, "must be sphere or cube")
	}
}

// build returns nil for an absent material so the Builder applies its default
func (m *MaterialDocument) build(b *Builder) (*material.Material, error) {
	if m == nil {
		return nil, nil
	}
	switch strings.ToLower(m.Type) {
	case "", "default":
		albedo := material.DefaultAlbedo
		if m.Albedo != nil {
			albedo = m.Albedo.Vec3()
		}
		return b.DefaultMaterial(albedo), nil
	case "metal":
		color := material.DefaultMetalColor
		if m.Color != nil {
			color = m.Color.Vec3()
		}
		return b.Metal(color, m.Fuzz)
	case "image":
		if m.Texture == "" {
			return nil, core.NewConfigurationError("Material.image", "texture", m.Texture, "must name a texture")
		}
		return b.Image(m.Texture), nil
	default:
		return nil, core.NewConfigurationError("Material", "type", m.Type, "must be default, metal or image")
	}
}
