package scene

import (
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/environment"
	"github.com/df07/go-rtrace/pkg/material"
	"github.com/df07/go-rtrace/pkg/renderer"
)

// Preset describes a built-in scene
type Preset struct {
	ID          string
	Name        string
	Description string
	build       func(b *Builder) error
}

var presets = map[string]Preset{
	"default": {
		ID:          "default",
		Name:        "Default Scene",
		Description: "Fuzzy metal sphere resting on a wide blue metal slab",
		build:       buildDefault,
	},
	"showcase": {
		ID:          "showcase",
		Name:        "Showcase",
		Description: "Three spheres on a ground sphere under a violet sunset sky",
		build:       buildShowcase,
	},
	"textures": {
		ID:          "textures",
		Name:        "Textures",
		Description: "Image-mapped spheres and cube using the named texture assets",
		build:       buildTextures,
	},
}

// PresetIDs returns the built-in scene ids in sorted order
func PresetIDs() []string {
	ids := make([]string, 0, len(presets))
	for id := range presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LookupPreset returns the built-in scene with the given id
func LookupPreset(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}

// NewPreset builds and freezes the built-in scene with the given id
func NewPreset(id string, resolver material.TextureResolver, logger *slog.Logger) (*Scene, error) {
	p, ok := presets[id]
	if !ok {
		return nil, errors.Errorf("unknown scene preset %q", id)
	}
	b := NewBuilder(resolver, logger)
	b.SetName(p.Name)
	if err := p.build(b); err != nil {
		return nil, errors.Wrapf(err, "building preset %q", id)
	}
	return b.Freeze(), nil
}

func buildDefault(b *Builder) error {
	ball, err := b.Metal(material.DefaultMetalColor, 0.5)
	if err != nil {
		return err
	}
	if err := b.AddSphere(core.NewVec3(0, 0, 0), 0.5, ball); err != nil {
		return err
	}

	slab, err := b.Metal(core.NewVec3(0.3, 0.5, 0.7), 0)
	if err != nil {
		return err
	}
	if err := b.AddCube(core.NewVec3(0, -1, 0), core.NewVec3(200, 1, 100), slab); err != nil {
		return err
	}

	b.SetCameraCenter(core.NewVec3(0, 0.1, 3))
	b.SetCameraTarget(core.NewVec3(0, 0, 0))
	return b.SetCameraFov(40)
}

func buildShowcase(b *Builder) error {
	if err := b.AddSphere(core.NewVec3(0, -100.5, -1), 100, b.DefaultMaterial(GroundColor)); err != nil {
		return err
	}

	mirror, err := b.Metal(core.NewVec3(0.9, 0.9, 0.9), 0)
	if err != nil {
		return err
	}
	gray, err := b.Metal(material.DefaultMetalColor, 0.2)
	if err != nil {
		return err
	}
	spheres := []struct {
		center core.Vec3
		mat    *material.Material
	}{
		{core.NewVec3(1, 0, -1.75), mirror},
		{core.NewVec3(0, 0, -1), b.DefaultMaterial(core.NewVec3(0.8, 0.3, 0.3))},
		{core.NewVec3(-1.2, 0, -1), gray},
	}
	for _, s := range spheres {
		if err := b.AddSphere(s.center, 0.5, s.mat); err != nil {
			return err
		}
	}

	b.SetSkybox(environment.NewGradient(core.NewVec3(0.7, 0.5, 1), core.NewVec3(0.9, 0.5, 0.4)))
	if err := b.SetCamera(renderer.CameraConfig{
		Center: core.NewVec3(0, 0, 1.5),
		LookAt: core.NewVec3(0, 0, -1),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   60,
	}); err != nil {
		return err
	}

	config := renderer.DefaultRenderConfig()
	config.Width = 1024
	config.Height = 576
	config.SamplesPerPixel = 16
	config.MaxDepth = 64
	return b.SetRender(config)
}

func buildTextures(b *Builder) error {
	if err := b.UseGround(nil); err != nil {
		return err
	}
	if err := b.AddSphere(core.NewVec3(-1.1, 0, -1), 0.5, b.Image("earth")); err != nil {
		return err
	}
	if err := b.AddCube(core.NewVec3(0, 0, -1), core.NewVec3(0.8, 0.8, 0.8), b.Image("checkerboard")); err != nil {
		return err
	}
	if err := b.AddSphere(core.NewVec3(1.1, 0, -1), 0.5, b.Image("sun")); err != nil {
		return err
	}

	b.SetCameraCenter(core.NewVec3(0, 0.6, 1.5))
	b.SetCameraTarget(core.NewVec3(0, 0, -1))
	return b.SetCameraFov(60)
}
