package scene

import (
	"errors"
	"log/slog"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/environment"
	"github.com/df07/go-rtrace/pkg/geometry"
	"github.com/df07/go-rtrace/pkg/material"
	"github.com/df07/go-rtrace/pkg/renderer"
)

// Ground sphere added by UseGround
var (
	GroundCenter = core.NewVec3(0, -100.5, 0)
	GroundRadius = 100.0
	GroundColor  = core.NewVec3(0.5, 0.5, 0.5)
)

// DefaultCubeDimension is the edge lengths used when a cube is added without a size
var DefaultCubeDimension = core.NewVec3(0.5, 0.5, 0.5)

// Builder collects authoring calls. A rejected call leaves the builder unchanged.
type Builder struct {
	name         string
	resolver     material.TextureResolver
	logger       *slog.Logger
	primitives   []geometry.Primitive
	skybox       *environment.Skybox
	cameraConfig renderer.CameraConfig
	renderConfig renderer.RenderConfig
}

// NewBuilder creates an empty scene with the default gradient skybox, camera and render settings.
// The resolver supplies image textures for Image materials and texture skyboxes.
func NewBuilder(resolver material.TextureResolver, logger *slog.Logger) *Builder {
	return &Builder{
		resolver:     resolver,
		logger:       core.LoggerOrDefault(logger),
		skybox:       environment.NewDefaultGradient(),
		cameraConfig: renderer.DefaultCameraConfig(),
		renderConfig: renderer.DefaultRenderConfig(),
	}
}

// SetName names the scene
func (b *Builder) SetName(name string) { b.name = name }

// DefaultMaterial returns a diffuse material with the given albedo
func (b *Builder) DefaultMaterial(albedo core.Vec3) *material.Material {
	return material.NewDefault(albedo)
}

// Metal returns a reflective material; fuzz must lie within [0, 1]
func (b *Builder) Metal(color core.Vec3, fuzz float64) (*material.Material, error) {
	return material.NewMetal(color, fuzz)
}

// Image returns a diffuse material whose albedo comes from the named texture.
// The texture is resolved on first use; a missing asset renders with the error color.
func (b *Builder) Image(name string) *material.Material {
	return material.NewImage(name, b.resolver, b.logger)
}

// AddSphere appends a sphere. A nil material means the default diffuse material.
func (b *Builder) AddSphere(center core.Vec3, radius float64, mat *material.Material) error {
	if mat == nil {
		mat = material.NewDefault(material.DefaultAlbedo)
	}
	p, err := geometry.NewSphere(center, radius, mat)
	if err != nil {
		return relabel(err, "add_sphere")
	}
	b.primitives = append(b.primitives, p)
	return nil
}

// AddCube appends an axis-aligned cube. dimension holds the full edge lengths along x, y and z.
// A nil material means the default diffuse material.
func (b *Builder) AddCube(center, dimension core.Vec3, mat *material.Material) error {
	if mat == nil {
		mat = material.NewDefault(material.DefaultAlbedo)
	}
	p, err := geometry.NewCube(center, dimension.Multiply(0.5), mat)
	if err != nil {
		return core.NewConfigurationError("add_cube", "dimension", dimension, "every component must be positive")
	}
	b.primitives = append(b.primitives, p)
	return nil
}

// UseGround adds a large sphere below the origin acting as a ground plane.
// A nil material means a gray diffuse material.
func (b *Builder) UseGround(mat *material.Material) error {
	if mat == nil {
		mat = material.NewDefault(GroundColor)
	}
	return b.AddSphere(GroundCenter, GroundRadius, mat)
}

// SetSkybox replaces the background. A nil skybox restores the default gradient.
func (b *Builder) SetSkybox(skybox *environment.Skybox) {
	if skybox == nil {
		skybox = environment.NewDefaultGradient()
	}
	b.skybox = skybox
}

// TextureSkybox sets an equirectangular skybox from the named texture.
// Offsets rotate the image in degrees; multiplier scales its brightness.
func (b *Builder) TextureSkybox(name string, offsetXDeg, offsetYDeg, multiplier float64) {
	handle := material.NewTextureHandle(name, b.resolver, b.logger)
	b.skybox = environment.NewEquirect(handle, offsetXDeg, offsetYDeg, multiplier)
}

// SetCamera replaces the whole camera configuration after validating it
func (b *Builder) SetCamera(config renderer.CameraConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	b.cameraConfig = config
	return nil
}

// SetCameraCenter moves the camera
func (b *Builder) SetCameraCenter(center core.Vec3) {
	b.cameraConfig.Center = center
}

// SetCameraTarget sets the point the camera looks at
func (b *Builder) SetCameraTarget(target core.Vec3) {
	b.cameraConfig.LookAt = target
}

// SetCameraFov sets the vertical field of view in degrees
func (b *Builder) SetCameraFov(fov float64) error {
	if !(fov > 0 && fov < 180) {
		return core.NewConfigurationError("set_camera_fov", "fov", fov, "must be within (0, 180) degrees")
	}
	b.cameraConfig.VFov = fov
	return nil
}

// SetRender replaces the render settings after validating them
func (b *Builder) SetRender(config renderer.RenderConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	b.renderConfig = config
	return nil
}

// Len returns the number of primitives added so far
func (b *Builder) Len() int { return len(b.primitives) }

// Freeze returns an immutable scene holding a copy of everything added so far.
// The builder stays usable; later calls do not affect the returned scene.
func (b *Builder) Freeze() *Scene {
	return &Scene{
		name:         b.name,
		primitives:   geometry.NewList(b.primitives...),
		skybox:       b.skybox,
		cameraConfig: b.cameraConfig,
		renderConfig: b.renderConfig,
	}
}

// relabel reports a configuration error against the authoring call that received it
func relabel(err error, op string) error {
	var cfgErr *core.ConfigurationError
	if errors.As(err, &cfgErr) {
		relabeled := *cfgErr
		relabeled.Op = op
		return &relabeled
	}
	return err
}
