package renderer

import (
	"math"

	"github.com/df07/go-rtrace/pkg/core"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera is looking at
	Up            core.Vec3 // Up direction (usually (0,1,0))
	VFov          float64   // Vertical field of view in degrees, within (0, 180)
	DefocusAngle  float64   // Cone angle in degrees of rays through each pixel (0 = pinhole)
	FocusDistance float64   // Distance to the plane of perfect focus (0 = distance to LookAt)
}

// DefaultCameraConfig returns the camera used when a scene sets nothing else
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Center: core.NewVec3(0, 1, 2),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   90,
	}
}

// Validate checks that the configuration describes a usable camera
func (c CameraConfig) Validate() error {
	if !(c.VFov > 0 && c.VFov < 180) {
		return core.NewConfigurationError("camera", "fov", c.VFov, "must be within (0, 180) degrees")
	}
	forward := c.LookAt.Subtract(c.Center)
	if forward.NearZero() {
		return core.NewConfigurationError("camera", "target", c.LookAt, "must differ from the camera center")
	}
	if c.Up.Cross(forward).NearZero() {
		return core.NewConfigurationError("camera", "up", c.Up, "must not be parallel to the view direction")
	}
	if c.DefocusAngle < 0 {
		return core.NewConfigurationError("camera", "defocus angle", c.DefocusAngle, "must not be negative")
	}
	if c.FocusDistance < 0 {
		return core.NewConfigurationError("camera", "focus distance", c.FocusDistance, "must not be negative")
	}
	return nil
}

// Camera generates primary rays for an image of a fixed resolution
type Camera struct {
	config        CameraConfig
	width, height int
	center        core.Vec3
	pixel00       core.Vec3 // Center of the upper-left pixel
	pixelDeltaU   core.Vec3 // Offset to the pixel to the right
	pixelDeltaV   core.Vec3 // Offset to the pixel below
	u, v, w       core.Vec3 // Camera frame basis vectors
	defocusDiskU  core.Vec3
	defocusDiskV  core.Vec3
}

// NewCamera creates a camera for a width x height image. The aspect ratio is taken from the resolution.
func NewCamera(config CameraConfig, width, height int) (*Camera, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, core.NewConfigurationError("camera", "resolution", [2]int{width, height}, "must be positive")
	}

	focusDistance := config.FocusDistance
	if focusDistance == 0 {
		focusDistance = config.LookAt.Subtract(config.Center).Length()
	}

	theta := config.VFov * math.Pi / 180
	viewportHeight := 2 * math.Tan(theta/2) * focusDistance
	viewportWidth := viewportHeight * float64(width) / float64(height)

	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	viewportU := u.Multiply(viewportWidth)
	viewportV := v.Negate().Multiply(viewportHeight)
	pixelDeltaU := viewportU.Multiply(1.0 / float64(width))
	pixelDeltaV := viewportV.Multiply(1.0 / float64(height))

	upperLeft := config.Center.
		Subtract(w.Multiply(focusDistance)).
		Subtract(viewportU.Multiply(0.5)).
		Subtract(viewportV.Multiply(0.5))
	pixel00 := upperLeft.Add(pixelDeltaU.Add(pixelDeltaV).Multiply(0.5))

	defocusRadius := focusDistance * math.Tan(config.DefocusAngle*math.Pi/360)

	return &Camera{
		config:       config,
		width:        width,
		height:       height,
		center:       config.Center,
		pixel00:      pixel00,
		pixelDeltaU:  pixelDeltaU,
		pixelDeltaV:  pixelDeltaV,
		u:            u,
		v:            v,
		w:            w,
		defocusDiskU: u.Multiply(defocusRadius),
		defocusDiskV: v.Multiply(defocusRadius),
	}, nil
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.height }

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig { return c.config }

// GetCameraForward returns the unit view direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.w.Negate()
}

// GetRay returns a ray through pixel (i, j), where j=0 is the top row.
// offset moves the sample within the pixel footprint, each component in [-0.5, 0.5].
// The sampler is only used when the camera has a defocus blur.
func (c *Camera) GetRay(i, j int, offset core.Vec2, sampler core.Sampler) core.Ray {
	pixelSample := c.pixel00.
		Add(c.pixelDeltaU.Multiply(float64(i) + offset.X)).
		Add(c.pixelDeltaV.Multiply(float64(j) + offset.Y))

	origin := c.center
	if c.config.DefocusAngle > 0 {
		p := core.RandomInUnitDisk(sampler)
		origin = c.center.Add(c.defocusDiskU.Multiply(p.X)).Add(c.defocusDiskV.Multiply(p.Y))
	}

	return core.NewRay(origin, pixelSample.Subtract(origin))
}
