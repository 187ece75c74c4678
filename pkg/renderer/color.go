package renderer

import (
	"image/color"

	"github.com/df07/go-rtrace/pkg/core"
)

// Gamma is the display gamma applied before quantizing (a square root)
const Gamma = 2.0

// ErrorColor replaces pixels whose color could not be computed
var ErrorColor = core.NewVec3(1, 0, 1)

// ColorToRGBA converts a linear color to an opaque 8-bit pixel:
// gamma correction, clamp to [0, 1], then quantization.
func ColorToRGBA(c core.Vec3) color.RGBA {
	corrected := c.GammaCorrect(Gamma).Clamp(0, 1)
	return color.RGBA{
		R: uint8(255 * corrected.X),
		G: uint8(255 * corrected.Y),
		B: uint8(255 * corrected.Z),
		A: 255,
	}
}
