package material

import (
	"image"
	"math"

	"github.com/df07/go-rtrace/pkg/core"
)

// ImageTexture is a decoded raster of linear [0, 1] RGB texels.
// Texel (0, 0) is the top-left corner of the image.
type ImageTexture struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Pixels[y*Width + x]
}

// NewImageTexture wraps an existing texel slice
func NewImageTexture(width, height int, pixels []core.Vec3) *ImageTexture {
	return &ImageTexture{Width: width, Height: height, Pixels: pixels}
}

// NewImageTextureFromImage copies img into texels, dropping alpha
func NewImageTextureFromImage(img image.Image) *ImageTexture {
	b := img.Bounds()
	tex := &ImageTexture{Width: b.Dx(), Height: b.Dy(), Pixels: make([]core.Vec3, b.Dx()*b.Dy())}
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			tex.Pixels[y*tex.Width+x] = core.NewVec3(float64(r), float64(g), float64(bl)).Multiply(1.0 / 0xffff)
		}
	}
	return tex
}

// Texel returns the texel at column x, row y
func (t *ImageTexture) Texel(x, y int) core.Vec3 {
	return t.Pixels[y*t.Width+x]
}

// Lookup returns the nearest texel to uv. u repeats horizontally; v is clamped
// to [0, 1] with v=1 on the top row. An empty texture panics.
func (t *ImageTexture) Lookup(uv core.Vec2) core.Vec3 {
	u := uv.X - math.Floor(uv.X)
	v := math.Max(0, math.Min(1, uv.Y))
	return t.Texel(texelIndex(u, t.Width), texelIndex(1-v, t.Height))
}

// texelIndex maps f in [0, 1] to a cell of n; f == 1 lands in the last cell
func texelIndex(f float64, n int) int {
	return min(int(f*float64(n)), n-1)
}
