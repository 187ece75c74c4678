package renderer

import (
	"image"
	"image/color"
	"sync/atomic"
)

// FrameBuffer is the shared output surface of a render pass.
// Each pixel is stored as one packed RGBA word, so a concurrent reader sees
// either the previous value or the finished color, never a partial write.
// Pixels that have not been written yet read back as transparent black.
type FrameBuffer struct {
	width, height int
	pixels        []atomic.Uint32
}

// NewFrameBuffer creates an empty frame buffer
func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		width:  width,
		height: height,
		pixels: make([]atomic.Uint32, width*height),
	}
}

// Width returns the width in pixels
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the height in pixels
func (fb *FrameBuffer) Height() int { return fb.height }

// Bounds returns the pixel rectangle of the buffer
func (fb *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.width, fb.height)
}

// Set stores the final color of pixel (x, y). Alpha is forced to opaque.
func (fb *FrameBuffer) Set(x, y int, c color.RGBA) {
	fb.pixels[y*fb.width+x].Store(pack(c))
}

// At returns the color of pixel (x, y) and whether it has been written
func (fb *FrameBuffer) At(x, y int) (color.RGBA, bool) {
	c := unpack(fb.pixels[y*fb.width+x].Load())
	return c, c.A != 0
}

// Written returns the number of pixels that hold a final color
func (fb *FrameBuffer) Written() int {
	n := 0
	for i := range fb.pixels {
		if fb.pixels[i].Load() != 0 {
			n++
		}
	}
	return n
}

// Image returns a snapshot of the whole buffer
func (fb *FrameBuffer) Image() *image.RGBA {
	return fb.TileImage(fb.Bounds())
}

// TileImage returns a snapshot of the pixels inside bounds, positioned at the origin
func (fb *FrameBuffer) TileImage(bounds image.Rectangle) *image.RGBA {
	bounds = bounds.Intersect(fb.Bounds())
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := unpack(fb.pixels[y*fb.width+x].Load())
			img.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}
	return img
}

func pack(c color.RGBA) uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | 0xff
}

func unpack(p uint32) color.RGBA {
	return color.RGBA{R: uint8(p >> 24), G: uint8(p >> 16), B: uint8(p >> 8), A: uint8(p)}
}
