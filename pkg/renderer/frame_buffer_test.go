package renderer

import (
	"image"
	"image/color"
	"sync"
	"testing"
)

func TestFrameBufferSetAt(t *testing.T) {
	fb := NewFrameBuffer(3, 2)

	if _, ok := fb.At(1, 1); ok {
		t.Error("Expected unwritten pixel")
	}
	if fb.Written() != 0 {
		t.Errorf("Expected 0 written pixels, got %d", fb.Written())
	}

	// Black is still a written pixel
	fb.Set(0, 0, color.RGBA{A: 255})
	fb.Set(2, 1, color.RGBA{R: 10, G: 20, B: 30, A: 7})

	c, ok := fb.At(2, 1)
	if !ok || c != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("Expected opaque (10,20,30), got %v (written %v)", c, ok)
	}
	if _, ok := fb.At(0, 0); !ok {
		t.Error("Expected black pixel to count as written")
	}
	if fb.Written() != 2 {
		t.Errorf("Expected 2 written pixels, got %d", fb.Written())
	}
}

func TestFrameBufferImages(t *testing.T) {
	fb := NewFrameBuffer(4, 4)
	red := color.RGBA{R: 255, A: 255}
	for y := 2; y < 4; y++ {
		for x := 2; x < 4; x++ {
			fb.Set(x, y, red)
		}
	}

	img := fb.Image()
	if img.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
	if img.RGBAAt(3, 3) != red || img.RGBAAt(0, 0) != (color.RGBA{}) {
		t.Errorf("Unexpected snapshot pixels %v %v", img.RGBAAt(3, 3), img.RGBAAt(0, 0))
	}

	tile := fb.TileImage(image.Rect(2, 2, 6, 6))
	if tile.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("Expected clipped tile bounds, got %v", tile.Bounds())
	}
	if tile.RGBAAt(0, 0) != red {
		t.Errorf("Expected tile origin to map to (2,2), got %v", tile.RGBAAt(0, 0))
	}
}

// Readers running alongside writers only ever observe unwritten or complete pixels
func TestFrameBufferConcurrentReaders(t *testing.T) {
	fb := NewFrameBuffer(64, 64)
	want := color.RGBA{R: 1, G: 2, B: 3, A: 255}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				fb.Set(x, y, want)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			img := fb.Image()
			for y := 0; y < 64; y++ {
				for x := 0; x < 64; x++ {
					c := img.RGBAAt(x, y)
					if c != (color.RGBA{}) && c != want {
						t.Errorf("Observed torn pixel %v", c)
						return
					}
				}
			}
		}
	}()
	wg.Wait()
}
