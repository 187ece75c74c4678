package loaders

import (
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/material"
)

// DefaultMaxTextureSize bounds the longer edge of a loaded texture
const DefaultMaxTextureSize = 4096

// LoadImage loads a PNG or JPEG image as a texture. Images whose longer edge
// exceeds maxSize are scaled down to fit, keeping the aspect ratio; 0 disables the limit.
func LoadImage(filename string, maxSize uint) (*material.ImageTexture, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image file")
	}
	defer file.Close()

	return DecodeImage(file, maxSize)
}

// DecodeImage decodes a PNG or JPEG stream as a texture
func DecodeImage(r io.Reader, maxSize uint) (*material.ImageTexture, error) {
	// Format is detected from the stream header
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	bounds := img.Bounds()
	if maxSize > 0 && (uint(bounds.Dx()) > maxSize || uint(bounds.Dy()) > maxSize) {
		img = resize.Thumbnail(maxSize, maxSize, img, resize.Bilinear)
		bounds = img.Bounds()
	}

	if bounds.Empty() {
		return nil, errors.New("image has no pixels")
	}
	return material.NewImageTextureFromImage(img), nil
}
