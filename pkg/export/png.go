package export

import (
	"bytes"
	"image"
	"image/png"
	"io"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// DefaultThumbnailSize bounds the longer edge of preview thumbnails
const DefaultThumbnailSize = 256

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.Wrap(err, "encoding png")
	}
	return nil
}

// PNGBytes encodes img as PNG into memory
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Thumbnail scales img down to fit within maxSize x maxSize, keeping its aspect ratio.
// Images that already fit are returned unchanged.
func Thumbnail(img image.Image, maxSize uint) image.Image {
	b := img.Bounds()
	if uint(b.Dx()) <= maxSize && uint(b.Dy()) <= maxSize {
		return img
	}
	return resize.Thumbnail(maxSize, maxSize, img, resize.Lanczos3)
}
