package export

import (
	"context"
	"image"
)

// Published lists where a render was stored
type Published struct {
	Image     string
	Thumbnail string // Empty when thumbnails are disabled
}

// Publish encodes img as <name>.png and, when thumbSize > 0, a <name>_thumb.png preview
func Publish(ctx context.Context, sink Sink, name string, img image.Image, thumbSize uint) (Published, error) {
	var out Published

	data, err := PNGBytes(img)
	if err != nil {
		return out, err
	}
	key := name + ".png"
	if err := sink.Write(ctx, key, data, "image/png"); err != nil {
		return out, err
	}
	out.Image = sink.Location(key)

	if thumbSize == 0 {
		return out, nil
	}
	thumb, err := PNGBytes(Thumbnail(img, thumbSize))
	if err != nil {
		return out, err
	}
	thumbKey := name + "_thumb.png"
	if err := sink.Write(ctx, thumbKey, thumb, "image/png"); err != nil {
		return out, err
	}
	out.Thumbnail = sink.Location(thumbKey)
	return out, nil
}
