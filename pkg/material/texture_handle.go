package material

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/df07/go-rtrace/pkg/core"
)

// TextureHandle resolves a named texture the first time it is needed.
// Resolution failures are remembered and logged once, not per lookup.
type TextureHandle struct {
	name     string
	resolver TextureResolver
	logger   *slog.Logger

	once    sync.Once
	texture Texture
	err     error
}

// NewTextureHandle creates an unresolved handle for the named asset
func NewTextureHandle(name string, resolver TextureResolver, logger *slog.Logger) *TextureHandle {
	return &TextureHandle{name: name, resolver: resolver, logger: core.LoggerOrDefault(logger)}
}

// Name returns the asset name
func (h *TextureHandle) Name() string { return h.name }

// Lookup returns the texture color at uv, resolving the asset on first use
func (h *TextureHandle) Lookup(uv core.Vec2) (core.Vec3, error) {
	h.once.Do(h.resolve)
	if h.err != nil {
		return core.Vec3{}, h.err
	}
	return h.texture.Lookup(uv), nil
}

func (h *TextureHandle) resolve() {
	if h.resolver == nil {
		h.err = &core.ResourceError{Asset: h.name, Err: errors.New("no texture resolver configured")}
	} else {
		h.texture, h.err = h.resolver.Resolve(h.name)
		if h.err == nil && h.texture == nil {
			h.err = &core.ResourceError{Asset: h.name, Err: errors.New("resolver returned no texture")}
		}
	}
	if h.err != nil {
		var resErr *core.ResourceError
		if !errors.As(h.err, &resErr) {
			h.err = &core.ResourceError{Asset: h.name, Err: h.err}
		}
		h.logger.Warn("texture unavailable, using error color", "asset", h.name, "error", h.err)
	}
}
