package loaders

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/material"
)

// NamedAssets maps the built-in texture names to files in the texture directory
var NamedAssets = map[string]string{
	"checkerboard": "ArtificialTexture.png",
	"earth":        "Earth.jpg",
	"sun":          "Sun.jpg",
}

// DirResolver resolves texture names to image files in one directory.
// Decoded textures are cached, so an asset shared by several materials is read once.
type DirResolver struct {
	dir     string
	maxSize uint
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]*material.ImageTexture
}

// NewDirResolver creates a resolver for the texture directory dir
func NewDirResolver(dir string, maxSize uint, logger *slog.Logger) *DirResolver {
	return &DirResolver{
		dir:     dir,
		maxSize: maxSize,
		logger:  core.LoggerOrDefault(logger),
		cache:   make(map[string]*material.ImageTexture),
	}
}

// Dir returns the texture directory
func (r *DirResolver) Dir() string { return r.dir }

// Path returns the file a texture name refers to. Built-in names map through
// NamedAssets; anything else is a file name relative to the directory.
func (r *DirResolver) Path(name string) (string, error) {
	file, ok := NamedAssets[name]
	if !ok {
		file = name
	}
	if !filepath.IsLocal(file) {
		return "", errors.Errorf("texture name %q escapes the texture directory", name)
	}
	return filepath.Join(r.dir, file), nil
}

// Resolve loads the named texture. Failures are *core.ResourceError.
func (r *DirResolver) Resolve(name string) (material.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tex, ok := r.cache[name]; ok {
		return tex, nil
	}

	path, err := r.Path(name)
	if err != nil {
		return nil, &core.ResourceError{Asset: name, Err: err}
	}
	tex, err := LoadImage(path, r.maxSize)
	if err != nil {
		return nil, &core.ResourceError{Asset: name, Err: errors.Wrapf(err, "loading %s", path)}
	}

	r.logger.Debug("texture loaded", "asset", name, "path", path, "width", tex.Width, "height", tex.Height)
	r.cache[name] = tex
	return tex, nil
}
