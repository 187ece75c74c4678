// Package config assembles CLI settings from a .env file, RTRACE_* environment
// variables and command-line flags. Later sources win.
package config

import (
	"flag"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/export"
	"github.com/df07/go-rtrace/pkg/loaders"
	"github.com/df07/go-rtrace/pkg/renderer"
)

// EnvPrefix prefixes every environment key
const EnvPrefix = "RTRACE_"

// Config holds everything the CLI needs for one render
type Config struct {
	Scene          string // Preset id, "document:<name>" or path to a YAML scene
	ScenesDir      string // Directory searched for scene documents
	Render         renderer.RenderConfig
	TextureDir     string
	MaxTextureSize uint
	Output         string // Directory or bucket URL; empty means output/<scene>
	OutputName     string // File name without extension; empty means a timestamped name
	ThumbnailSize  uint   // 0 disables the preview thumbnail
	LogLevel       string
	LogFormat      string
	S3             export.S3Options
	Help           bool

	set map[string]bool // Flag names given explicitly through the environment or flags
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Scene:          "default",
		ScenesDir:      "scenes",
		Render:         renderer.DefaultRenderConfig(),
		TextureDir:     "assets",
		MaxTextureSize: loaders.DefaultMaxTextureSize,
		ThumbnailSize:  export.DefaultThumbnailSize,
		LogLevel:       "info",
		LogFormat:      "text",
		set:            make(map[string]bool),
	}
}

// Load reads envFile (a missing file is ignored), then the environment, then args.
// Flag parsing errors and malformed environment values are returned.
func Load(args []string, envFile string, output io.Writer) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "loading %s", envFile)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.applyFlags(args, output); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsSet reports whether the named flag (or its environment key) was given
func (c *Config) IsSet(name string) bool { return c.set[name] }

// RenderFor overlays the explicitly set render settings onto base, usually the
// scene's own settings. A width without a height keeps a 16:9 aspect ratio.
func (c *Config) RenderFor(base renderer.RenderConfig) renderer.RenderConfig {
	out := base
	if c.set["width"] {
		out.Width = c.Render.Width
		if !c.set["height"] {
			out.Height = max(1, out.Width*9/16)
		}
	}
	if c.set["height"] {
		out.Height = c.Render.Height
	}
	if c.set["samples"] {
		out.SamplesPerPixel = c.Render.SamplesPerPixel
	}
	if c.set["depth"] {
		out.MaxDepth = c.Render.MaxDepth
	}
	if c.set["tile-size"] {
		out.TileSize = c.Render.TileSize
	}
	if c.set["workers"] {
		out.NumWorkers = c.Render.NumWorkers
	}
	if c.set["seed"] {
		out.Seed = c.Render.Seed
	}
	return out
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var err error
	get := func(key, name string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		if ok {
			c.set[name] = true
		}
		return v, ok && err == nil
	}
	str := func(key, name string, dst *string) {
		if v, ok := get(key, name); ok {
			*dst = v
		}
	}
	num := func(key, name string, dst *int) {
		if v, ok := get(key, name); ok {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = errors.Wrapf(perr, "parsing %s%s", EnvPrefix, key)
				return
			}
			*dst = n
		}
	}
	unsigned := func(key, name string, bits int, dst func(uint64)) {
		if v, ok := get(key, name); ok {
			n, perr := strconv.ParseUint(v, 10, bits)
			if perr != nil {
				err = errors.Wrapf(perr, "parsing %s%s", EnvPrefix, key)
				return
			}
			dst(n)
		}
	}

	str("SCENE", "scene", &c.Scene)
	str("SCENES_DIR", "scenes-dir", &c.ScenesDir)
	num("WIDTH", "width", &c.Render.Width)
	num("HEIGHT", "height", &c.Render.Height)
	num("SAMPLES", "samples", &c.Render.SamplesPerPixel)
	num("DEPTH", "depth", &c.Render.MaxDepth)
	num("TILE_SIZE", "tile-size", &c.Render.TileSize)
	num("WORKERS", "workers", &c.Render.NumWorkers)
	unsigned("SEED", "seed", 64, func(n uint64) { c.Render.Seed = n })
	str("TEXTURE_DIR", "textures", &c.TextureDir)
	unsigned("MAX_TEXTURE", "max-texture", strconv.IntSize, func(n uint64) { c.MaxTextureSize = uint(n) })
	str("OUTPUT", "output", &c.Output)
	str("OUTPUT_NAME", "name", &c.OutputName)
	unsigned("THUMB", "thumb", strconv.IntSize, func(n uint64) { c.ThumbnailSize = uint(n) })
	str("LOG_LEVEL", "log-level", &c.LogLevel)
	str("LOG_FORMAT", "log-format", &c.LogFormat)
	str("S3_ENDPOINT", "s3-endpoint", &c.S3.Endpoint)
	str("S3_REGION", "s3-region", &c.S3.Region)
	str("S3_ACCESS_KEY", "s3-access-key", &c.S3.AccessKey)
	str("S3_SECRET_KEY", "s3-secret-key", &c.S3.SecretKey)
	return err
}

func (c *Config) applyFlags(args []string, output io.Writer) error {
	flags := c.flagSet(output)
	if err := flags.Parse(args); err != nil {
		return errors.Wrap(err, "parsing flags")
	}
	flags.Visit(func(f *flag.Flag) {
		c.set[f.Name] = true
	})
	return nil
}

// flagSet binds every flag to a field of c, using the current values as defaults
func (c *Config) flagSet(output io.Writer) *flag.FlagSet {
	flags := flag.NewFlagSet("rtrace", flag.ContinueOnError)
	if output != nil {
		flags.SetOutput(output)
	}

	flags.StringVar(&c.Scene, "scene", c.Scene, "Scene: preset id (default, showcase, textures), document:<name> or a .yaml path")
	flags.StringVar(&c.ScenesDir, "scenes-dir", c.ScenesDir, "Directory holding YAML scene documents")
	flags.IntVar(&c.Render.Width, "width", c.Render.Width, "Image width in pixels (default: the scene's)")
	flags.IntVar(&c.Render.Height, "height", c.Render.Height, "Image height in pixels (default: width * 9/16)")
	flags.IntVar(&c.Render.SamplesPerPixel, "samples", c.Render.SamplesPerPixel, "Samples per pixel")
	flags.IntVar(&c.Render.MaxDepth, "depth", c.Render.MaxDepth, "Maximum ray bounces")
	flags.IntVar(&c.Render.TileSize, "tile-size", c.Render.TileSize, "Tile edge length in pixels")
	flags.IntVar(&c.Render.NumWorkers, "workers", c.Render.NumWorkers, "Number of parallel workers (0 = auto-detect CPU count)")
	flags.Uint64Var(&c.Render.Seed, "seed", c.Render.Seed, "Global random seed")
	flags.StringVar(&c.TextureDir, "textures", c.TextureDir, "Directory holding texture images")
	flags.UintVar(&c.MaxTextureSize, "max-texture", c.MaxTextureSize, "Largest texture edge; bigger images are scaled down (0 = no limit)")
	flags.StringVar(&c.Output, "output", c.Output, "Output directory or bucket URL (file://, gs://, s3://)")
	flags.StringVar(&c.OutputName, "name", c.OutputName, "Output file name without extension")
	flags.UintVar(&c.ThumbnailSize, "thumb", c.ThumbnailSize, "Thumbnail edge length (0 = no thumbnail)")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
	flags.BoolVar(&c.Help, "help", false, "Show help information")
	return flags
}

// PrintUsage writes the flag list with default values to w
func PrintUsage(w io.Writer) {
	Default().flagSet(w).PrintDefaults()
}
