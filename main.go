package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/config"
	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/export"
	"github.com/df07/go-rtrace/pkg/loaders"
	"github.com/df07/go-rtrace/pkg/logging"
	"github.com/df07/go-rtrace/pkg/renderer"
	"github.com/df07/go-rtrace/pkg/scene"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], ".env", os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, core.ErrRenderCancelled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

// run renders one scene and publishes it. Interrupting ctx stops the render
// without publishing the partial image.
func run(ctx context.Context, args []string, envFile string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(args, envFile, stderr)
	if err != nil {
		return err
	}
	if cfg.Help {
		printHelp(stdout)
		return nil
	}

	logger, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	resolver := loaders.NewDirResolver(cfg.TextureDir, cfg.MaxTextureSize, logger)
	selectedScene, err := scene.Load(cfg.Scene, cfg.ScenesDir, resolver, logger)
	if err != nil {
		return err
	}

	rt, err := selectedScene.NewRendererWithConfig(cfg.RenderFor(selectedScene.RenderConfig()), logger)
	if err != nil {
		return err
	}

	logger.Info("rendering scene", "scene", selectedScene.Name(),
		"primitives", selectedScene.GetPrimitiveCount(),
		"width", rt.Config().Width, "height", rt.Config().Height,
		"samples", rt.Config().SamplesPerPixel)

	lastReport := time.Now()
	fb, stats, err := rt.Render(ctx, renderer.RenderOptions{
		OnProgress: func(p renderer.Progress) {
			if time.Since(lastReport) < time.Second && p.TilesDone < p.TilesTotal {
				return
			}
			lastReport = time.Now()
			logger.Info("progress", "tiles", p.TilesDone, "total", p.TilesTotal,
				"percent", fmt.Sprintf("%.0f", 100*p.Fraction()))
		},
	})
	if err != nil {
		return err
	}

	output := cfg.Output
	if output == "" {
		output = filepath.Join("output", sceneDirName(cfg.Scene))
	}
	name := cfg.OutputName
	if name == "" {
		name = "render_" + time.Now().Format("20060102_150405")
	}

	sink, err := export.OpenSink(ctx, output, cfg.S3, logger)
	if err != nil {
		return err
	}
	defer sink.Close()

	published, err := export.Publish(ctx, sink, name, fb.Image(), cfg.ThumbnailSize)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Render completed in %v\n", stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(stdout, "Samples per pixel: %.1f, faulted pixels: %d\n", stats.AverageSamples, stats.FaultedPixels)
	fmt.Fprintf(stdout, "Render saved as %s\n", published.Image)
	if published.Thumbnail != "" {
		fmt.Fprintf(stdout, "Thumbnail saved as %s\n", published.Thumbnail)
	}
	return nil
}

// sceneDirName turns a scene id into a directory name under output/
func sceneDirName(id string) string {
	base := filepath.Base(strings.TrimPrefix(id, "document:"))
	if ext := filepath.Ext(base); ext == ".yaml" || ext == ".yml" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "Offline Ray Tracer")
	fmt.Fprintln(w, "Usage: rtrace [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	config.PrintUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	for _, id := range scene.PresetIDs() {
		p, _ := scene.LookupPreset(id)
		fmt.Fprintf(w, "  %-10s %s\n", id, p.Description)
	}
	fmt.Fprintln(w, "  document:<name>  YAML scene from the scenes directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Settings may also come from RTRACE_* environment variables or a .env file.")
	fmt.Fprintln(w, "Output will be saved to output/<scene>/render_<timestamp>.png unless -output is given.")
}
