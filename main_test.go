package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/core"
)

func TestRunRendersAndPublishes(t *testing.T) {
	outDir := t.TempDir()
	var stdout bytes.Buffer
	args := []string{
		"-scene", "default",
		"-width", "32", "-height", "16", "-samples", "1", "-depth", "2",
		"-output", outDir, "-name", "frame", "-thumb", "8",
	}

	if err := run(context.Background(), args, "", &stdout, io.Discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, name := range []string{"frame.png", "frame_thumb.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}
	if !strings.Contains(stdout.String(), "Render saved as") {
		t.Errorf("Expected save message, got %q", stdout.String())
	}
}

func TestRunDocumentScene(t *testing.T) {
	dir := t.TempDir()
	doc := "name: tiny\nrender:\n  width: 16\n  height: 16\n  samples: 1\n" +
		"primitives:\n  - type: cube\n    center: [0, 0, -1]\n    dimension: [1, 1, 1]\n"
	if err := os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	args := []string{"-scene", "document:tiny", "-scenes-dir", dir, "-output", outDir, "-name", "tiny", "-thumb", "0"}
	if err := run(context.Background(), args, "", io.Discard, io.Discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "tiny.png")); err != nil {
		t.Errorf("Expected tiny.png to be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "tiny_thumb.png")); err == nil {
		t.Error("Expected no thumbnail when -thumb is 0")
	}
}

func TestRunErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown scene", []string{"-scene", "nonexistent"}, "unknown scene"},
		{"missing document", []string{"-scene", "document:absent", "-scenes-dir", "."}, "not found"},
		{"bad log level", []string{"-log-level", "loud"}, "unknown log level"},
		{"invalid render size", []string{"-width", "0", "-height", "10"}, "width"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := run(context.Background(), tc.args, "", io.Discard, io.Discard)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRunCancelledDoesNotPublish(t *testing.T) {
	outDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	args := []string{"-width", "32", "-height", "16", "-samples", "1", "-output", outDir, "-name", "partial"}
	err := run(ctx, args, "", io.Discard, io.Discard)
	if !errors.Is(err, core.ErrRenderCancelled) {
		t.Fatalf("Expected ErrRenderCancelled, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "partial.png")); statErr == nil {
		t.Error("Expected partial render not to be published")
	}
}

func TestRunHelp(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(context.Background(), []string{"-help"}, "", &stdout, io.Discard); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"-scene", "showcase", "RTRACE_"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("Expected help to mention %q", want)
		}
	}
}

func TestSceneDirName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"default", "default"},
		{"document:spheres", "spheres"},
		{"scenes/my-scene.yaml", "my-scene"},
		{"scenes/nested/other.yml", "other"},
	}
	for _, tt := range tests {
		if got := sceneDirName(tt.id); got != tt.want {
			t.Errorf("sceneDirName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
