package renderer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/environment"
	"github.com/df07/go-rtrace/pkg/material"
)

// Starting a new render cancels the previous one and the new frame only shows the new scene
func TestSessionRestartReplacesScene(t *testing.T) {
	session := NewSession(discardLogger())

	slowScene := newTestScene(t, environment.NewSolid(core.NewVec3(1, 0, 0)),
		unitSphere(t, material.NewDefault(core.NewVec3(0.8, 0.8, 0.8))))
	slowConfig := smallConfig(64, 64, 64)
	slowConfig.MaxDepth = 8
	slow, err := NewRenderer(slowScene, frontCamera(), slowConfig, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	blue := core.NewVec3(0, 0, 1)
	fastScene := newTestScene(t, environment.NewSolid(blue))
	fast, err := NewRenderer(fastScene, frontCamera(), smallConfig(16, 16, 1), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	first := session.Start(context.Background(), slow, RenderOptions{})
	second := session.Start(context.Background(), fast, RenderOptions{})

	// The first job has fully stopped before the second was allocated
	select {
	case <-first.Done():
	default:
		t.Fatal("Expected first job to be stopped when the second starts")
	}
	if _, err := first.Wait(); err != nil && !errors.Is(err, core.ErrRenderCancelled) {
		t.Errorf("Expected cancellation or completion, got %v", err)
	}

	if _, err := session.Wait(); err != nil {
		t.Fatal(err)
	}
	if session.Current() != second || first.ID == second.ID {
		t.Error("Expected the session to track the new job")
	}

	want := ColorToRGBA(blue)
	img := second.Frame.Image()
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if c := img.RGBAAt(x, y); c != want {
				t.Fatalf("Pixel (%d,%d) = %v, expected only the new scene's %v", x, y, c, want)
			}
		}
	}
	if p := second.Progress(); p.TilesDone != p.TilesTotal {
		t.Errorf("Expected complete progress, got %+v", p)
	}
}

func TestSessionCancel(t *testing.T) {
	session := NewSession(discardLogger())
	session.Cancel() // idle session

	scene := newTestScene(t, environment.NewDefaultGradient(),
		unitSphere(t, material.NewDefault(core.NewVec3(0.5, 0.5, 0.5))))
	config := smallConfig(64, 64, 64)
	r, err := NewRenderer(scene, frontCamera(), config, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	job := session.Start(context.Background(), r, RenderOptions{})
	session.Cancel()
	select {
	case <-job.Done():
	default:
		t.Fatal("Expected job to be stopped after Cancel returns")
	}

	stats, err := job.Wait()
	if err == nil && stats.TilesDone != stats.TilesTotal {
		t.Error("Expected an error for an unfinished render")
	}
	if err != nil && !errors.Is(err, core.ErrRenderCancelled) {
		t.Errorf("Expected ErrRenderCancelled, got %v", err)
	}

	// Unwritten pixels in a cancelled frame read back as transparent
	if err != nil {
		img := job.Frame.Image()
		found := false
		for i := 3; i < len(img.Pix); i += 4 {
			if img.Pix[i] == 0 {
				found = true
				break
			}
		}
		if !found {
			t.Error("Expected unwritten pixels in a cancelled frame")
		}
	}
}

// gatedScene holds every background lookup after the first open ones until gate is closed
type gatedScene struct {
	testScene
	open  int64
	calls atomic.Int64
	gate  chan struct{}
}

func (s *gatedScene) Background(direction core.Vec3) (core.Vec3, error) {
	if s.calls.Add(1) > s.open {
		<-s.gate
	}
	return s.testScene.Background(direction)
}

// A callback cancelling its own job must not deadlock, and the session stays usable
func TestSessionCancelFromCallback(t *testing.T) {
	session := NewSession(discardLogger())

	// First tile (16 pixels) renders, the second blocks until the callback has cancelled
	scene := &gatedScene{testScene: newTestScene(t, environment.NewDefaultGradient()), open: 16, gate: make(chan struct{})}
	config := smallConfig(16, 16, 1)
	config.NumWorkers = 1
	r, err := NewRenderer(scene, frontCamera(), config, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	jobs := make(chan *Job, 1)
	var once sync.Once
	job := session.Start(context.Background(), r, RenderOptions{
		OnProgress: func(Progress) {
			once.Do(func() {
				(<-jobs).Cancel()
				close(scene.gate)
			})
		},
	})
	jobs <- job

	select {
	case <-job.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("Job did not stop after cancelling from its callback")
	}
	stats, err := job.Wait()
	if !errors.Is(err, core.ErrRenderCancelled) {
		t.Fatalf("Expected ErrRenderCancelled, got %v", err)
	}
	if stats.TilesDone != 1 {
		t.Errorf("Expected 1 finished tile, got %d", stats.TilesDone)
	}

	next := session.Start(context.Background(), r, RenderOptions{})
	if _, err := next.Wait(); err != nil {
		t.Errorf("Expected the next render to complete, got %v", err)
	}
}
