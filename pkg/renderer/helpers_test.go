package renderer

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/environment"
	"github.com/df07/go-rtrace/pkg/geometry"
	"github.com/df07/go-rtrace/pkg/material"
)

// testScene pairs a primitive list with a skybox
type testScene struct {
	*geometry.List
	sky *environment.Skybox
}

func (s testScene) Background(direction core.Vec3) (core.Vec3, error) {
	return s.sky.Color(direction)
}

func newTestScene(t *testing.T, sky *environment.Skybox, spheres ...geometry.Primitive) testScene {
	t.Helper()
	return testScene{List: geometry.NewList(spheres...), sky: sky}
}

func unitSphere(t *testing.T, mat *material.Material) geometry.Primitive {
	t.Helper()
	s, err := geometry.NewSphere(core.NewVec3(0, 0, 0), 1, mat)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// frontCamera looks at the origin from (0, 0, 3)
func frontCamera() CameraConfig {
	return CameraConfig{
		Center: core.NewVec3(0, 0, 3),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   45,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}
