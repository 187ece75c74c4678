package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/geometry"
	"github.com/df07/go-rtrace/pkg/integrator"
	"github.com/df07/go-rtrace/pkg/material"
	"github.com/df07/go-rtrace/pkg/renderer"
	"github.com/df07/go-rtrace/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool           `json:"hit"`
	Index        int            `json:"index"` // Insertion index of the primitive
	MaterialType string         `json:"materialType,omitempty"`
	GeometryType string         `json:"geometryType,omitempty"`
	Point        [3]float64     `json:"point"`
	Normal       [3]float64     `json:"normal"`
	UV           [2]float64     `json:"uv"`
	Distance     float64        `json:"distance"`
	FrontFace    bool           `json:"frontFace"`
	Properties   map[string]any `json:"properties,omitempty"`
}

func vec3(v core.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func hexColor(c core.Vec3) string {
	clamp := func(x float64) int { return int(255 * math.Max(0, math.Min(1, x))) }
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.X), clamp(c.Y), clamp(c.Z))
}

// extractMaterialInfo extracts detailed material information
func extractMaterialInfo(mat *material.Material) (string, map[string]any) {
	properties := make(map[string]any)
	if mat == nil {
		return "none", properties
	}
	switch mat.Kind() {
	case material.KindDefault:
		properties["albedo"] = vec3(mat.Albedo())
		properties["color"] = hexColor(mat.Albedo())
	case material.KindMetal:
		properties["albedo"] = vec3(mat.Albedo())
		properties["color"] = hexColor(mat.Albedo())
		properties["fuzz"] = mat.Fuzz()
	case material.KindImage:
		properties["texture"] = mat.Texture().Name()
	}
	return mat.Kind().String(), properties
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(p geometry.Primitive, properties map[string]any) string {
	properties["center"] = vec3(p.Center())
	switch p.Shape() {
	case geometry.ShapeSphere:
		properties["radius"] = p.Radius()
	case geometry.ShapeCube:
		properties["dimension"] = vec3(p.HalfExtents().Multiply(2))
	}
	bbox := p.Bounds()
	properties["boundingBox"] = map[string]any{"min": vec3(bbox.Min), "max": vec3(bbox.Max)}
	return p.Shape().String()
}

// InspectResult contains the nearest primitive hit by an inspection ray
type InspectResult struct {
	Hit       bool
	Index     int
	HitRecord *material.HitRecord
	Primitive geometry.Primitive
}

// inspectPixel casts a ray through the center of a pixel and returns the first primitive hit.
// Ties go to the earliest inserted primitive, matching rendering.
func inspectPixel(sceneObj *scene.Scene, config renderer.RenderConfig, pixelX, pixelY int) (InspectResult, error) {
	camera, err := renderer.NewCamera(sceneObj.CameraConfig(), config.Width, config.Height)
	if err != nil {
		return InspectResult{}, err
	}
	ray := camera.GetRay(pixelX, pixelY, core.Vec2{}, core.NewSeededSampler(uint64(pixelX), uint64(pixelY)))

	result := InspectResult{Index: -1}
	closest := math.Inf(1)
	for i, p := range sceneObj.Primitives() {
		if hit, ok := p.Intersect(ray, integrator.DefaultMinT, closest); ok {
			closest = hit.T
			result = InspectResult{Hit: true, Index: i, HitRecord: hit, Primitive: p}
		}
	}
	return result, nil
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := parseRenderRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	sceneObj, err := s.loadScene(req.Scene, s.logger)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	config := req.apply(sceneObj.RenderConfig())

	if pixelX < 0 || pixelX >= config.Width || pixelY < 0 || pixelY >= config.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("Pixel (%d, %d) outside %dx%d image", pixelX, pixelY, config.Width, config.Height),
		})
		return
	}

	result, err := inspectPixel(sceneObj, config, pixelX, pixelY)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false, Index: -1})
		return
	}

	hit := result.HitRecord
	materialType, properties := extractMaterialInfo(hit.Material)
	response := InspectResponse{
		Hit:          true,
		Index:        result.Index,
		MaterialType: materialType,
		GeometryType: extractGeometryInfo(result.Primitive, properties),
		Point:        vec3(hit.Point),
		Normal:       vec3(hit.Normal),
		UV:           [2]float64{hit.UV.X, hit.UV.Y},
		Distance:     hit.T,
		FrontFace:    hit.FrontFace,
		Properties:   properties,
	}
	writeJSON(w, http.StatusOK, response)
}
