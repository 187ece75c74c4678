package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-json-experiment/json"
	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/material"
	"github.com/df07/go-rtrace/pkg/renderer"
	"github.com/df07/go-rtrace/pkg/scene"
)

// Options configures the web server
type Options struct {
	Port      int
	StaticDir string // Served at /; empty disables static files
	ScenesDir string // YAML scene documents listed by /api/scenes
	Resolver  material.TextureResolver
	Logger    *slog.Logger
}

// Server handles web requests for the ray tracer preview
type Server struct {
	opts    Options
	logger  *slog.Logger
	session *renderer.Session // One render at a time; a new request cancels the previous one
}

// NewServer creates a new web server
func NewServer(opts Options) *Server {
	logger := core.LoggerOrDefault(opts.Logger)
	return &Server{
		opts:    opts,
		logger:  logger,
		session: renderer.NewSession(logger),
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string  `json:"scene"`   // Scene id (e.g., "default", "document:spheres")
	Width   int     `json:"width"`   // Image width (0 = scene default)
	Height  int     `json:"height"`  // Image height (0 = scene default or width * 9/16)
	Samples int     `json:"samples"` // Samples per pixel (0 = scene default)
	Depth   int     `json:"depth"`   // Maximum bounces (-1 = scene default)
	Seed    *uint64 `json:"seed,omitempty"` // nil = scene default
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.opts.StaticDir)))
	}

	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	s.logger.Info("starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.Handler())
}

// Session returns the render session shared by all requests
func (s *Server) Session() *renderer.Session { return s.session }

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in presets and scene documents
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.opts.ScenesDir, s.logger)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeJSON(w, http.StatusOK, response)
}

// handleSceneConfig returns the default render settings of a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sceneID := r.URL.Query().Get("scene")
	if sceneID == "" {
		sceneID = "default"
	}
	sceneObj, err := s.loadScene(sceneID, s.logger)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	config := sceneObj.RenderConfig()
	response := map[string]any{
		"scene": sceneID,
		"defaults": map[string]any{
			"width":           config.Width,
			"height":          config.Height,
			"samplesPerPixel": config.SamplesPerPixel,
			"maxDepth":        config.MaxDepth,
			"primitives":      sceneObj.GetPrimitiveCount(),
		},
		"limits": map[string]any{
			"width":   map[string]int{"min": minSize, "max": maxSize},
			"height":  map[string]int{"min": minSize, "max": maxSize},
			"samples": map[string]int{"min": 1, "max": maxSamples},
			"depth":   map[string]int{"min": 0, "max": maxDepth},
		},
	}
	if box, ok := sceneObj.Bounds(); ok {
		response["bounds"] = map[string][3]float64{"min": vec3(box.Min), "max": vec3(box.Max)}
	}
	writeJSON(w, http.StatusOK, response)
}

const (
	minSize    = 16
	maxSize    = 2000
	maxSamples = 10000
	maxDepth   = 1000
)

// parseRenderRequest parses request parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	q := r.URL.Query()
	req := &RenderRequest{Scene: q.Get("scene")}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(q, "width", 0, minSize, maxSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(q, "height", 0, minSize, maxSize); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(q, "samples", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if req.Depth, err = parseIntParam(q, "depth", -1, 0, maxDepth); err != nil {
		return nil, err
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.Errorf("invalid seed: %s", v)
		}
		req.Seed = &seed
	}
	return req, nil
}

// apply overlays the request onto the scene's render settings
func (req *RenderRequest) apply(config renderer.RenderConfig) renderer.RenderConfig {
	if req.Width > 0 {
		config.Width = req.Width
		if req.Height == 0 {
			config.Height = max(1, req.Width*9/16)
		}
	}
	if req.Height > 0 {
		config.Height = req.Height
	}
	if req.Samples > 0 {
		config.SamplesPerPixel = req.Samples
	}
	if req.Depth >= 0 {
		config.MaxDepth = req.Depth
	}
	if req.Seed != nil {
		config.Seed = *req.Seed
	}
	return config
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, errors.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, errors.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func (s *Server) loadScene(id string, logger *slog.Logger) (*scene.Scene, error) {
	return scene.Load(id, s.opts.ScenesDir, s.opts.Resolver, logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
