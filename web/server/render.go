package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-json-experiment/json"
	"github.com/pkg/errors"

	"github.com/df07/go-rtrace/pkg/core"
	"github.com/df07/go-rtrace/pkg/export"
	"github.com/df07/go-rtrace/pkg/logging"
	"github.com/df07/go-rtrace/pkg/renderer"
)

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX      int    `json:"tileX"`
	TileY      int    `json:"tileY"`
	X          int    `json:"x"` // Pixel origin of the tile
	Y          int    `json:"y"`
	ImageData  string `json:"imageData"` // Base64 encoded PNG of just this tile
	TilesDone  int    `json:"tilesDone"`
	TilesTotal int    `json:"tilesTotal"`
}

// CompleteUpdate is the final event of a render
type CompleteUpdate struct {
	JobID          string  `json:"jobId"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ElapsedMs      int64   `json:"elapsedMs"`
	TotalPixels    int     `json:"totalPixels"`
	PixelsWritten  int     `json:"pixelsWritten"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	FaultedPixels  int     `json:"faultedPixels"`
	PrimitiveCount int     `json:"primitiveCount"`
	ImageData      string  `json:"imageData,omitempty"` // Base64 PNG of the frame
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "progress", "error", "cancelled", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender renders a scene and streams tiles, progress and console output via SSE.
// A new request cancels the render of any previous request.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(ctx, w, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan := make(chan logging.ConsoleMessage, 50)
	stopConsole := make(chan struct{})
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, stopConsole, consoleChan, sseEventChan)
	}()
	// Console lines must reach the client before the terminal event
	flushConsole := sync.OnceFunc(func() {
		close(stopConsole)
		<-consoleDone
	})
	defer flushConsole()

	reqLogger := slog.New(logging.NewConsoleHandler(consoleChan, slog.LevelInfo, s.logger.Handler())).
		With("scene", req.Scene)

	sceneObj, err := s.loadScene(req.Scene, reqLogger)
	if err != nil {
		flushConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	rt, err := sceneObj.NewRendererWithConfig(req.apply(sceneObj.RenderConfig()), reqLogger)
	if err != nil {
		flushConsole()
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	job := s.session.Start(ctx, rt, renderer.RenderOptions{
		OnTile: func(tile renderer.TileCompletionResult) {
			s.handleTileUpdate(ctx, sseEventChan, tile)
		},
		OnProgress: func(p renderer.Progress) {
			s.sendJSON(ctx, sseEventChan, "progress", p)
		},
	})
	reqLogger.Info("render started", "job", job.ID, "width", rt.Config().Width, "height", rt.Config().Height,
		"samples", rt.Config().SamplesPerPixel)

	stats, err := job.Wait()
	flushConsole()
	switch {
	case errors.Is(err, core.ErrRenderCancelled):
		s.sendJSON(ctx, sseEventChan, "cancelled", map[string]any{
			"jobId":     job.ID.String(),
			"tilesDone": stats.TilesDone,
		})
	case err != nil:
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
	default:
		update := CompleteUpdate{
			JobID:          job.ID.String(),
			Width:          rt.Config().Width,
			Height:         rt.Config().Height,
			ElapsedMs:      stats.Duration.Milliseconds(),
			TotalPixels:    stats.TotalPixels,
			PixelsWritten:  stats.PixelsWritten,
			TotalSamples:   stats.TotalSamples,
			AverageSamples: stats.AverageSamples,
			FaultedPixels:  stats.FaultedPixels,
			PrimitiveCount: sceneObj.GetPrimitiveCount(),
		}
		if data, err := imageToBase64PNG(job.Frame.Image()); err == nil {
			update.ImageData = data
		}
		s.sendJSON(ctx, sseEventChan, "complete", update)
	}
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe).
// It returns once the channel is closed; after a disconnect it keeps draining without writing.
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, sseEventChan <-chan SSEEvent) {
	connected := true
	for event := range sseEventChan {
		if !connected || ctx.Err() != nil {
			connected = false
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			connected = false
			continue
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// handleTileUpdate processes and sends tile update events
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, tile renderer.TileCompletionResult) {
	if ctx.Err() != nil {
		return
	}

	tileData, err := imageToBase64PNG(tile.TileImage)
	if err != nil {
		s.logger.Warn("encoding tile image", "tileX", tile.TileX, "tileY", tile.TileY, "err", err)
		return
	}

	s.sendJSON(ctx, sseEventChan, "tile", TileUpdate{
		TileX:      tile.TileX,
		TileY:      tile.TileY,
		X:          tile.Bounds.Min.X,
		Y:          tile.Bounds.Min.Y,
		ImageData:  tileData,
		TilesDone:  tile.Progress.TilesDone,
		TilesTotal: tile.Progress.TilesTotal,
	})
}

// sendJSON marshals v and queues it as an event of the given type
func (s *Server) sendJSON(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshaling SSE event", "type", eventType, "err", err)
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(data)}:
	case <-ctx.Done():
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := export.EncodePNG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	s.logger.Warn("render request failed", "err", message)
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
