package server

import (
	"context"

	"github.com/go-json-experiment/json"

	"github.com/df07/go-rtrace/pkg/logging"
)

// streamConsoleMessages forwards console records as "console" events until stop is closed.
// The console channel is never closed since loggers may still hold it.
func (s *Server) streamConsoleMessages(ctx context.Context, stop <-chan struct{}, consoleChan <-chan logging.ConsoleMessage, sseEventChan chan<- SSEEvent) {
	forward := func(msg logging.ConsoleMessage) {
		data, err := json.Marshal(msg)
		if err != nil {
			return
		}
		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}

	for {
		select {
		case msg := <-consoleChan:
			forward(msg)
		case <-stop:
			// Flush what the render logged before it returned
			for {
				select {
				case msg := <-consoleChan:
					forward(msg)
				default:
					return
				}
			}
		}
	}
}
