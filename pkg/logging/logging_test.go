package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tc := range testCases {
		got, err := ParseLevel(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "json")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "tiles", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 record, got %d: %q", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("Expected JSON record: %v", err)
	}
	if record["msg"] != "shown" || record["tiles"] != float64(4) {
		t.Errorf("Unexpected record %v", record)
	}

	if _, err := New(&buf, "info", "xml"); err == nil {
		t.Error("Expected unknown format error")
	}
}

func receive(t *testing.T, ch <-chan ConsoleMessage) ConsoleMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for console message")
		return ConsoleMessage{}
	}
}

func TestConsoleHandler_BasicLogging(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := slog.New(NewConsoleHandler(messageChan, slog.LevelInfo, nil))

	logger.Info("render started", "scene", "default", "samples", 4)

	msg := receive(t, messageChan)
	if msg.Message != "render started scene=default samples=4" {
		t.Errorf("Unexpected message %q", msg.Message)
	}
	if msg.Level != "info" {
		t.Errorf("Expected level 'info', got '%s'", msg.Level)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
	}
}

func TestConsoleHandler_GroupsAndAttrs(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := slog.New(NewConsoleHandler(messageChan, slog.LevelDebug, nil)).
		With("job", "abc").
		WithGroup("tile").
		With("id", 3)

	logger.Warn("pixel fault", "x", 1, slog.Group("pos", "y", 2), "reason", "bad value")

	msg := receive(t, messageChan)
	want := `pixel fault job=abc tile.id=3 tile.x=1 tile.pos.y=2 tile.reason="bad value"`
	if msg.Message != want {
		t.Errorf("Expected %q, got %q", want, msg.Message)
	}
	if msg.Level != "warning" {
		t.Errorf("Expected level 'warning', got '%s'", msg.Level)
	}
}

func TestConsoleHandler_LevelFilter(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 10)
	logger := slog.New(NewConsoleHandler(messageChan, slog.LevelWarn, nil))

	logger.Info("ignored")
	logger.Error("kept")

	msg := receive(t, messageChan)
	if msg.Message != "kept" || msg.Level != "error" {
		t.Errorf("Unexpected message %+v", msg)
	}
	if len(messageChan) != 0 {
		t.Errorf("Expected no more messages, got %d", len(messageChan))
	}
}

func TestConsoleHandler_NonBlocking(t *testing.T) {
	messageChan := make(chan ConsoleMessage, 1)
	logger := slog.New(NewConsoleHandler(messageChan, slog.LevelInfo, nil))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			logger.Info("message")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Logging blocked on a full channel")
	}
	if len(messageChan) != 1 {
		t.Errorf("Expected 1 buffered message, got %d", len(messageChan))
	}
}

func TestConsoleHandler_ForwardsToNext(t *testing.T) {
	var buf bytes.Buffer
	next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewConsoleHandler(nil, slog.LevelInfo, next)).With("job", "xyz")

	logger.Debug("only on stdout")

	if !strings.Contains(buf.String(), "only on stdout") || !strings.Contains(buf.String(), "job=xyz") {
		t.Errorf("Expected record forwarded to next handler, got %q", buf.String())
	}
}
