package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jba/slog/withsupport"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// ConsoleHandler is a slog.Handler that formats records as single lines and sends
// them to a console channel. Sends never block: when the channel is full the
// message is dropped. Records are also passed to next when it is set.
type ConsoleHandler struct {
	level slog.Leveler
	out   chan<- ConsoleMessage
	next  slog.Handler
	with  *withsupport.GroupOrAttrs
}

// NewConsoleHandler creates a handler sending to out. next may be nil.
func NewConsoleHandler(out chan<- ConsoleMessage, level slog.Leveler, next slog.Handler) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{level: level, out: out, next: next}
}

func (h *ConsoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.with = h.with.WithGroup(name)
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}

func (h *ConsoleHandler) WithAttrs(as []slog.Attr) slog.Handler {
	if len(as) == 0 {
		return h
	}
	c := *h
	c.with = h.with.WithAttrs(as)
	if h.next != nil {
		c.next = h.next.WithAttrs(as)
	}
	return &c
}

func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	if h.out == nil || r.Level < h.level.Level() {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(r.Message)
	groups := h.with.Apply(func(groups []string, a slog.Attr) {
		appendAttr(&sb, groups, a)
	})
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, groups, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	select {
	case h.out <- ConsoleMessage{Message: sb.String(), Timestamp: ts, Level: levelName(r.Level)}:
	default:
		// Channel full, skip (don't block)
	}
	return nil
}

func appendAttr(sb *strings.Builder, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, ga := range attrs {
			appendAttr(sb, groups, ga)
		}
		return
	}

	sb.WriteByte(' ')
	for _, g := range groups {
		sb.WriteString(g)
		sb.WriteByte('.')
	}
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	switch a.Value.Kind() {
	case slog.KindString:
		if v := a.Value.String(); strings.ContainsAny(v, " =\"") || v == "" {
			fmt.Fprintf(sb, "%q", v)
		} else {
			sb.WriteString(v)
		}
	case slog.KindTime:
		sb.WriteString(a.Value.Time().Format(time.RFC3339))
	default:
		sb.WriteString(a.Value.String())
	}
}

// levelName maps slog levels to the console's level names, rounding down between bands
func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "error"
	case l >= slog.LevelWarn:
		return "warning"
	case l >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
