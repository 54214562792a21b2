// Package logging installs the slog handler used by the serialterm binary.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// prefixHandler turns the "module" and "device" attributes into a message
// prefix such as "[serial ttyS5] ".
type prefixHandler struct {
	handler slog.Handler
	module  string
	device  string
}

func (h *prefixHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *prefixHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	var rest []slog.Attr
	for _, attr := range attrs {
		switch attr.Key {
		case "module":
			next.module = attr.Value.String()
		case "device":
			next.device = path.Base(attr.Value.String())
		default:
			rest = append(rest, attr)
		}
	}
	next.handler = h.handler.WithAttrs(rest)
	return &next
}

func (h *prefixHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.handler = h.handler.WithGroup(name)
	return &next
}

func (h *prefixHandler) prefix() string {
	switch {
	case h.module != "" && h.device != "":
		return "[" + h.module + " " + h.device + "] "
	case h.module != "":
		return "[" + h.module + "] "
	case h.device != "":
		return "[" + h.device + "] "
	}
	return ""
}

func (h *prefixHandler) Handle(ctx context.Context, r slog.Record) error {
	prefix := h.prefix()
	if prefix == "" {
		return h.handler.Handle(ctx, r)
	}
	out := slog.NewRecord(r.Time, r.Level, prefix+r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(a)
		return true
	})
	return h.handler.Handle(ctx, out)
}

// Options controls the handler built by New.
type Options struct {
	Level   slog.Level
	NoColor bool
}

// New returns a colored, prefixed logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	return slog.New(&prefixHandler{
		handler: tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		}),
	})
}

// Setup builds a logger with New and makes it the slog default.
func Setup(w io.Writer, opts Options) *slog.Logger {
	logger := New(w, opts)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel accepts debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
