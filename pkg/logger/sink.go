package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Sink is a named log destination that writes detailed records to a file and
// bare messages to a console writer. It is acquired once per worker and released
// with Close on shutdown.
type Sink struct {
	name   string
	file   io.WriteCloser
	logger *slog.Logger
}

// OpenSink creates (or truncates) the log file at path and returns a sink whose
// logger fans out to that file and to stdout.
func OpenSink(name, path, level string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return NewSink(name, f, os.Stdout, level), nil
}

// NewSink builds a sink over arbitrary writers. file is closed by Close.
func NewSink(name string, file io.WriteCloser, console io.Writer, level string) *Sink {
	lvl := ParseLevel(level)
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: true,
	}).WithAttrs([]slog.Attr{slog.String("client", name)})

	consoleHandler := &messageHandler{w: console, level: lvl, mu: &sync.Mutex{}}

	return &Sink{
		name:   name,
		file:   file,
		logger: slog.New(&fanoutHandler{handlers: []slog.Handler{fileHandler, consoleHandler}}),
	}
}

// Name returns the sink name
func (s *Sink) Name() string {
	return s.name
}

// Logger returns the sink's logger
func (s *Sink) Logger() *slog.Logger {
	return s.logger
}

// Close releases the log file
func (s *Sink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// messageHandler writes only the record message, one per line.
type messageHandler struct {
	w     io.Writer
	level slog.Level
	mu    *sync.Mutex
}

func (h *messageHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

func (h *messageHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, r.Message)
	return err
}

func (h *messageHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *messageHandler) WithGroup(_ string) slog.Handler      { return h }

type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
