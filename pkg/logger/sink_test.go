package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestSinkFanOut(t *testing.T) {
	file := &closeRecorder{}
	var console bytes.Buffer

	sink := NewSink("LowInputClient0", file, &console, "info")
	sink.Logger().Info("Starting iteration 1", "iteration", 1)

	if got := console.String(); got != "Starting iteration 1\n" {
		t.Errorf("expected bare message on console, got %q", got)
	}

	out := file.String()
	if !strings.Contains(out, "Starting iteration 1") {
		t.Errorf("expected message in file output, got %q", out)
	}
	if !strings.Contains(out, "client=LowInputClient0") {
		t.Errorf("expected client attribute in file output, got %q", out)
	}
	if !strings.Contains(out, "iteration=1") {
		t.Errorf("expected iteration attribute in file output, got %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Errorf("expected source location in file output, got %q", out)
	}
}

func TestSinkLevelFiltering(t *testing.T) {
	file := &closeRecorder{}
	var console bytes.Buffer

	sink := NewSink("w", file, &console, "warn")
	sink.Logger().Info("hidden")
	sink.Logger().Warn("shown")

	if strings.Contains(console.String(), "hidden") || strings.Contains(file.String(), "hidden") {
		t.Error("expected info message to be filtered at warn level")
	}
	if !strings.Contains(console.String(), "shown") {
		t.Error("expected warn message on console")
	}
}

func TestSinkClose(t *testing.T) {
	file := &closeRecorder{}
	sink := NewSink("w", file, &bytes.Buffer{}, "info")
	if err := sink.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if !file.closed {
		t.Error("expected file to be closed")
	}

	var nilSink *Sink
	if err := nilSink.Close(); err != nil {
		t.Errorf("expected nil sink Close to be a no-op, got %v", err)
	}
}

func TestOpenSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.txt")
	sink, err := OpenSink("worker", path, "debug")
	if err != nil {
		t.Fatalf("OpenSink failed: %v", err)
	}
	sink.Logger().Debug("Connected to TMInterface0")
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "Connected to TMInterface0") {
		t.Errorf("expected log file to contain message, got %q", string(data))
	}
}

func TestOpenSinkBadPath(t *testing.T) {
	_, err := OpenSink("w", filepath.Join(t.TempDir(), "missing", "dir", "log.txt"), "info")
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestParseLevelString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in).String(); got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
