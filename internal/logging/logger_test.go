package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))
	logger = WithComponent(logger, "transfer")

	logger.Info("sweep complete", Args(Int("attempted", 3), Error(errors.New("partial failure")))...)

	line := buf.String()
	if !strings.Contains(line, " INFO transfer: sweep complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "attempted=3") {
		t.Fatalf("missing attr in line: %q", line)
	}
	if !strings.Contains(line, `error="partial failure"`) {
		t.Fatalf("missing quoted error in line: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Fatalf("info line should be suppressed: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should report disabled")
	}
}
