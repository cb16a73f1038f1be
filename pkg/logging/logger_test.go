package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelInfo, false)
	defer SetLevel(slog.LevelInfo)

	New("ingest").Warn("skipping record", "category", "tgw-attachments", "error", errors.New("boom"))

	line := buf.String()
	if !strings.HasPrefix(line, "[WARN]  ") {
		t.Errorf("Expected WARN prefix, got %q", line)
	}
	if !strings.Contains(line, "ingest: skipping record") {
		t.Errorf("Expected component prefix, got %q", line)
	}
	if !strings.Contains(line, `category=tgw-attachments`) || !strings.Contains(line, `error="boom"`) {
		t.Errorf("Expected formatted attributes, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelInfo, false)
	defer SetLevel(slog.LevelInfo)

	New("test").Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("Debug record should be filtered at info level, got %q", buf.String())
	}

	Configure(&buf, LevelTrace, false)
	New("test").Trace("visible")
	if !strings.HasPrefix(buf.String(), "[TRACE]") {
		t.Errorf("Expected trace record, got %q", buf.String())
	}
}

func TestContextIDs(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelInfo, false)
	defer SetLevel(slog.LevelInfo)

	ctx := WithRunID(context.Background(), "0123456789abcdef")
	ctx = WithRequestID(ctx, "fedcba9876543210")
	InfoContext(ctx, "run complete")

	line := buf.String()
	if !strings.Contains(line, "run=01234567") || !strings.Contains(line, "req=fedcba98") {
		t.Errorf("Expected shortened IDs, got %q", line)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  slog.Level
	}{
		{"", 0, slog.LevelInfo},
		{"", 1, slog.LevelDebug},
		{"", 3, LevelTrace},
		{"warn", 2, slog.LevelWarn},
		{"ERROR", 0, slog.LevelError},
		{"bogus", 0, slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.name, tt.count); got != tt.want {
			t.Errorf("ParseLevel(%q, %d) = %v, want %v", tt.name, tt.count, got, tt.want)
		}
	}
}
