package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromContext_RunID(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup("info", "text", &buf)

	ctx := WithRunID(context.Background(), "run-123")
	if got := RunID(ctx); got != "run-123" {
		t.Fatalf("RunID = %q, want %q", got, "run-123")
	}

	FromContext(ctx).Info("pass started")

	if !strings.Contains(buf.String(), "run_id=run-123") {
		t.Errorf("log output %q does not contain run_id", buf.String())
	}
}

func TestSetup_JSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup("debug", "json", &buf)

	WithFields(context.Background(), "rule", "depth").Debug("rule started")

	out := buf.String()
	if !strings.Contains(out, `"rule":"depth"`) {
		t.Errorf("json output %q missing rule field", out)
	}
}
