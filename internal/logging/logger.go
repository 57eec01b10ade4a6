// Package logging provides structured logging configuration using log/slog.
//
// Every quality control pass carries a run ID. The ID is stored in the
// context under chi's RequestID key so that the same FromContext helper
// works for batch runs and for any HTTP surface built on chi.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup configures the global slog logger based on level and format and
// writes every entry to w.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRunID returns a context carrying the run ID of a quality control pass.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, middleware.RequestIDKey, runID)
}

// RunID returns the run ID stored in ctx, or "" when there is none.
func RunID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// FromContext returns a logger enriched with the run ID found in ctx.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Info("rule finished", "rule", name, "violations", n)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if runID := middleware.GetReqID(ctx); runID != "" {
		logger = logger.With("run_id", runID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	ruleLogger := logging.WithFields(ctx, "rule", rule.Name())
//	ruleLogger.Debug("rule started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
