// Package jwtlog is the library's structured-logging concern, scoped down
// to what the validation pipeline needs: warn-level diagnostics for
// rejected tokens. It never logs a raw token or key material.
package jwtlog

import (
	"log/slog"
	"os"
	"sync"
)

var (
	once   sync.Once
	global *slog.Logger
)

// Init sets up the package logger. level is one of "debug", "info", "warn",
// "error"; format is "json" or "text". Safe to call once; later calls are
// no-ops.
func Init(level, format string) {
	once.Do(func() {
		global = build(level, format)
	})
}

func build(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: redact}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("component", "jwtcore"))
}

// redact is a hook point for scrubbing sensitive attribute values before
// they reach the handler. No field logged by this package currently carries
// secret material, but call sites that add attributes should route through
// here rather than bypass the logger.
func redact(_ []string, a slog.Attr) slog.Attr {
	return a
}

// L returns the package logger, initializing a default info/json logger on
// first use if Init was never called.
func L() *slog.Logger {
	if global == nil {
		Init("info", "json")
	}
	return global
}
