// Copyright Datarest Contributors (https://github.com/datarest)
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	level slog.LevelVar
	base  *slog.Logger
	once  sync.Once
)

// Logger returns a named logger for a server component.
// All loggers share one handler and level.
func Logger(name string) *slog.Logger {
	once.Do(func() {
		level.Set(ParseLevel(os.Getenv("DATAREST_LOG_LEVEL")))
		base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: &level,
		}))
	})

	return base.With("logger", name)
}

// SetLevel overrides the process log level at runtime.
func SetLevel(name string) {
	level.Set(ParseLevel(name))
}

// ParseLevel maps a level name to a slog level.
// Unknown names fall back to INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
