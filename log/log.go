// Package log is a thin wrapper around log/slog shared by the buffer and
// index packages, so pool admission/eviction and index structural changes
// (splits, directory growth) emit consistent, attributable log lines.
package log

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
}

// SetDefault replaces the package-wide logger, e.g. to raise the level to
// Debug in tests or to redirect output to a buffer.
func SetDefault(l *slog.Logger) {
	logger.Store(l)
}

// Component returns a logger scoped to a named subsystem, e.g.
// log.Component("buffer") or log.Component("hash").
func Component(name string) *slog.Logger {
	return logger.Load().With("component", name)
}
