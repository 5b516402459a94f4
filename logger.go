package envmap

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled reports false so callers skip attribute formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the package logger. Accessed atomically so that SetLogger
// may race with logging from the update path.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for envmap and the registered compute
// backend. By default envmap produces no log output.
//
// Pass nil to restore the silent default.
//
// Log levels used by envmap:
//   - [slog.LevelDebug]: per-update diagnostics (frustum extent, admission)
//   - [slog.LevelInfo]: lifecycle events (mapper created, GPU adapter selected)
//   - [slog.LevelWarn]: dropped updates, backend fallbacks, degraded mappers
//
// Example:
//
//	envmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	if b := RegisteredBackend(); b != nil {
		propagateLogger(b, l)
	}
}

// Logger returns the current package logger. The gpu sub-package uses it to
// report registration failures without an import cycle.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by compute backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger hands l to b if b accepts a logger. Called from SetLogger
// and RegisterBackend so the backend always logs through the current logger.
func propagateLogger(b ComputeBackend, l *slog.Logger) {
	if ls, ok := b.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
