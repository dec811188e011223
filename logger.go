package boardview

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the package default logger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the default logger for engines that were not given
// one with WithLogger. By default boardview produces no log output.
// Pass nil to restore the silent default.
//
// Log levels used by boardview:
//   - [slog.LevelDebug]: rebuild reports, hover and drag transitions, GPU uploads
//   - [slog.LevelInfo]: device attach and detach
//   - [slog.LevelWarn]: skipped component records, rejected options
//
// Engines created before the call keep the logger they started with; use
// Engine.SetLogger to change a live engine.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the package default logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by attached renderers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes l to r if it implements loggerSetter.
func propagateLogger(r any, l *slog.Logger) {
	if ls, ok := r.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
