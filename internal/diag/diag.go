// Package diag reports non-fatal diagnostics.
//
// A diagnostic is a recoverable problem: the operation that hit it continues
// with a safe fallback (identity, no-op, skip). Diagnostics are logged at
// WARN through log/slog with a "code" attribute and counted in
// rex_diagnostics_total.
package diag

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/vango-dev/rex/internal/errors"
	"github.com/vango-dev/rex/pkg/metrics"
)

var logger atomic.Pointer[slog.Logger]

// Logger returns the logger used for diagnostics.
// If none was set, slog.Default() is used.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// SetLogger replaces the diagnostics logger and returns the previous one.
// Passing nil restores slog.Default().
func SetLogger(l *slog.Logger) *slog.Logger {
	old := logger.Swap(l)
	if old == nil {
		return slog.Default()
	}
	return old
}

// Report logs a diagnostic for a registered code.
func Report(code string, msg string, attrs ...any) {
	metrics.RecordDiagnostic(code)

	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.String("code", code))
	args = append(args, attrs...)

	if msg == "" {
		if t, ok := errors.GetTemplate(code); ok {
			msg = t.Message
		}
	}
	Logger().Log(context.Background(), slog.LevelWarn, msg, args...)
}

// ReportError logs a coded error as a diagnostic.
func ReportError(err error, attrs ...any) {
	if err == nil {
		return
	}
	code := errors.CodeOf(err)
	attrs = append(attrs, slog.String("error", err.Error()))
	Report(code, "", attrs...)
}

// Debug logs a debug-level message on the diagnostics logger.
func Debug(msg string, attrs ...any) {
	Logger().Debug(msg, attrs...)
}
