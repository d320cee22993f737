// Package testutil provides test utilities for structured logging.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes to t.Log(), so
// agent and store log lines only appear on test failure or with -v.
// Timestamps are stripped; t.Log already locates the output.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
