// Package testutil provides shared test helpers: a logger bound to the test
// and a diagnostic sink that records what it receives.
package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/leapstack-labs/h5pup/pkg/core"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
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

// RecordingSink is a core.DiagnosticSink that keeps every diagnostic.
type RecordingSink struct {
	mu          sync.Mutex
	diagnostics []core.Diagnostic
}

// Report records d.
func (s *RecordingSink) Report(d core.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, d)
}

// Diagnostics returns a copy of the recorded diagnostics.
func (s *RecordingSink) Diagnostics() []core.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out
}
