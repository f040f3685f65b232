package testhelpers

import (
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/fitplan/internal/logging"
)

// NewLogger creates a debug level logger writing to logSink, usually a [Writer].
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}

// NewTestLogger is shorthand for NewLogger(NewWriter(t)).
func NewTestLogger(t *testing.T) *slog.Logger {
	return NewLogger(NewWriter(t))
}
