package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process logger. prod gets JSON lines, everything else a
// human readable text handler.
func New(service, env string) *slog.Logger {
	return newWithWriter(os.Stdout, service, env)
}

func newWithWriter(w io.Writer, service, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var h slog.Handler
	if env == "prod" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// Discard is used by tests and tools that do not care about log output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
