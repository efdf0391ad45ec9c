// Package logging builds the slog loggers used by the binaries. Logs always go
// to stderr because stdout carries the programs' output.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

type Options struct {
	Debug bool
	// JSON selects machine-readable output, e.g. when running under systemd.
	JSON bool
}

func (o Options) level() slog.Level {
	if o.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func New(w io.Writer, app string, opts Options) *slog.Logger {
	if opts.JSON {
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: opts.level(),
		})
		return slog.New(h).With("app", app)
	}

	h := tint.NewHandler(w, &tint.Options{
		Level:      opts.level(),
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("app", app)
}
