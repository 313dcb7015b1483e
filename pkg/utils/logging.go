package utils

import (
	"context"
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// NewLogger writes JSON records to w. With bridge set, records are also sent
// to the global OpenTelemetry logger provider under name.
func NewLogger(w io.Writer, verbose bool, name string, bridge bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	if bridge {
		otel := slogmulti.Router().
			Add(otelslog.NewHandler(name), func(_ context.Context, r slog.Record) bool {
				return r.Level >= level
			}).
			Handler()
		handler = slogmulti.Fanout(handler, otel)
	}
	return slog.New(handler)
}
