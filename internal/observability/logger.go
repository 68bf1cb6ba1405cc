package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger: debug text in dev for humans,
// info JSON elsewhere for the aggregator. Every line carries the
// service name and, when a span is active, its trace ids.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	if env == "dev" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(NewTraceHandler(handler)).With("service", "memberhub")
}
