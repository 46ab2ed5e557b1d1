package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the JSON logger every process shares. Records
// emitted inside an active span carry the trace and span ids so log
// lines can be joined with traces.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	json := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(&spanHandler{inner: json})
}
