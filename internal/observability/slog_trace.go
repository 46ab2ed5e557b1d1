package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// spanHandler decorates records with the ids of the span found on the
// record's context, if any.
type spanHandler struct {
	inner slog.Handler
}

func (h *spanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *spanHandler) Handle(ctx context.Context, rec slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		rec.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return h.inner.Handle(ctx, rec)
}

func (h *spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *spanHandler) WithGroup(name string) slog.Handler {
	return &spanHandler{inner: h.inner.WithGroup(name)}
}
