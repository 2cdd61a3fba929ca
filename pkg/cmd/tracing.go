package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/flowgate/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
)

// NewTracer returns an OTLP-exporting tracer when enabled and a no-op tracer
// otherwise. The shutdown function is always safe to call.
func NewTracer(ctx context.Context, logger *slog.Logger, enabled bool) (trace.Tracer, otelhelper.ShutdownFunc) {
	noop := func(context.Context) error { return nil }

	if !enabled {
		return otelhelper.NoopTracer(), noop
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.WarnContext(ctx, "Tracing disabled, exporter setup failed", "error", err)

		return otelhelper.NoopTracer(), noop
	}

	return tracer, shutdown
}
