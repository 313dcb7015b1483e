package maildir

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/olafkfreund/comunicado-sub006/pkg/maildir"

const (
	directionExport = "export"
	directionImport = "import"

	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeDuplicate = "duplicate"
)

type telemetry struct {
	tracer   trace.Tracer
	messages metric.Int64Counter
	bytes    metric.Int64Counter
}

// newTelemetry binds to the global providers, which are no-ops until SetupOTelSDK runs.
func newTelemetry() *telemetry {
	meter := otel.Meter(instrumentationName)
	messages, err := meter.Int64Counter("maildir.messages",
		metric.WithDescription("Messages processed by Maildir export and import"))
	if err != nil {
		messages = noop.Int64Counter{}
	}
	bytes, err := meter.Int64Counter("maildir.bytes_written",
		metric.WithDescription("Bytes written by Maildir export"),
		metric.WithUnit("By"))
	if err != nil {
		bytes = noop.Int64Counter{}
	}
	return &telemetry{
		tracer:   otel.Tracer(instrumentationName),
		messages: messages,
		bytes:    bytes,
	}
}

func (t *telemetry) message(ctx context.Context, direction, outcome string) {
	t.messages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("outcome", outcome),
	))
}

func (t *telemetry) written(ctx context.Context, n int64) {
	t.bytes.Add(ctx, n)
}
