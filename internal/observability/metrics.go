package observability

import (
	"context"
	"sync"
	"time"

	"lingotext/internal/config"
	contextutils "lingotext/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *sdkmetric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otel resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch cfg.Protocol {
	case "grpc":
		exp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			func() otlpmetricgrpc.Option {
				if cfg.Insecure {
					return otlpmetricgrpc.WithInsecure()
				}
				return nil
			}(),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		exp, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			func() otlpmetrichttp.Option {
				if cfg.Insecure {
					return otlpmetrichttp.WithInsecure()
				}
				return nil
			}(),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", cfg.Protocol)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)
	return mp, nil
}

// Domain instruments. Created lazily against the global meter provider so
// they work as no-ops when metrics are disabled.
var (
	instrumentsOnce   sync.Once
	submissionsGraded metric.Int64Counter
	pdfJobsProcessed  metric.Int64Counter
	pdfMergeDuration  metric.Float64Histogram
)

func instruments() {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("lingotext")

		var err error
		submissionsGraded, err = meter.Int64Counter("lingotext.submissions.graded",
			metric.WithDescription("Exercise submissions graded, by exercise type and fallback"))
		if err != nil {
			otel.Handle(err)
		}
		pdfJobsProcessed, err = meter.Int64Counter("lingotext.pdf.jobs.processed",
			metric.WithDescription("Textbook PDF jobs processed, by outcome"))
		if err != nil {
			otel.Handle(err)
		}
		pdfMergeDuration, err = meter.Float64Histogram("lingotext.pdf.merge.duration",
			metric.WithDescription("Time to render, merge and upload one textbook lesson"),
			metric.WithUnit("s"))
		if err != nil {
			otel.Handle(err)
		}
	})
}

// RecordSubmissionGraded counts one graded submission
func RecordSubmissionGraded(ctx context.Context, exerciseType string, fallback bool) {
	instruments()
	if submissionsGraded == nil {
		return
	}
	submissionsGraded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("exercise_type", exerciseType),
		attribute.Bool("fallback", fallback),
	))
}

// RecordPDFJobProcessed counts one PDF queue job outcome
func RecordPDFJobProcessed(ctx context.Context, success bool) {
	instruments()
	if pdfJobsProcessed == nil {
		return
	}
	pdfJobsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordPDFMergeDuration records how long one textbook update took
func RecordPDFMergeDuration(ctx context.Context, d time.Duration) {
	instruments()
	if pdfMergeDuration == nil {
		return
	}
	pdfMergeDuration.Record(ctx, d.Seconds())
}
