package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	serviceName    = "helix-console"
	serviceVersion = "1.0.0"
)

// Exporter records console activity and pushes it to an OTEL Collector.
type Exporter struct {
	provider     *sdkmetric.MeterProvider
	apiCalls     metric.Int64Counter
	apiErrors    metric.Int64Counter
	runMessages  metric.Int64Counter
	runsStarted  metric.Int64Counter
	runCaseCount metric.Int64Histogram
}

// NewExporter creates the OTLP gRPC metrics exporter and installs it as the
// global meter provider.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	e, err := newExporter(ctx, sdkmetric.NewPeriodicReader(exp))
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

func newExporter(ctx context.Context, reader sdkmetric.Reader) (*Exporter, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)

	apiCalls, err := meter.Int64Counter(
		"helix_console_api_calls_total",
		metric.WithDescription("Backend requests issued by the console"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating api calls counter: %w", err)
	}

	apiErrors, err := meter.Int64Counter(
		"helix_console_api_errors_total",
		metric.WithDescription("Backend requests that failed or returned non-2xx"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating api errors counter: %w", err)
	}

	runMessages, err := meter.Int64Counter(
		"helix_console_run_messages_total",
		metric.WithDescription("Push channel messages received, by type"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run messages counter: %w", err)
	}

	runsStarted, err := meter.Int64Counter(
		"helix_console_runs_started_total",
		metric.WithDescription("Batches started from this console"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}

	runCaseCount, err := meter.Int64Histogram(
		"helix_console_run_cases",
		metric.WithDescription("Number of cases per started batch"),
		metric.WithUnit("{case}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating run cases histogram: %w", err)
	}

	return &Exporter{
		provider:     provider,
		apiCalls:     apiCalls,
		apiErrors:    apiErrors,
		runMessages:  runMessages,
		runsStarted:  runsStarted,
		runCaseCount: runCaseCount,
	}, nil
}

func (e *Exporter) RecordAPICall(ctx context.Context, operation string, status int, failed bool) {
	opt := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Int("status", status),
	)
	e.apiCalls.Add(ctx, 1, opt)
	if failed {
		e.apiErrors.Add(ctx, 1, opt)
	}
}

func (e *Exporter) RecordRunMessage(ctx context.Context, msgType string) {
	e.runMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", msgType)))
}

func (e *Exporter) RecordRunStarted(ctx context.Context, caseCount int) {
	e.runsStarted.Add(ctx, 1)
	e.runCaseCount.Record(ctx, int64(caseCount))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
