package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/emiliopalmerini/helix-console/internal/infrastructure/config"
	"github.com/emiliopalmerini/helix-console/internal/ports"
)

var (
	_ ports.ConsoleMetrics = (*Exporter)(nil)
	_ ports.ConsoleMetrics = (*NoOpExporter)(nil)
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := map[string][]metricdata.DataPoint[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				out[m.Name] = sum.DataPoints
			}
		}
	}
	return out
}

func total(points []metricdata.DataPoint[int64]) int64 {
	var n int64
	for _, p := range points {
		n += p.Value
	}
	return n
}

func TestExporter_RecordsCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	e, err := newExporter(context.Background(), reader)
	if err != nil {
		t.Fatalf("newExporter failed: %v", err)
	}
	defer func() { _ = e.Close(context.Background()) }()

	ctx := context.Background()
	e.RecordAPICall(ctx, "cases.list", 200, false)
	e.RecordAPICall(ctx, "cases.list", 200, false)
	e.RecordAPICall(ctx, "run.start", 500, true)
	e.RecordRunMessage(ctx, "update")
	e.RecordRunMessage(ctx, "update")
	e.RecordRunMessage(ctx, "done")
	e.RecordRunStarted(ctx, 4)

	sums := collectSums(t, reader)
	if got := total(sums["helix_console_api_calls_total"]); got != 3 {
		t.Errorf("api calls = %d, want 3", got)
	}
	if got := total(sums["helix_console_api_errors_total"]); got != 1 {
		t.Errorf("api errors = %d, want 1", got)
	}
	if got := total(sums["helix_console_runs_started_total"]); got != 1 {
		t.Errorf("runs started = %d, want 1", got)
	}

	byType := map[string]int64{}
	for _, p := range sums["helix_console_run_messages_total"] {
		v, _ := p.Attributes.Value(attribute.Key("type"))
		byType[v.AsString()] = p.Value
	}
	if byType["update"] != 2 || byType["done"] != 1 {
		t.Errorf("unexpected run messages by type: %v", byType)
	}
}

func TestNewExporter_Disabled(t *testing.T) {
	if _, err := NewExporter(context.Background(), Config{}); err == nil {
		t.Error("expected error when disabled")
	}
	if _, err := NewExporter(context.Background(), Config{Enabled: true}); err == nil {
		t.Error("expected error without endpoint")
	}
}

func TestConfigFrom(t *testing.T) {
	got := ConfigFrom(config.Telemetry{Enabled: true, Endpoint: "collector:4317", Insecure: true})
	want := Config{Endpoint: "collector:4317", Enabled: true, Insecure: true}
	if got != want {
		t.Errorf("ConfigFrom = %+v, want %+v", got, want)
	}
}
