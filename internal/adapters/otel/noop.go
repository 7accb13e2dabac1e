package otel

import "context"

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordAPICall(context.Context, string, int, bool) {}

func (e *NoOpExporter) RecordRunMessage(context.Context, string) {}

func (e *NoOpExporter) RecordRunStarted(context.Context, int) {}

func (e *NoOpExporter) Close(context.Context) error {
	return nil
}
