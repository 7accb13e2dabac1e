package ports

import "context"

// ConsoleMetrics records console activity to an external observability system.
type ConsoleMetrics interface {
	// RecordAPICall counts one backend request; failed is true for transport
	// errors and non-2xx answers.
	RecordAPICall(ctx context.Context, operation string, status int, failed bool)
	// RecordRunMessage counts one push channel message by its type tag.
	RecordRunMessage(ctx context.Context, msgType string)
	RecordRunStarted(ctx context.Context, caseCount int)
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
