package ports

import "context"

// RunChannel is an open push channel for one batch.
type RunChannel interface {
	// ReadMessage blocks until the next frame arrives, the channel fails or
	// ctx is done.
	ReadMessage(ctx context.Context) ([]byte, error)
	Close() error
}

type RunChannelDialer interface {
	Dial(ctx context.Context, batchID string) (RunChannel, error)
}
