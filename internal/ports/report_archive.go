package ports

import "context"

type ReportArchive interface {
	Store(ctx context.Context, batchID string, data []byte) (storedPath string, err error)
	Get(ctx context.Context, batchID string) ([]byte, error)
	Delete(ctx context.Context, batchID string) error
	Exists(ctx context.Context, batchID string) (bool, error)
}
