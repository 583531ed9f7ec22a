package object

import (
	"context"
	"io"
)

// ObjectStore archives original uploads. Keys are opaque to callers.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
