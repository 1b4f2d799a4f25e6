package ports

import (
	"context"
	"io"
)

// FileStore keeps uploaded audio. Keys are forward-slash separated and
// relative to the store root. A missing key is reported as os.ErrNotExist.
type FileStore interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
