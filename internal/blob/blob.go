package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a payload key has no stored raster.
var ErrNotFound = errors.New("blob not found")

// Store holds normalized raster payloads addressed by opaque keys of the
// form "<batchID>/<file>". Implementations must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every payload stored under the given batch prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
