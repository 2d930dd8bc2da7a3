// Package storage defines the interface for object storage operations.
// The MinIO implementation works with any S3-compatible provider; the
// in-memory implementation backs local runs and tests.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrExists is returned by Upload when overwrite is disabled and the key is taken.
var ErrExists = errors.New("object already exists")

// Storage is the blob store used for uploaded media.
type Storage interface {
	// Upload streams data to the store under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, overwrite bool) error
	// Delete removes every listed key. Keys that do not exist are ignored.
	Delete(ctx context.Context, keys []string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
