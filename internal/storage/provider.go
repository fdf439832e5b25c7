package storage

import (
	"context"
	"io"
)

// Provider acquires destinations for encoded output.
type Provider interface {
	// Create returns a writer streaming to key. The destination is complete
	// only once Close returns nil; remote providers report upload failures there.
	Create(ctx context.Context, key, contentType string) (io.WriteCloser, error)

	// Open opens a stored object for reading.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// URL returns a viewable/downloadable location for key.
	URL(key string) string
}
