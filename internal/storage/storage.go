package storage

import (
	"context"
	"io"
)

// Storage persists uploaded recipe images.
type Storage interface {
	// Write stores content from the reader with the given key.
	// size is the expected content size, -1 if unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes the content with the given key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for a stored key.
	URL(key string) string
}
