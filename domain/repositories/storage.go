package repositories

import "context"

// ObjectStorage persists input and output audio. The pipeline never writes
// to disk directly.
type ObjectStorage interface {
	// Upload stores the bytes under key and returns a URL callers can hand
	// back to clients.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	IsConfigured() bool
}
