// Package storage is the artifact store boundary: durable blobs
// addressed by opaque refs, with presigned URLs for client access.
package storage

import "context"

type Store interface {
	// Upload persists data and returns the new opaque ref.
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
	// Download reads a blob back by ref.
	Download(ctx context.Context, ref string) ([]byte, error)
	// PresignUpload issues a short-lived URL a client can PUT a blob
	// to, together with the ref the blob will live under.
	PresignUpload(ctx context.Context, contentType string) (string, string, error)
	// Resolve returns a time-limited download URL for a ref.
	Resolve(ctx context.Context, ref string) (string, error)
	// Delete removes a blob. Deleting an unknown ref is not an error.
	Delete(ctx context.Context, ref string) error
}
