// Package objstore wraps the S3-compatible object store behind a narrow
// interface: time-limited signed URLs, existence checks and batched deletes.
// It holds no state of its own beyond the client configuration.
package objstore

import "context"

// Store is the object storage gateway used by the services layer.
type Store interface {
	// PresignPut returns a time-limited URL granting a single PUT of the
	// object at key with the given content type.
	PresignPut(ctx context.Context, key, contentType string) (string, error)

	// PresignGet returns a time-limited download URL for key. When
	// downloadName is non-empty the response content disposition is set so
	// browsers save the file under that name.
	PresignGet(ctx context.Context, key, downloadName string) (string, error)

	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// DeleteBatch removes the given objects. Partial failure is possible;
	// callers decide whether it is fatal.
	DeleteBatch(ctx context.Context, keys []string) error

	// PurgeOwner removes every object stored under the owner's key prefix.
	PurgeOwner(ctx context.Context, ownerID string) error
}
