package storage

import (
	"context"
	"errors"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrObjectNotFound is returned when a key has no object behind it.
var ErrObjectNotFound = errors.New("object not found in storage")

// FileStorage defines the interface for object storage operations.
// Catalog images are uploaded and served directly by the provider through presigned URLs.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that accepts a PUT
	// of exactly contentType at objectKey.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary GET URL for objectKey.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// StatObject returns the metadata of an uploaded object, or ErrObjectNotFound.
	StatObject(ctx context.Context, objectKey string) (*ObjectMetadata, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// ObjectMetadata describes a stored object.
type ObjectMetadata struct {
	Size         int64
	ContentType  string
	LastModified time.Time
}
