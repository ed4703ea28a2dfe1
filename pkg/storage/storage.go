package storage

import (
	"context"
	"io"
	"time"
)

// Storage is the physical blob backend: put/get/delete at a key, plus the
// URL primitives the signed-URL issuer builds on. Implementations keep two
// distinct buckets; which one a blob lands in is decided by the caller's
// visibility choice at upload time and never changes afterwards.
type Storage interface {
	// Put uploads data from a reader to storage.
	// The key is mandatory (derived by the path resolver, never auto-generated)
	// and the size is used for the content-length header.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error)

	// Get retrieves a blob. The caller must close the returned reader.
	Get(ctx context.Context, key string, public bool) (io.ReadCloser, error)

	// Delete removes a blob from the public or private bucket.
	Delete(ctx context.Context, key string, public bool) error

	// SignedURL generates a time-bounded URL for a private blob.
	// TTL and download disposition are set via URLOptions.
	SignedURL(ctx context.Context, key string, opts ...URLOption) (*SignedURL, error)

	// PublicURL returns the permanent URL for a blob in the public bucket.
	PublicURL(key string) string
}

// Config holds S3-compatible storage configuration.
type Config struct {
	// PublicBucket holds blobs reachable via permanent URLs (required).
	PublicBucket string `env:"STORAGE_PUBLIC_BUCKET,required"`

	// PrivateBucket holds blobs reachable only via signed URLs (required).
	PrivateBucket string `env:"STORAGE_PRIVATE_BUCKET,required"`

	// AccessKey is the access key ID (required).
	AccessKey string `env:"STORAGE_ACCESS_KEY,required"`

	// SecretKey is the secret access key (required).
	SecretKey string `env:"STORAGE_SECRET_KEY,required"`

	// Endpoint is a custom S3 endpoint URL (optional, for MinIO and friends).
	Endpoint string `env:"STORAGE_ENDPOINT"`

	// Region is the AWS region.
	Region string `env:"STORAGE_REGION" envDefault:"us-east-1"`

	// PublicURL is the CDN or public URL prefix for the public bucket (optional).
	// If set, public URLs use this prefix instead of the S3 URL.
	PublicURL string `env:"STORAGE_PUBLIC_URL"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"STORAGE_PATH_STYLE"`
}

// FileInfo contains metadata about an uploaded blob.
type FileInfo struct {
	// Key is the storage key (path) for the blob.
	Key string

	// Bucket is the bucket the blob was written to.
	Bucket string

	// ContentType is the detected or supplied MIME type.
	ContentType string

	// Size is the blob size in bytes.
	Size int64

	// Public reports whether the blob lives in the public bucket.
	Public bool
}

// SignedURL is a time-bounded URL for a private blob.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// DefaultSignedTTL is the signed URL lifetime used when no TTL option is given.
const DefaultSignedTTL = 15 * time.Minute

// validate checks that required configuration fields are set.
func (c *Config) validate() error {
	if c.PublicBucket == "" || c.PrivateBucket == "" {
		return ErrInvalidConfig
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	return nil
}
