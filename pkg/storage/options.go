package storage

// Option configures Put operations.
type Option func(*putOptions)

// putOptions holds configuration for Put operations.
type putOptions struct {
	key         string // Storage key, derived by the path resolver
	contentType string // Override detected content type
	public      bool   // Target the public bucket
}

// WithKey sets the storage key for the upload.
// Keys are derived by the path resolver; Put fails with ErrKeyRequired
// when no key is provided.
func WithKey(key string) Option {
	return func(o *putOptions) {
		o.key = key
	}
}

// WithPublic targets the public bucket instead of the private one.
// The choice is permanent: later visibility edits change access rules,
// not the blob's physical location.
func WithPublic() Option {
	return func(o *putOptions) {
		o.public = true
	}
}

// WithContentType overrides the auto-detected content type.
// Use sparingly; detection from magic bytes is preferred.
func WithContentType(ct string) Option {
	return func(o *putOptions) {
		o.contentType = ct
	}
}
