package storage

import "time"

// URLOption configures signed URL generation.
type URLOption func(*urlOptions)

// urlOptions holds configuration for signed URL generation.
type urlOptions struct {
	downloadName string        // Filename for Content-Disposition: attachment
	ttl          time.Duration // Signed URL lifetime
	public       bool          // Sign against the public bucket
}

// WithTTL sets the lifetime for the signed URL.
// Default is DefaultSignedTTL.
func WithTTL(d time.Duration) URLOption {
	return func(o *urlOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithDownload sets the filename for the Content-Disposition: attachment
// header, forcing the browser to download the file under that name.
func WithDownload(filename string) URLOption {
	return func(o *urlOptions) {
		o.downloadName = filename
	}
}

// FromPublic signs against the public bucket instead of the private one.
// Needed to force a download disposition on a blob that lives in the
// public bucket, where the permanent URL cannot carry response headers.
func FromPublic() URLOption {
	return func(o *urlOptions) {
		o.public = true
	}
}
