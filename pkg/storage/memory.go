package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// Memory is an in-memory Storage implementation for tests and local
// development. Signed URLs are synthetic but carry a real expiry instant.
type Memory struct {
	mu      sync.RWMutex
	public  map[string][]byte
	private map[string][]byte

	// PutErr, DeleteErr and SignErr, when set, force the corresponding
	// operation to fail. SignErrOnce makes SignErr fire a single time,
	// which exercises the issuer's single-retry path.
	PutErr      error
	DeleteErr   error
	SignErr     error
	SignErrOnce bool
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{
		public:  make(map[string][]byte),
		private: make(map[string][]byte),
	}
}

func (m *Memory) bucket(public bool) map[string][]byte {
	if public {
		return m.public
	}
	return m.private
}

// Put stores the blob in the selected in-memory bucket.
func (m *Memory) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error) {
	o := &putOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.key == "" {
		return nil, ErrKeyRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return nil, m.PutErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	contentType := o.contentType
	if contentType == "" {
		contentType = DetectBytes(data)
	}

	m.bucket(o.public)[o.key] = data

	bucket := "private"
	if o.public {
		bucket = "public"
	}

	return &FileInfo{
		Key:         o.key,
		Bucket:      bucket,
		ContentType: contentType,
		Size:        int64(len(data)),
		Public:      o.public,
	}, nil
}

// Get retrieves a stored blob.
func (m *Memory) Get(ctx context.Context, key string, public bool) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.bucket(public)[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a stored blob. Deleting a missing key is not an error,
// matching S3 DeleteObject semantics.
func (m *Memory) Delete(ctx context.Context, key string, public bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	delete(m.bucket(public), key)
	return nil
}

// SignedURL returns a synthetic time-bounded URL for a stored blob.
func (m *Memory) SignedURL(ctx context.Context, key string, opts ...URLOption) (*SignedURL, error) {
	o := &urlOptions{
		ttl: DefaultSignedTTL,
	}
	for _, opt := range opts {
		opt(o)
	}

	m.mu.Lock()
	if m.SignErr != nil {
		err := m.SignErr
		if m.SignErrOnce {
			m.SignErr = nil
		}
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrPresignFailed, err)
	}
	_, ok := m.bucket(o.public)[key]
	m.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}

	expiresAt := time.Now().Add(o.ttl)
	u := fmt.Sprintf("https://storage.test/sign/%s?expires=%d", url.PathEscape(key), expiresAt.Unix())
	if o.downloadName != "" {
		u += "&download=" + url.QueryEscape(o.downloadName)
	}

	return &SignedURL{URL: u, ExpiresAt: expiresAt}, nil
}

// PublicURL returns a synthetic permanent URL for a public blob.
func (m *Memory) PublicURL(key string) string {
	return "https://storage.test/public/" + key
}

// Len reports the number of blobs in the selected bucket.
func (m *Memory) Len(public bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bucket(public))
}

// Has reports whether a key exists in the selected bucket.
func (m *Memory) Has(key string, public bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.bucket(public)[key]
	return ok
}

// Ensure Memory implements Storage.
var _ Storage = (*Memory)(nil)
