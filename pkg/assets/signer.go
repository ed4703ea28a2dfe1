package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/assetvault/pkg/assetpath"
	"github.com/dmitrymomot/assetvault/pkg/storage"
)

// SignerConfig bounds signed URL issuance.
type SignerConfig struct {
	// MinTTL and MaxTTL clamp caller-requested lifetimes. Requests outside
	// the range are silently clamped, not rejected, so bulk callers get
	// uniform behavior.
	MinTTL time.Duration `env:"SIGNER_MIN_TTL" envDefault:"60s"`
	MaxTTL time.Duration `env:"SIGNER_MAX_TTL" envDefault:"24h"`

	// BackendTimeout bounds every storage backend call.
	BackendTimeout time.Duration `env:"SIGNER_BACKEND_TIMEOUT" envDefault:"10s"`

	// BulkWorkers is the fixed worker pool size for bulk issuance.
	BulkWorkers int `env:"SIGNER_BULK_WORKERS" envDefault:"8"`
}

func (c *SignerConfig) applyDefaults() {
	if c.MinTTL <= 0 {
		c.MinTTL = time.Minute
	}
	if c.MaxTTL < c.MinTTL {
		c.MaxTTL = 24 * time.Hour
	}
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = 10 * time.Second
	}
	if c.BulkWorkers <= 0 {
		c.BulkWorkers = 8
	}
}

// Grant is a granted access URL. ExpiresAt is nil for permanent public URLs.
type Grant struct {
	AssetID   uuid.UUID  `json:"asset_id"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// BulkItem is the outcome for one id in a bulk issuance call.
type BulkItem struct {
	AssetID uuid.UUID
	Grant   *Grant
	Err     error
}

// BulkResult aggregates a bulk issuance call: one item per requested id, in
// the original request order, plus success counters.
type BulkResult struct {
	Results    []BulkItem
	Successful int
	Total      int
}

// Signer issues time-bounded access URLs for assets. Every call re-reads the
// asset row and re-evaluates the access policy; decisions are never cached,
// so a concurrent visibility flip resolves to whichever state was read.
type Signer struct {
	store   Store
	backend storage.Storage
	policy  *Policy
	cfg     SignerConfig
	log     *slog.Logger
}

// NewSigner creates a Signer. A nil logger discards output.
func NewSigner(store Store, backend storage.Storage, policy *Policy, cfg SignerConfig, log *slog.Logger) *Signer {
	cfg.applyDefaults()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Signer{
		store:   store,
		backend: backend,
		policy:  policy,
		cfg:     cfg,
		log:     log,
	}
}

// IssueSingle issues an access URL for one asset. Public assets yield the
// stored permanent URL; private assets yield a signed URL with the requested
// TTL clamped into the configured bounds.
func (s *Signer) IssueSingle(ctx context.Context, assetID, requesterID uuid.UUID, role Role, ttl time.Duration) (Grant, error) {
	return s.issue(ctx, assetID, requesterID, role, ttl, "")
}

// IssueDownload issues an access URL that forces a Content-Disposition
// attachment filename. Public assets are signed too, since a permanent URL
// cannot carry response headers.
func (s *Signer) IssueDownload(ctx context.Context, assetID, requesterID uuid.UUID, role Role, filename string, ttl time.Duration) (Grant, error) {
	if err := assetpath.CheckFilename(filename); err != nil {
		return Grant{}, fmt.Errorf("%w: download filename: %v", ErrValidation, err)
	}
	return s.issue(ctx, assetID, requesterID, role, ttl, filename)
}

// IssueBulk issues access URLs for many assets with a bounded worker pool.
// Each id is processed independently: one denial, missing asset, or backend
// failure never aborts the rest. Results preserve the input order regardless
// of internal completion order.
func (s *Signer) IssueBulk(ctx context.Context, assetIDs []uuid.UUID, requesterID uuid.UUID, role Role, ttl time.Duration) BulkResult {
	results := make([]BulkItem, len(assetIDs))

	g := &errgroup.Group{}
	g.SetLimit(s.cfg.BulkWorkers)
	for i, assetID := range assetIDs {
		g.Go(func() error {
			grant, err := s.issue(ctx, assetID, requesterID, role, ttl, "")
			if err != nil {
				results[i] = BulkItem{AssetID: assetID, Err: err}
				return nil
			}
			results[i] = BulkItem{AssetID: assetID, Grant: &grant}
			return nil
		})
	}
	_ = g.Wait()

	successful := 0
	for _, r := range results {
		if r.Err == nil {
			successful++
		}
	}

	return BulkResult{
		Results:    results,
		Successful: successful,
		Total:      len(assetIDs),
	}
}

func (s *Signer) issue(ctx context.Context, assetID, requesterID uuid.UUID, role Role, ttl time.Duration, downloadName string) (Grant, error) {
	a, err := s.store.Get(ctx, assetID, false)
	if err != nil {
		return Grant{}, err
	}

	if !s.policy.CanAccess(a, requesterID, role) {
		return Grant{}, ErrAccessDenied
	}

	if a.Public() && downloadName == "" {
		return Grant{AssetID: a.ID, URL: s.backend.PublicURL(a.Location)}, nil
	}

	opts := []storage.URLOption{storage.WithTTL(s.clampTTL(ttl))}
	if downloadName != "" {
		opts = append(opts, storage.WithDownload(downloadName))
	}
	if a.Public() {
		opts = append(opts, storage.FromPublic())
	}

	signed, err := s.signWithRetry(ctx, a.Location, opts)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Row exists but the blob is gone - an orphan in the other
			// direction. Report it as missing, not as a backend fault.
			return Grant{}, fmt.Errorf("%w: blob missing for %s", ErrNotFound, assetID)
		}
		return Grant{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	expiresAt := signed.ExpiresAt
	return Grant{AssetID: a.ID, URL: signed.URL, ExpiresAt: &expiresAt}, nil
}

// signWithRetry presigns with a per-call timeout, retrying once. Presigning
// is an idempotent read, so a single retry cannot duplicate side effects.
func (s *Signer) signWithRetry(ctx context.Context, key string, opts []storage.URLOption) (*storage.SignedURL, error) {
	sign := func() (*storage.SignedURL, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.BackendTimeout)
		defer cancel()
		return s.backend.SignedURL(callCtx, key, opts...)
	}

	signed, err := sign()
	if err == nil || errors.Is(err, storage.ErrNotFound) || ctx.Err() != nil {
		return signed, err
	}

	s.log.WarnContext(ctx, "presign failed, retrying once",
		slog.String("key", key),
		slog.Any("error", err),
	)
	return sign()
}

// clampTTL bounds a caller-requested TTL into [MinTTL, MaxTTL].
func (s *Signer) clampTTL(ttl time.Duration) time.Duration {
	if ttl < s.cfg.MinTTL {
		return s.cfg.MinTTL
	}
	if ttl > s.cfg.MaxTTL {
		return s.cfg.MaxTTL
	}
	return ttl
}
