package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/assetvault/pkg/assetpath"
	"github.com/dmitrymomot/assetvault/pkg/storage"
)

// UploadConfig constrains a batch of incoming files.
type UploadConfig struct {
	// MaxFileSize is the per-file size limit in bytes.
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"10485760"`

	// MaxFiles bounds the whole batch; exceeding it rejects the entire
	// request before any file is examined.
	MaxFiles int `env:"UPLOAD_MAX_FILES" envDefault:"10"`

	// AllowedTypes whitelists detected MIME types. Wildcards like
	// "image/*" are supported.
	AllowedTypes []string `env:"UPLOAD_ALLOWED_TYPES" envDefault:"image/*,application/pdf"`

	// BackendTimeout bounds each blob write.
	BackendTimeout time.Duration `env:"UPLOAD_BACKEND_TIMEOUT" envDefault:"30s"`
}

func (c *UploadConfig) applyDefaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 10 << 20
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = 10
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = []string{"image/*", "application/pdf"}
	}
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = 30 * time.Second
	}
}

// Rejection reason codes reported in FileDecision.Reason.
const (
	ReasonFileTooLarge   = "file_too_large"
	ReasonInvalidMIME    = "invalid_mime"
	ReasonEmptyFile      = "empty_file"
	ReasonUnsafeFilename = "unsafe_filename"
	ReasonBackendError   = "backend_error"
)

// UploadFile is one candidate file in an upload batch.
type UploadFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// FileDecision is the per-file outcome of an upload batch, parallel to the
// input slice. Accepted files that made it all the way through carry the
// created Asset.
type FileDecision struct {
	Filename string `json:"filename"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Asset    *Asset `json:"asset,omitempty"`
}

// FileCheck is the validator's view of one file: name, size, and the MIME
// type detected from magic bytes (never from the client-supplied header).
type FileCheck struct {
	Filename string
	Size     int64
	MIME     string
}

// ValidateFiles checks each file independently against the configured
// constraints. One failing file never blocks the others; the result slice
// parallels the input.
func ValidateFiles(checks []FileCheck, cfg UploadConfig) []FileDecision {
	cfg.applyDefaults()

	out := make([]FileDecision, len(checks))
	for i, c := range checks {
		out[i] = FileDecision{Filename: c.Filename}

		switch {
		case c.Size == 0:
			out[i].Reason = ReasonEmptyFile
		case c.Size > cfg.MaxFileSize:
			out[i].Reason = ReasonFileTooLarge
		case !storage.MatchMIME(c.MIME, cfg.AllowedTypes):
			out[i].Reason = ReasonInvalidMIME
		case assetpath.CheckFilename(c.Filename) != nil:
			out[i].Reason = ReasonUnsafeFilename
		default:
			out[i].Accepted = true
		}
	}
	return out
}

// UploadParams describes the batch being uploaded: who owns the files, what
// entity they hang off, and how they will be classified and accessed.
type UploadParams struct {
	OwnerID    uuid.UUID
	EntityType string
	EntityID   string
	Subfolder  string
	Type       Type
	Visibility Visibility
	RelatedID  *uuid.UUID
	UploadedBy string
}

// Uploader runs the write control flow: validate the batch, resolve a
// canonical path per accepted file, write the blob, insert the metadata row.
type Uploader struct {
	store   Store
	backend storage.Storage
	cfg     UploadConfig
	log     *slog.Logger
}

// NewUploader creates an Uploader. A nil logger discards output.
func NewUploader(store Store, backend storage.Storage, cfg UploadConfig, log *slog.Logger) *Uploader {
	cfg.applyDefaults()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		store:   store,
		backend: backend,
		cfg:     cfg,
		log:     log,
	}
}

// UploadBatch processes one upload request. Returns a per-file decision list
// parallel to the input. Batch-level problems (too many files, bad enums,
// bad entity reference) fail the whole call; per-file problems only mark
// that file rejected. No blob is written for a rejected file.
func (u *Uploader) UploadBatch(ctx context.Context, p UploadParams, files []UploadFile) ([]FileDecision, error) {
	if len(files) > u.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(files), u.cfg.MaxFiles)
	}
	if !p.Type.Valid() {
		return nil, ErrInvalidType
	}
	if !p.Visibility.Valid() {
		return nil, ErrInvalidVisibility
	}

	// Buffer and inspect everything up front so every write that happens
	// afterwards is for a file the whole-batch validation accepted.
	contents := make([][]byte, len(files))
	checks := make([]FileCheck, len(files))
	for i, f := range files {
		data, err := io.ReadAll(io.LimitReader(f.Content, u.cfg.MaxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("%w: read %q: %v", ErrValidation, f.Filename, err)
		}
		contents[i] = data
		checks[i] = FileCheck{
			Filename: f.Filename,
			Size:     int64(len(data)),
			MIME:     storage.DetectBytes(data),
		}
	}

	decisions := ValidateFiles(checks, u.cfg)
	session := uuid.NewString()

	for i := range decisions {
		if !decisions[i].Accepted {
			continue
		}
		u.storeFile(ctx, p, checks[i], contents[i], session, &decisions[i])
	}

	return decisions, nil
}

// storeFile writes one accepted file: resolve path, put blob, insert row.
// Failures downgrade the decision to rejected; writes are never retried.
func (u *Uploader) storeFile(ctx context.Context, p UploadParams, check FileCheck, data []byte, session string, d *FileDecision) {
	key, err := assetpath.Resolve(p.EntityType, p.EntityID, p.Subfolder, check.Filename)
	if err != nil {
		d.Accepted = false
		d.Reason = ReasonUnsafeFilename
		return
	}

	putOpts := []storage.Option{
		storage.WithKey(key),
		storage.WithContentType(check.MIME),
	}
	if p.Visibility == VisibilityPublic {
		putOpts = append(putOpts, storage.WithPublic())
	}

	putCtx, cancel := context.WithTimeout(ctx, u.cfg.BackendTimeout)
	defer cancel()

	info, err := u.backend.Put(putCtx, bytes.NewReader(data), check.Size, putOpts...)
	if err != nil {
		u.log.ErrorContext(ctx, "blob write failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
		d.Accepted = false
		d.Reason = ReasonBackendError
		return
	}

	asset, err := u.store.Insert(ctx, InsertParams{
		OwnerID:    p.OwnerID,
		Type:       p.Type,
		RelatedID:  p.RelatedID,
		Location:   info.Key,
		Visibility: p.Visibility,
		Metadata: Metadata{
			Filename:      check.Filename,
			Size:          check.Size,
			Format:        info.ContentType,
			UploadedBy:    p.UploadedBy,
			UploadSession: session,
		},
	})
	if err != nil {
		// The blob exists without a row: an orphan. Rare and recoverable,
		// so it is logged rather than compensated with a second write.
		u.log.ErrorContext(ctx, "metadata insert failed, blob orphaned",
			slog.String("key", info.Key),
			slog.Any("error", err),
		)
		d.Accepted = false
		d.Reason = ReasonBackendError
		return
	}

	d.Asset = &asset
}
