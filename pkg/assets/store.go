package assets

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the asset metadata store: CRUD plus soft delete and restore over
// asset rows. Queries exclude soft-deleted rows unless explicitly told
// otherwise. Purge operations are administrative and must never be reachable
// from the public API surface.
type Store interface {
	// Insert creates a new asset row with a generated id and timestamps.
	Insert(ctx context.Context, p InsertParams) (Asset, error)

	// Get fetches one asset. With includeDeleted=false a soft-deleted asset
	// reads as ErrNotFound.
	Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (Asset, error)

	// Query lists assets matching the filter, returning the page and the
	// total match count.
	Query(ctx context.Context, f Filter) ([]Asset, int, error)

	// Update merges partial changes into an asset. Location is immutable and
	// intentionally absent from UpdateParams.
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) (Asset, error)

	// SoftDelete marks the asset deleted. Idempotent: deleting an already
	// deleted asset succeeds and keeps the original deletion timestamp.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Restore clears the deletion mark. Idempotent on active assets.
	Restore(ctx context.Context, id uuid.UUID) error

	// Purge permanently removes one asset row regardless of deletion state.
	Purge(ctx context.Context, id uuid.UUID) (Asset, error)

	// PurgeDeletedBefore permanently removes rows soft-deleted before the
	// cutoff, returning them so callers can clean up the blobs.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) ([]Asset, error)
}

// InsertParams describes a new asset row. Location must come from the path
// resolver; the store persists it as-is.
type InsertParams struct {
	OwnerID    uuid.UUID
	Type       Type
	RelatedID  *uuid.UUID
	Location   string
	Visibility Visibility
	Metadata   Metadata
}

func (p InsertParams) validate() error {
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if !p.Visibility.Valid() {
		return ErrInvalidVisibility
	}
	return nil
}

// SortField enumerates the columns a query may be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByType      SortField = "type"
)

// Filter narrows and pages a Query call. Zero-valued fields are ignored.
type Filter struct {
	OwnerID        *uuid.UUID
	Type           *Type
	RelatedID      *uuid.UUID
	Visibility     *Visibility
	IncludeDeleted bool
	Limit          int
	Offset         int
	SortBy         SortField
	SortDesc       bool
}

// DefaultQueryLimit caps unpaginated queries.
const DefaultQueryLimit = 50

func (f *Filter) normalize() error {
	if f.Type != nil && !f.Type.Valid() {
		return ErrInvalidType
	}
	if f.Visibility != nil && !f.Visibility.Valid() {
		return ErrInvalidVisibility
	}
	if f.Limit <= 0 {
		f.Limit = DefaultQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByType:
	case "":
		f.SortBy = SortByCreatedAt
	default:
		return ErrValidation
	}
	return nil
}

// UpdateParams carries a partial asset change. Nil fields are left untouched;
// MetadataMerge keys are merged into the stored metadata object.
type UpdateParams struct {
	Type          *Type
	Visibility    *Visibility
	RelatedID     *uuid.UUID
	MetadataMerge map[string]any
}

func (p UpdateParams) validate() error {
	if p.Type != nil && !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Visibility != nil && !p.Visibility.Valid() {
		return ErrInvalidVisibility
	}
	return nil
}
