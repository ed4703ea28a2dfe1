package assets

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store implementation for tests. It mirrors the
// PGStore semantics, including default exclusion of soft-deleted rows and
// idempotent delete/restore.
type MemStore struct {
	mu     sync.RWMutex
	rows   map[uuid.UUID]Asset
	byLoc  map[string]uuid.UUID
	nowFn  func() time.Time
	getErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		rows:  make(map[uuid.UUID]Asset),
		byLoc: make(map[string]uuid.UUID),
		nowFn: time.Now,
	}
}

// SetNow overrides the clock, letting tests pin timestamps.
func (s *MemStore) SetNow(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// FailReads makes every Get return err until called again with nil.
func (s *MemStore) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

// Insert creates a new asset row.
func (s *MemStore) Insert(ctx context.Context, p InsertParams) (Asset, error) {
	if err := p.validate(); err != nil {
		return Asset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byLoc[p.Location]; taken {
		return Asset{}, ErrConflict
	}

	now := s.nowFn()
	a := Asset{
		ID:         uuid.New(),
		OwnerID:    p.OwnerID,
		Type:       p.Type,
		RelatedID:  p.RelatedID,
		Location:   p.Location,
		Visibility: p.Visibility,
		Metadata:   p.Metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.rows[a.ID] = a
	s.byLoc[a.Location] = a.ID
	return a, nil
}

// Get fetches one asset by id.
func (s *MemStore) Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getErr != nil {
		return Asset{}, s.getErr
	}

	a, ok := s.rows[id]
	if !ok || (!includeDeleted && a.Deleted()) {
		return Asset{}, ErrNotFound
	}
	return a, nil
}

// Query lists assets matching the filter.
func (s *MemStore) Query(ctx context.Context, f Filter) ([]Asset, int, error) {
	if err := f.normalize(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	var matched []Asset
	for _, a := range s.rows {
		if !f.IncludeDeleted && a.Deleted() {
			continue
		}
		if f.OwnerID != nil && a.OwnerID != *f.OwnerID {
			continue
		}
		if f.Type != nil && a.Type != *f.Type {
			continue
		}
		if f.RelatedID != nil && (a.RelatedID == nil || *a.RelatedID != *f.RelatedID) {
			continue
		}
		if f.Visibility != nil && a.Visibility != *f.Visibility {
			continue
		}
		matched = append(matched, a)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		var less bool
		switch f.SortBy {
		case SortByUpdatedAt:
			less = matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		case SortByType:
			less = strings.Compare(string(matched[i].Type), string(matched[j].Type)) < 0
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if f.SortDesc {
			return !less
		}
		return less
	})

	total := len(matched)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := min(f.Offset+f.Limit, total)
	return matched[f.Offset:end], total, nil
}

// Update merges partial changes into an asset.
func (s *MemStore) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (Asset, error) {
	if err := p.validate(); err != nil {
		return Asset{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok || a.Deleted() {
		return Asset{}, ErrNotFound
	}

	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Visibility != nil {
		a.Visibility = *p.Visibility
	}
	if p.RelatedID != nil {
		rid := *p.RelatedID
		a.RelatedID = &rid
	}
	if len(p.MetadataMerge) > 0 {
		merged, err := a.Metadata.Merge(p.MetadataMerge)
		if err != nil {
			return Asset{}, ErrValidation
		}
		a.Metadata = merged
	}
	a.UpdatedAt = s.nowFn()

	s.rows[id] = a
	return a, nil
}

// SoftDelete marks the asset as deleted; idempotent.
func (s *MemStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	if a.Deleted() {
		return nil
	}

	now := s.nowFn()
	a.DeletedAt = &now
	a.UpdatedAt = now
	s.rows[id] = a
	return nil
}

// Restore clears the deletion mark; idempotent.
func (s *MemStore) Restore(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return ErrNotFound
	}
	if !a.Deleted() {
		return nil
	}

	a.DeletedAt = nil
	a.UpdatedAt = s.nowFn()
	s.rows[id] = a
	return nil
}

// Purge permanently removes one asset row.
func (s *MemStore) Purge(ctx context.Context, id uuid.UUID) (Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.rows[id]
	if !ok {
		return Asset{}, ErrNotFound
	}
	delete(s.rows, id)
	delete(s.byLoc, a.Location)
	return a, nil
}

// PurgeDeletedBefore permanently removes rows soft-deleted before the cutoff.
func (s *MemStore) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) ([]Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Asset
	for id, a := range s.rows {
		if a.DeletedAt != nil && a.DeletedAt.Before(cutoff) {
			out = append(out, a)
			delete(s.rows, id)
			delete(s.byLoc, a.Location)
		}
	}
	return out, nil
}

// Ensure MemStore implements Store.
var _ Store = (*MemStore)(nil)
