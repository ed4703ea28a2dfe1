package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/assetvault/pkg/db"
)

// assetColumns is the canonical column list shared by every query that
// returns full rows.
const assetColumns = "id, owner_id, type, related_id, location, visibility, metadata, created_at, updated_at, deleted_at"

// PGStore is the PostgreSQL-backed Store implementation.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Store over the given connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert creates a new asset row.
func (s *PGStore) Insert(ctx context.Context, p InsertParams) (Asset, error) {
	if err := p.validate(); err != nil {
		return Asset{}, err
	}

	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: encode metadata: %v", ErrValidation, err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO assets (id, owner_id, type, related_id, location, visibility, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+assetColumns,
		uuid.New(), p.OwnerID, p.Type, p.RelatedID, p.Location, p.Visibility, meta,
	)

	a, err := scanAsset(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Location collision despite path disambiguation. Retryable.
			return Asset{}, fmt.Errorf("%w: %s", ErrConflict, p.Location)
		}
		return Asset{}, fmt.Errorf("%w: insert: %v", ErrBackend, err)
	}
	return a, nil
}

// Get fetches one asset by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (Asset, error) {
	query := "SELECT " + assetColumns + " FROM assets WHERE id = $1"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	a, err := scanAsset(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("%w: get: %v", ErrBackend, err)
	}
	return a, nil
}

// Query lists assets matching the filter.
func (s *PGStore) Query(ctx context.Context, f Filter) ([]Asset, int, error) {
	if err := f.normalize(); err != nil {
		return nil, 0, err
	}

	where, args := buildWhere(f)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM assets"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: count: %v", ErrBackend, err)
	}

	order := " ORDER BY " + string(f.SortBy)
	if f.SortDesc {
		order += " DESC"
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf("SELECT %s FROM assets%s%s LIMIT $%d OFFSET $%d",
		assetColumns, where, order, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: query: %v", ErrBackend, err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scan: %v", ErrBackend, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: query: %v", ErrBackend, err)
	}

	return out, total, nil
}

// Update merges partial changes into an asset and bumps updated_at.
// Soft-deleted assets read as not found, same as Get.
func (s *PGStore) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (Asset, error) {
	if err := p.validate(); err != nil {
		return Asset{}, err
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if p.Type != nil {
		appendSet("type = $%d", *p.Type)
	}
	if p.Visibility != nil {
		appendSet("visibility = $%d", *p.Visibility)
	}
	if p.RelatedID != nil {
		appendSet("related_id = $%d", *p.RelatedID)
	}
	if len(p.MetadataMerge) > 0 {
		merge, err := json.Marshal(p.MetadataMerge)
		if err != nil {
			return Asset{}, fmt.Errorf("%w: encode metadata: %v", ErrValidation, err)
		}
		appendSet("metadata = metadata || $%d::jsonb", merge)
	}

	query := fmt.Sprintf(
		"UPDATE assets SET %s WHERE id = $1 AND deleted_at IS NULL RETURNING %s",
		strings.Join(sets, ", "), assetColumns,
	)

	a, err := scanAsset(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("%w: update: %v", ErrBackend, err)
	}
	return a, nil
}

// SoftDelete marks the asset as deleted. A repeat call is a no-op success
// and keeps the first call's timestamp.
func (s *PGStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE assets SET deleted_at = now(), updated_at = now()
			WHERE id = $1 AND deleted_at IS NULL`, id)
		if err != nil {
			return fmt.Errorf("%w: soft delete: %v", ErrBackend, err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		return mustExist(ctx, tx, id)
	})
}

// Restore clears the deletion mark. A no-op success on active assets.
func (s *PGStore) Restore(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE assets SET deleted_at = NULL, updated_at = now()
			WHERE id = $1 AND deleted_at IS NOT NULL`, id)
		if err != nil {
			return fmt.Errorf("%w: restore: %v", ErrBackend, err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		return mustExist(ctx, tx, id)
	})
}

// Purge permanently removes one asset row.
func (s *PGStore) Purge(ctx context.Context, id uuid.UUID) (Asset, error) {
	a, err := scanAsset(s.pool.QueryRow(ctx,
		"DELETE FROM assets WHERE id = $1 RETURNING "+assetColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrNotFound
		}
		return Asset{}, fmt.Errorf("%w: purge: %v", ErrBackend, err)
	}
	return a, nil
}

// PurgeDeletedBefore permanently removes rows soft-deleted before the cutoff.
func (s *PGStore) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) ([]Asset, error) {
	rows, err := s.pool.Query(ctx, `
		DELETE FROM assets
		WHERE deleted_at IS NOT NULL AND deleted_at < $1
		RETURNING `+assetColumns, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: purge deleted: %v", ErrBackend, err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrBackend, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: purge deleted: %v", ErrBackend, err)
	}
	return out, nil
}

// mustExist distinguishes "already in the requested state" from "missing"
// after an idempotent update touched zero rows. Runs on the same
// transaction as the update so the two reads agree.
func mustExist(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM assets WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("%w: exists: %v", ErrBackend, err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any

	appendCond := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.OwnerID != nil {
		appendCond("owner_id = $%d", *f.OwnerID)
	}
	if f.Type != nil {
		appendCond("type = $%d", *f.Type)
	}
	if f.RelatedID != nil {
		appendCond("related_id = $%d", *f.RelatedID)
	}
	if f.Visibility != nil {
		appendCond("visibility = $%d", *f.Visibility)
	}
	if !f.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanAsset reads one full row into an Asset.
func scanAsset(row pgx.Row) (Asset, error) {
	var a Asset
	var meta []byte

	if err := row.Scan(
		&a.ID, &a.OwnerID, &a.Type, &a.RelatedID, &a.Location,
		&a.Visibility, &meta, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	); err != nil {
		return Asset{}, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.Metadata); err != nil {
			return Asset{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return a, nil
}

// Ensure PGStore implements Store.
var _ Store = (*PGStore)(nil)
