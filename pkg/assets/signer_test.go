package assets_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetvault/pkg/assets"
	"github.com/dmitrymomot/assetvault/pkg/storage"
)

func newSignerEnv(t *testing.T) (*assets.MemStore, *storage.Memory, *assets.Signer) {
	t.Helper()

	store := assets.NewMemStore()
	backend := storage.NewMemory()
	signer := assets.NewSigner(store, backend, assets.NewPolicy(assets.DefaultCapabilities()), assets.SignerConfig{
		MinTTL:         time.Minute,
		MaxTTL:         24 * time.Hour,
		BackendTimeout: time.Second,
		BulkWorkers:    4,
	}, nil)
	return store, backend, signer
}

func seedSignable(t *testing.T, store *assets.MemStore, backend *storage.Memory, owner uuid.UUID, vis assets.Visibility, key string) assets.Asset {
	t.Helper()

	opts := []storage.Option{storage.WithKey(key), storage.WithContentType("image/png")}
	if vis == assets.VisibilityPublic {
		opts = append(opts, storage.WithPublic())
	}
	_, err := backend.Put(context.Background(), bytes.NewReader([]byte("data")), 4, opts...)
	require.NoError(t, err)

	a, err := store.Insert(context.Background(), assets.InsertParams{
		OwnerID:    owner,
		Type:       assets.TypeDesignFile,
		Location:   key,
		Visibility: vis,
	})
	require.NoError(t, err)
	return a
}

func TestIssueSingle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("private asset gets a signed url", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()
		a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate, "design/1/a.png")

		grant, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, 5*time.Minute)
		require.NoError(t, err)
		require.Equal(t, a.ID, grant.AssetID)
		require.Contains(t, grant.URL, "sign")
		require.NotNil(t, grant.ExpiresAt)
	})

	t.Run("public asset gets the permanent url", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()
		a := seedSignable(t, store, backend, owner, assets.VisibilityPublic, "design/2/b.png")

		grant, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, 5*time.Minute)
		require.NoError(t, err)
		require.Equal(t, backend.PublicURL(a.Location), grant.URL)
		require.Nil(t, grant.ExpiresAt)
	})

	t.Run("denied is distinct from not found", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		a := seedSignable(t, store, backend, uuid.New(), assets.VisibilityPrivate, "design/3/c.png")

		_, err := signer.IssueSingle(ctx, a.ID, uuid.New(), assets.RoleCustomer, time.Minute)
		require.ErrorIs(t, err, assets.ErrAccessDenied)
		require.NotErrorIs(t, err, assets.ErrNotFound)

		_, err = signer.IssueSingle(ctx, uuid.New(), uuid.New(), assets.RoleAdmin, time.Minute)
		require.ErrorIs(t, err, assets.ErrNotFound)
		require.NotErrorIs(t, err, assets.ErrAccessDenied)
	})

	t.Run("soft-deleted asset reads as not found", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()
		a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate, "design/4/d.png")
		require.NoError(t, store.SoftDelete(ctx, a.ID))

		_, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, time.Minute)
		require.ErrorIs(t, err, assets.ErrNotFound)
	})

	t.Run("transient presign failure is retried once", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()
		a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate, "design/5/e.png")

		backend.SignErr = storage.ErrPresignFailed
		backend.SignErrOnce = true

		grant, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, time.Minute)
		require.NoError(t, err)
		require.NotEmpty(t, grant.URL)
	})

	t.Run("persistent presign failure maps to backend error", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()
		a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate, "design/6/f.png")

		backend.SignErr = storage.ErrPresignFailed

		_, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, time.Minute)
		require.ErrorIs(t, err, assets.ErrBackend)
	})

	t.Run("missing blob for live row reads as not found", func(t *testing.T) {
		t.Parallel()

		store, _, signer := newSignerEnv(t)
		owner := uuid.New()
		a, err := store.Insert(ctx, assets.InsertParams{
			OwnerID:    owner,
			Type:       assets.TypeDesignFile,
			Location:   "design/7/ghost.png",
			Visibility: assets.VisibilityPrivate,
		})
		require.NoError(t, err)

		_, err = signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, time.Minute)
		require.ErrorIs(t, err, assets.ErrNotFound)
	})
}

func TestTTLClamping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, backend, signer := newSignerEnv(t)
	owner := uuid.New()
	a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate, "design/8/g.png")

	t.Run("above max clamps down", func(t *testing.T) {
		before := time.Now()
		grant, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, 100*time.Hour)
		require.NoError(t, err)
		require.NotNil(t, grant.ExpiresAt)
		require.True(t, grant.ExpiresAt.Before(before.Add(24*time.Hour+time.Minute)))
	})

	t.Run("below min clamps up", func(t *testing.T) {
		before := time.Now()
		grant, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, time.Second)
		require.NoError(t, err)
		require.NotNil(t, grant.ExpiresAt)
		require.False(t, grant.ExpiresAt.Before(before.Add(time.Minute-time.Second)))
	})

	t.Run("zero ttl gets the minimum", func(t *testing.T) {
		grant, err := signer.IssueSingle(ctx, a.ID, owner, assets.RoleCustomer, 0)
		require.NoError(t, err)
		require.NotNil(t, grant.ExpiresAt)
	})
}

func TestIssueDownload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("public asset still gets a signed url for downloads", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()
		a := seedSignable(t, store, backend, owner, assets.VisibilityPublic, "design/9/h.png")

		grant, err := signer.IssueDownload(ctx, a.ID, owner, assets.RoleCustomer, "render.png", time.Minute)
		require.NoError(t, err)
		require.Contains(t, grant.URL, "download=render.png")
		require.NotNil(t, grant.ExpiresAt)
	})

	t.Run("traversal in download filename rejected", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()
		a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate, "design/10/i.png")

		_, err := signer.IssueDownload(ctx, a.ID, owner, assets.RoleCustomer, "../escape.png", time.Minute)
		require.ErrorIs(t, err, assets.ErrValidation)
	})
}

func TestIssueBulk(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("partial failure leaves successes intact", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()

		ids := make([]uuid.UUID, 0, 5)
		for i := 0; i < 4; i++ {
			a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate,
				"bulk/"+uuid.NewString()+".png")
			ids = append(ids, a.ID)
		}
		deleted := seedSignable(t, store, backend, owner, assets.VisibilityPrivate, "bulk/deleted.png")
		require.NoError(t, store.SoftDelete(ctx, deleted.ID))
		ids = append(ids, deleted.ID)

		res := signer.IssueBulk(ctx, ids, owner, assets.RoleCustomer, time.Minute)
		require.Equal(t, 5, res.Total)
		require.Equal(t, 4, res.Successful)
		require.Len(t, res.Results, 5)

		for i := 0; i < 4; i++ {
			require.NoError(t, res.Results[i].Err)
			require.NotNil(t, res.Results[i].Grant)
		}
		require.ErrorIs(t, res.Results[4].Err, assets.ErrNotFound)
		require.Nil(t, res.Results[4].Grant)
	})

	t.Run("results preserve input order", func(t *testing.T) {
		t.Parallel()

		store, backend, signer := newSignerEnv(t)
		owner := uuid.New()

		ids := make([]uuid.UUID, 0, 20)
		for i := 0; i < 20; i++ {
			a := seedSignable(t, store, backend, owner, assets.VisibilityPrivate,
				"order/"+uuid.NewString()+".png")
			ids = append(ids, a.ID)
		}

		res := signer.IssueBulk(ctx, ids, owner, assets.RoleCustomer, time.Minute)
		require.Equal(t, 20, res.Successful)
		for i, item := range res.Results {
			require.Equal(t, ids[i], item.AssetID)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		_, _, signer := newSignerEnv(t)
		res := signer.IssueBulk(ctx, nil, uuid.New(), assets.RoleAdmin, time.Minute)
		require.Zero(t, res.Total)
		require.Empty(t, res.Results)
	})
}
