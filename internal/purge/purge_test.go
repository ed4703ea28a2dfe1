package purge_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetvault/internal/purge"
	"github.com/dmitrymomot/assetvault/pkg/assets"
	"github.com/dmitrymomot/assetvault/pkg/storage"
)

func seedAsset(t *testing.T, store *assets.MemStore, backend *storage.Memory, vis assets.Visibility, key string) assets.Asset {
	t.Helper()

	opts := []storage.Option{storage.WithKey(key), storage.WithContentType("image/png")}
	if vis == assets.VisibilityPublic {
		opts = append(opts, storage.WithPublic())
	}
	_, err := backend.Put(context.Background(), bytes.NewReader([]byte("blob")), 4, opts...)
	require.NoError(t, err)

	a, err := store.Insert(context.Background(), assets.InsertParams{
		OwnerID:    uuid.New(),
		Type:       assets.TypeCustomerPhoto,
		Location:   key,
		Visibility: vis,
	})
	require.NoError(t, err)
	return a
}

func TestTaskHandle(t *testing.T) {
	t.Parallel()

	cfg := purge.Config{Retention: 30 * 24 * time.Hour}

	t.Run("removes rows and blobs past retention", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := assets.NewMemStore()
		backend := storage.NewMemory()

		// Old enough to purge.
		old := seedAsset(t, store, backend, assets.VisibilityPrivate, "design/1/old.png")
		store.SetNow(func() time.Time { return time.Now().Add(-40 * 24 * time.Hour) })
		require.NoError(t, store.SoftDelete(ctx, old.ID))

		// Deleted recently, must survive.
		store.SetNow(time.Now)
		recent := seedAsset(t, store, backend, assets.VisibilityPublic, "design/2/recent.png")
		require.NoError(t, store.SoftDelete(ctx, recent.ID))

		// Never deleted, must survive.
		live := seedAsset(t, store, backend, assets.VisibilityPrivate, "design/3/live.png")

		task := purge.NewTask(store, backend, cfg, nil)
		require.NoError(t, task.Handle(ctx))

		_, err := store.Get(ctx, old.ID, true)
		require.ErrorIs(t, err, assets.ErrNotFound)
		require.False(t, backend.Has("design/1/old.png", false))

		_, err = store.Get(ctx, recent.ID, true)
		require.NoError(t, err)
		require.True(t, backend.Has("design/2/recent.png", true))

		_, err = store.Get(ctx, live.ID, false)
		require.NoError(t, err)
		require.True(t, backend.Has("design/3/live.png", false))
	})

	t.Run("blob deletion failure does not fail the pass", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := assets.NewMemStore()
		backend := storage.NewMemory()

		a := seedAsset(t, store, backend, assets.VisibilityPrivate, "sales/1/doc.pdf")
		store.SetNow(func() time.Time { return time.Now().Add(-60 * 24 * time.Hour) })
		require.NoError(t, store.SoftDelete(ctx, a.ID))
		store.SetNow(time.Now)

		backend.DeleteErr = storage.ErrDeleteFailed

		task := purge.NewTask(store, backend, cfg, nil)
		require.NoError(t, task.Handle(ctx))

		// Row is gone even though the blob remained.
		_, err := store.Get(ctx, a.ID, true)
		require.ErrorIs(t, err, assets.ErrNotFound)
	})

	t.Run("empty pass", func(t *testing.T) {
		t.Parallel()

		task := purge.NewTask(assets.NewMemStore(), storage.NewMemory(), cfg, nil)
		require.NoError(t, task.Handle(context.Background()))
	})
}
