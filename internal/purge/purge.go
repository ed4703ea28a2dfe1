// Package purge permanently removes assets that have been soft-deleted
// longer than the retention window. It runs only as a scheduled
// background task; nothing on the HTTP surface can trigger it.
package purge

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/assetvault/pkg/assets"
	"github.com/dmitrymomot/assetvault/pkg/storage"
)

// TaskName identifies the purge task in the job manager.
const TaskName = "purge_deleted_assets"

// Config controls retention and scheduling of the purge task.
type Config struct {
	Retention time.Duration `env:"PURGE_RETENTION" envDefault:"720h"`
	Schedule  string        `env:"PURGE_SCHEDULE" envDefault:"0 3 * * *"`
}

// Task deletes expired soft-deleted assets: metadata rows first-class,
// then the backing blobs. A blob that fails to delete is logged and
// skipped; its row is already gone, so the next failure surface is
// storage-side orphan cleanup, not a dangling record.
type Task struct {
	store     assets.Store
	backend   storage.Storage
	retention time.Duration
	log       *slog.Logger
}

// NewTask creates a purge task with the given retention window.
func NewTask(store assets.Store, backend storage.Storage, cfg Config, log *slog.Logger) *Task {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Task{
		store:     store,
		backend:   backend,
		retention: cfg.Retention,
		log:       log,
	}
}

// Handle runs one purge pass.
func (t *Task) Handle(ctx context.Context) error {
	cutoff := time.Now().Add(-t.retention)

	purged, err := t.store.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(purged) == 0 {
		t.log.DebugContext(ctx, "purge pass found nothing to remove",
			slog.Time("cutoff", cutoff))
		return nil
	}

	var blobErrs int
	for _, a := range purged {
		if err := t.backend.Delete(ctx, a.Location, a.Public()); err != nil {
			blobErrs++
			t.log.ErrorContext(ctx, "failed to delete purged asset blob",
				slog.String("asset_id", a.ID.String()),
				slog.String("location", a.Location),
				slog.Any("error", err),
			)
		}
	}

	t.log.InfoContext(ctx, "purge pass completed",
		slog.Time("cutoff", cutoff),
		slog.Int("purged", len(purged)),
		slog.Int("blob_errors", blobErrs),
	)
	return nil
}
