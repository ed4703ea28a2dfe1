// Command assetd runs the asset storage and access-control service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/assetvault/internal/config"
	"github.com/dmitrymomot/assetvault/internal/handler"
	"github.com/dmitrymomot/assetvault/internal/purge"
	"github.com/dmitrymomot/assetvault/migrations"
	"github.com/dmitrymomot/assetvault/pkg/assets"
	"github.com/dmitrymomot/assetvault/pkg/db"
	"github.com/dmitrymomot/assetvault/pkg/job"
	"github.com/dmitrymomot/assetvault/pkg/logger"
	"github.com/dmitrymomot/assetvault/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Sentry, requestIDExtractor)
	slog.SetDefault(log)

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS, cfg.DB.MigrationsTable, log); err != nil {
		return err
	}

	backend, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}

	store := assets.NewPGStore(pool)
	policy := assets.NewPolicy(assets.DefaultCapabilities())
	signer := assets.NewSigner(store, backend, policy, cfg.Signer, log)
	uploader := assets.NewUploader(store, backend, cfg.Upload, log)

	purgeTask := purge.NewTask(store, backend, cfg.Purge, log)
	jobs, err := job.NewManager(pool,
		job.WithLogger(log),
		job.WithScheduledTask(purge.TaskName, cfg.Purge.Schedule, purgeTask.Handle),
	)
	if err != nil {
		return err
	}
	if err := jobs.Start(ctx); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	api := handler.New(store, uploader, signer, db.Healthcheck(pool), log)
	api.Register(r)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", slog.Any("error", err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("job manager shutdown failed", slog.Any("error", err))
	}
	return nil
}

// requestIDExtractor surfaces the chi request id on every log record
// written within a request context.
func requestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := chimw.GetReqID(ctx); id != "" {
		return slog.String("request_id", id), true
	}
	return slog.Attr{}, false
}
