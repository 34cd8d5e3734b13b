// Package main is the entry point for the wiki tags API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localwiki/wikitags/internal/blobstore"
	"github.com/localwiki/wikitags/internal/config"
	"github.com/localwiki/wikitags/internal/handler"
	"github.com/localwiki/wikitags/internal/i18n"
	"github.com/localwiki/wikitags/internal/middleware"
	"github.com/localwiki/wikitags/internal/repo"
	"github.com/localwiki/wikitags/internal/service"
	"github.com/localwiki/wikitags/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Migrations -------------------------------------------------------
	if cfg.AutoMigrate {
		n, err := migrations.Up(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "count", n)
	}

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Message catalog --------------------------------------------------
	catalog, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		slog.Error("failed to load message catalog", "error", err)
		os.Exit(1)
	}

	// --- Blob storage -----------------------------------------------------
	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise blob storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	store := repo.NewStore(pool)
	regionSvc := service.NewRegionService(store.Regions)
	tagSvc := service.NewTagService(store.Regions, store.Tags, store.History, store.TagSets)
	tagSetSvc := service.NewTagSetService(store.Repos, store, catalog, logger)
	frontPageSvc := service.NewFrontPageService(store.Regions, store.FrontPages, blobs, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID, RealIP, Logger, Recoverer,
	// CORS, body limit.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxUploadBytes))

	srvHandler := handler.NewServer(regionSvc, tagSvc, tagSetSvc, frontPageSvc, logger)
	r.Mount("/", srvHandler.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout leaves room for cover photo uploads and downloads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newBlobStore builds the cover photo store selected by STORAGE_BACKEND.
func newBlobStore(ctx context.Context, cfg config.Config) (blobstore.Store, error) {
	if cfg.StorageBackend == config.StorageS3 {
		client, err := blobstore.NewS3Client(ctx, blobstore.S3Options{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return blobstore.NewS3(client, cfg.S3Bucket, cfg.S3Prefix), nil
	}
	return blobstore.NewFS(cfg.MediaRoot)
}
