// Package app assembles the extraction stack from configuration. It is shared
// by the HTTP server and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"ktpapi/internal/config"
	"ktpapi/internal/database"
	"ktpapi/internal/database/migration"
	"ktpapi/internal/extractor"
	"ktpapi/internal/ocr"
	"ktpapi/internal/repository/sqlstore"
	"ktpapi/internal/service"
	"ktpapi/internal/storage"
)

// Stack holds the wired components. Close releases the database.
type Stack struct {
	DB       *sql.DB
	Dialect  database.Dialect
	Registry *extractor.Registry
	Service  service.ExtractionService
}

// Close releases the database handle.
func (s *Stack) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenDatabase opens the configured database and brings the schema up to date.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, database.Dialect, error) {
	db, dialect, err := database.Open(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	if err := migration.EnsureMigrated(ctx, db, dialect, logger); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("migrate database: %w", err)
	}
	return db, dialect, nil
}

// Build wires database, OCR provider, extractor registry, optional archive and
// the extraction service. reg may be nil to skip metrics.
func Build(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger, reg prometheus.Registerer) (*Stack, error) {
	db, dialect, err := OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	provider, err := ocr.NewGemini(ctx, cfg.Gemini, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ocr provider: %w", err)
	}

	opts := service.Options{CacheTTLDays: cfg.CacheTTLDays, Logger: logger}
	if cfg.MinIO.Enabled() {
		archive, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init image archive: %w", err)
		}
		opts.Archive = archive
		logger.Info("image_archive_enabled", slog.String("bucket", cfg.MinIO.Bucket))
	}
	if reg != nil {
		metrics, err := service.NewMetrics(reg)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("register extraction metrics: %w", err)
		}
		opts.Metrics = metrics
	}

	registry := extractor.NewRegistry(extractor.NewKTP())
	store := sqlstore.NewDocumentStore(db, dialect)

	return &Stack{
		DB:       db,
		Dialect:  dialect,
		Registry: registry,
		Service:  service.NewExtractionService(store, provider, registry, opts),
	}, nil
}
