package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"ktpapi/internal/database"
)

type migrationStep struct {
	Name string
	SQL  string
}

var postgresSteps = []migrationStep{
	{
		Name: "create_table_ktp_records",
		SQL: `CREATE TABLE IF NOT EXISTS ktp_records (
  id                BIGSERIAL   PRIMARY KEY,
  document_type     TEXT        NOT NULL DEFAULT 'ktp',
  unique_identifier TEXT,
  image_hash        TEXT,
  data              JSONB,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
}

var sqliteSteps = []migrationStep{
	{
		Name: "create_table_ktp_records",
		SQL: `CREATE TABLE IF NOT EXISTS ktp_records (
  id                INTEGER  PRIMARY KEY AUTOINCREMENT,
  document_type     TEXT     NOT NULL DEFAULT 'ktp',
  unique_identifier TEXT,
  image_hash        TEXT,
  data              TEXT,
  created_at        DATETIME NOT NULL
);`,
	},
}

var indexSteps = []migrationStep{
	{
		Name: "create_index_ktp_records_document_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ktp_records_document_type ON ktp_records (document_type);`,
	},
	{
		Name: "create_index_ktp_records_unique_identifier",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ktp_records_unique_identifier ON ktp_records (unique_identifier);`,
	},
	{
		Name: "create_index_ktp_records_image_hash",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ktp_records_image_hash ON ktp_records (image_hash);`,
	},
	{
		Name: "create_index_ktp_records_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_ktp_records_created_at ON ktp_records (created_at);`,
	},
}

// stepsFor returns the ordered schema statements for a dialect.
func stepsFor(d database.Dialect) []migrationStep {
	base := postgresSteps
	if d == database.DialectSQLite {
		base = sqliteSteps
	}
	out := make([]migrationStep, 0, len(base)+len(indexSteps))
	out = append(out, base...)
	return append(out, indexSteps...)
}

// EnsureMigrated creates the ktp_records table and its indexes if they are missing.
// Every statement is idempotent, so it is safe to run on each startup.
func EnsureMigrated(ctx context.Context, db *sql.DB, d database.Dialect, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "database", "dialect", string(d))
	start := time.Now()

	log.Info("db_migration_start", "status", "in_progress")

	for _, step := range stepsFor(d) {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Debug("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
