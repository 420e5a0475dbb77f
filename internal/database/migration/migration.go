package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sharonlnl728/content-audit-platform/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_audit_records",
		SQL: `CREATE TABLE IF NOT EXISTS audit_records (
  id            BIGSERIAL    PRIMARY KEY,
  user_id       BIGINT       NOT NULL,
  content_type  TEXT         NOT NULL CHECK (content_type IN ('TEXT', 'IMAGE')),
  content_text  TEXT,
  content_url   TEXT,
  content_hash  TEXT         NOT NULL,
  audit_result  JSONB,
  ai_result     JSONB,
  confidence    DOUBLE PRECISION CHECK (confidence BETWEEN 0 AND 1),
  status        TEXT         NOT NULL CHECK (status IN ('PASS', 'REJECT', 'REVIEW')),
  manual_result JSONB,
  reviewer_id   BIGINT,
  reviewed_at   TIMESTAMPTZ,
  created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_audit_records_user_created",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_records_user_created ON audit_records (user_id, created_at DESC);`,
	},
	{
		Name: "create_index_audit_records_user_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_records_user_status ON audit_records (user_id, status);`,
	},
	{
		Name: "create_index_audit_records_content_hash",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_records_content_hash ON audit_records (content_hash);`,
	},
}

// EnsureMigrated checks if the 'audit_records' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, dbHost string) error {
	log = log.With("database")
	start := time.Now()

	log.Info("db_migration_check", map[string]any{"status": "starting", "db_host": dbHost})

	var exists bool
	query := "SELECT to_regclass('public.audit_records') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		log.Error("db_migration_failed", err, map[string]any{
			"status":      "error",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip", map[string]any{
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	log.Info("db_migration_start", map[string]any{"status": "in_progress", "db_host": dbHost})

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed", err, map[string]any{
				"status":           "error",
				"migration_step":   step.Name,
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step", map[string]any{
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	log.Info("db_migration_success", map[string]any{
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}
