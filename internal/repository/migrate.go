package repository

import (
	"context"
	"fmt"
)

const profilesTable = "profiles"

// The same DDL runs on SQLite and Postgres: times are unix nanoseconds and
// fields are stored as a JSON text column.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS ` + profilesTable + ` (
	id                varchar(36)      NOT NULL PRIMARY KEY,
	ocr_status        varchar(16)      NOT NULL,
	ocr_confidence    double precision,
	source_file       text             NOT NULL DEFAULT '',
	original_filename text             NOT NULL DEFAULT '',
	raw_ocr_text      text             NOT NULL DEFAULT '',
	fields            text             NOT NULL,
	version           bigint           NOT NULL,
	created_at        bigint           NOT NULL,
	updated_at        bigint           NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS profiles_status_created_idx ON ` + profilesTable + ` (ocr_status, created_at)`,
}

// Migrate creates the profiles table and its listing index if they do not exist.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range migrations {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
