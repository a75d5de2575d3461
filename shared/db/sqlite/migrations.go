package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of all database migrations
// Each migration should be idempotent and safe to run multiple times
var migrations = []migration{
	{
		version: 1,
		name:    "create_images_table",
		up: `
			CREATE TABLE IF NOT EXISTS images (
				id INTEGER PRIMARY KEY,
				url TEXT NOT NULL,
				page_url TEXT NOT NULL,
				user_name TEXT NOT NULL,
				user_image_url TEXT NOT NULL DEFAULT '',
				likes INTEGER NOT NULL DEFAULT 0,
				views INTEGER NOT NULL DEFAULT 0,
				downloads INTEGER NOT NULL DEFAULT 0,
				image_data BLOB NOT NULL,
				content_type TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_images_created_at
			ON images(created_at, id);
		`,
	},
	{
		version: 2,
		name:    "create_image_tags_table",
		up: `
			CREATE TABLE IF NOT EXISTS image_tags (
				image_id INTEGER NOT NULL REFERENCES images(id),
				position INTEGER NOT NULL,
				tag TEXT NOT NULL,
				PRIMARY KEY (image_id, position)
			);
		`,
	},
	{
		// Case-folded copies for catalog search. SQLite's lower() is
		// ASCII-only, so new rows are folded by the writer; the backfill
		// below is the best SQLite can do for rows already stored.
		version: 3,
		name:    "add_folded_search_columns",
		up: `
			ALTER TABLE images ADD COLUMN user_folded TEXT NOT NULL DEFAULT '';
			UPDATE images SET user_folded = lower(user_name);

			ALTER TABLE image_tags ADD COLUMN tag_folded TEXT NOT NULL DEFAULT '';
			UPDATE image_tags SET tag_folded = lower(tag);
		`,
	},
}

// runMigrations executes all pending migrations
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue // Already applied
		}

		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}

	if _, err := tx.ExecContext(ctx, m.up); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.version,
		m.name,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
