package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err := database.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close(ctx)

	db := database.DB()

	for _, table := range []string{"schema_migrations", "images", "image_tags"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to check %s table: %v", table, err)
		}
		if count != 1 {
			t.Errorf("%s table not created", table)
		}
	}

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_images_created_at'").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check index: %v", err)
	}
	if count != 1 {
		t.Errorf("idx_images_created_at index not created")
	}

	var version int
	var name string
	err = db.QueryRow("SELECT version, name FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&version, &name)
	if err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("version = %d, want %d", version, len(migrations))
	}
	if name != "add_folded_search_columns" {
		t.Errorf("name = %q, want %q", name, "add_folded_search_columns")
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := &SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")}

	database := NewSQLiteDB(cfg)
	if err := database.Connect(ctx); err != nil {
		t.Fatalf("First Connect() error = %v", err)
	}
	database.Close(ctx)

	// Connect second time - migrations should not fail
	database = NewSQLiteDB(cfg)
	if err := database.Connect(ctx); err != nil {
		t.Fatalf("Second Connect() error = %v", err)
	}
	defer database.Close(ctx)

	var count int
	err := database.DB().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query schema_migrations: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("migrations recorded %d times, want %d", count, len(migrations))
	}
}

func TestImagesTableDefaults(t *testing.T) {
	ctx := context.Background()
	database := NewSQLiteDB(&SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err := database.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer database.Close(ctx)

	db := database.DB()

	_, err := db.Exec(`
		INSERT INTO images (id, url, page_url, user_name, image_data, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, 42, "https://cdn.example.com/42.jpg", "https://example.com/42", "bob", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("Failed to insert image: %v", err)
	}

	var userImageURL, contentType string
	var likes, views, downloads int64
	var data []byte
	err = db.QueryRow(`
		SELECT user_image_url, likes, views, downloads, image_data, content_type
		FROM images WHERE id = ?
	`, 42).Scan(&userImageURL, &likes, &views, &downloads, &data, &contentType)
	if err != nil {
		t.Fatalf("Failed to query image: %v", err)
	}

	if userImageURL != "" || contentType != "" {
		t.Errorf("text defaults = (%q, %q), want empty", userImageURL, contentType)
	}
	if likes != 0 || views != 0 || downloads != 0 {
		t.Errorf("counters = (%d, %d, %d), want zeros", likes, views, downloads)
	}
	if len(data) != 2 {
		t.Errorf("image_data length = %d, want 2", len(data))
	}
}

func TestFoldedColumnsBackfilled(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	// A store created before the folded columns existed.
	if err := runMigrations(ctx, db); err != nil {
		t.Fatalf("runMigrations() error = %v", err)
	}
	if _, err := db.Exec("DELETE FROM schema_migrations WHERE version = 3"); err != nil {
		t.Fatalf("Failed to reset version: %v", err)
	}
	if _, err := db.Exec("ALTER TABLE images DROP COLUMN user_folded"); err != nil {
		t.Fatalf("Failed to drop user_folded: %v", err)
	}
	if _, err := db.Exec("ALTER TABLE image_tags DROP COLUMN tag_folded"); err != nil {
		t.Fatalf("Failed to drop tag_folded: %v", err)
	}
	_, err = db.Exec(`
		INSERT INTO images (id, url, page_url, user_name, image_data, created_at)
		VALUES (1, 'u', 'p', 'Alice', x'00', CURRENT_TIMESTAMP)
	`)
	if err != nil {
		t.Fatalf("Failed to insert image: %v", err)
	}
	if _, err := db.Exec("INSERT INTO image_tags (image_id, position, tag) VALUES (1, 0, 'SunSet')"); err != nil {
		t.Fatalf("Failed to insert tag: %v", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		t.Fatalf("runMigrations() error = %v", err)
	}

	var user, tag string
	if err := db.QueryRow("SELECT user_folded FROM images WHERE id = 1").Scan(&user); err != nil {
		t.Fatalf("Failed to read user_folded: %v", err)
	}
	if err := db.QueryRow("SELECT tag_folded FROM image_tags WHERE image_id = 1").Scan(&tag); err != nil {
		t.Fatalf("Failed to read tag_folded: %v", err)
	}
	if user != "alice" || tag != "sunset" {
		t.Errorf("folded = (%q, %q), want (%q, %q)", user, tag, "alice", "sunset")
	}
}
