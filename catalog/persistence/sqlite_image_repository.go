package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/dfryer1193/pixvault/shared/db"
	"github.com/dfryer1193/pixvault/shared/db/sqlite"
)

var _ domain.ImageRepository = (*SQLiteImageRepository)(nil)

// SQLiteImageRepository implements domain.ImageRepository using SQL database (SQLite)
type SQLiteImageRepository struct {
	db *sql.DB
}

// NewSQLiteImageRepository creates a new SQLiteImageRepository from a standard sql.DB
func NewSQLiteImageRepository(sqlDB *sql.DB) *SQLiteImageRepository {
	return &SQLiteImageRepository{
		db: sqlDB,
	}
}

const insertImageQuery = `
	INSERT INTO images (id, url, page_url, user_name, user_folded, user_image_url, likes, views, downloads, image_data, content_type, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertTagQuery = `
	INSERT INTO image_tags (image_id, position, tag, tag_folded)
	VALUES (?, ?, ?, ?)
`

// InsertImage stores the record and its tags in one transaction. The
// primary key on images.id decides duplicates.
func (r *SQLiteImageRepository) InsertImage(ctx context.Context, img *domain.ImageRecord) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	if img.ID == 0 {
		return fmt.Errorf("image id cannot be zero")
	}

	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	// Stored as text; UTC keeps lexical and chronological order the same.
	img.CreatedAt = img.CreatedAt.UTC()

	return db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, r.db)
		_, err := executor.ExecContext(txCtx, insertImageQuery,
			img.ID,
			img.URL,
			img.PageURL,
			img.User,
			foldCase(img.User),
			img.UserImageURL,
			img.Likes,
			img.Views,
			img.Downloads,
			img.ImageData,
			img.ContentType,
			img.CreatedAt,
		)
		if err != nil {
			if sqlite.IsUniqueViolation(err) {
				return fmt.Errorf("image %d: %w", img.ID, domain.ErrDuplicateImage)
			}
			return fmt.Errorf("failed to insert image record: %w", err)
		}

		for i, tag := range img.Tags {
			if _, err := executor.ExecContext(txCtx, insertTagQuery, img.ID, i, tag, foldCase(tag)); err != nil {
				return fmt.Errorf("failed to insert tag %q: %w", tag, err)
			}
		}

		return nil
	})
}

const selectImageColumns = `
	SELECT id, url, page_url, user_name, user_image_url, likes, views, downloads, image_data, content_type, created_at
	FROM images
`

// GetImage retrieves a single image by id
func (r *SQLiteImageRepository) GetImage(ctx context.Context, id int64) (*domain.ImageRecord, error) {
	executor := db.GetExecutor(ctx, r.db)

	var row imageRow
	err := executor.QueryRowContext(ctx, selectImageColumns+" WHERE id = ?", id).Scan(row.scanTargets()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("image %d: %w", id, domain.ErrImageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	img := row.toDomain()
	tags, err := r.tagsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	img.Tags = tags[id]
	if img.Tags == nil {
		img.Tags = []string{}
	}

	return img, nil
}

// ExistsImage reports whether an image with id is stored
func (r *SQLiteImageRepository) ExistsImage(ctx context.Context, id int64) (bool, error) {
	executor := db.GetExecutor(ctx, r.db)

	var exists bool
	err := executor.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM images WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check image existence: %w", err)
	}
	return exists, nil
}

// CountImages counts the images matching filter
func (r *SQLiteImageRepository) CountImages(ctx context.Context, filter domain.CatalogFilter) (int64, error) {
	where, args := buildWhere(filter)
	executor := db.GetExecutor(ctx, r.db)

	var count int64
	if err := executor.QueryRowContext(ctx, "SELECT COUNT(*) FROM images"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

// ListImages returns one page of matching images in insertion order
func (r *SQLiteImageRepository) ListImages(ctx context.Context, filter domain.CatalogFilter, offset int64, limit int64) ([]*domain.ImageRecord, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset cannot be negative")
	}
	if limit <= 0 {
		return []*domain.ImageRecord{}, nil
	}

	where, args := buildWhere(filter)
	query := selectImageColumns + where + " ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images := []*domain.ImageRecord{}
	ids := []int64{}
	for rows.Next() {
		var row imageRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, row.toDomain())
		ids = append(ids, row.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate images: %w", err)
	}
	rows.Close()

	tags, err := r.tagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if t, ok := tags[img.ID]; ok {
			img.Tags = t
		} else {
			img.Tags = []string{}
		}
	}

	return images, nil
}

// Ping checks the underlying connection
func (r *SQLiteImageRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// tagsFor loads the ordered tags of the given images.
func (r *SQLiteImageRepository) tagsFor(ctx context.Context, ids []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	executor := db.GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx,
		"SELECT image_id, tag FROM image_tags WHERE image_id IN ("+placeholders+") ORDER BY image_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		result[id] = append(result[id], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return result, nil
}

// foldCase is the Unicode lower-casing shared by the folded columns and the
// search term.
func foldCase(s string) string {
	return strings.ToLower(s)
}

// buildWhere matches Term as a literal, case-insensitive substring of any
// tag or of the user name, comparing against the folded columns.
func buildWhere(filter domain.CatalogFilter) (string, []any) {
	term := foldCase(filter.Term)
	if term == "" {
		return "", nil
	}

	where := `
		WHERE instr(user_folded, ?) > 0
		OR EXISTS (
			SELECT 1 FROM image_tags t
			WHERE t.image_id = images.id AND instr(t.tag_folded, ?) > 0
		)
	`
	return where, []any{term, term}
}

// imageRow is a private struct used to scan database rows
type imageRow struct {
	ID           int64
	URL          string
	PageURL      string
	User         string
	UserImageURL string
	Likes        int64
	Views        int64
	Downloads    int64
	ImageData    []byte
	ContentType  string
	CreatedAt    time.Time
}

func (ir *imageRow) scanTargets() []any {
	return []any{
		&ir.ID,
		&ir.URL,
		&ir.PageURL,
		&ir.User,
		&ir.UserImageURL,
		&ir.Likes,
		&ir.Views,
		&ir.Downloads,
		&ir.ImageData,
		&ir.ContentType,
		&ir.CreatedAt,
	}
}

// toDomain converts an imageRow to a domain.ImageRecord without tags
func (ir *imageRow) toDomain() *domain.ImageRecord {
	return &domain.ImageRecord{
		ID:           ir.ID,
		URL:          ir.URL,
		PageURL:      ir.PageURL,
		User:         ir.User,
		UserImageURL: ir.UserImageURL,
		Likes:        ir.Likes,
		Views:        ir.Views,
		Downloads:    ir.Downloads,
		ImageData:    ir.ImageData,
		ContentType:  ir.ContentType,
		CreatedAt:    ir.CreatedAt,
	}
}
