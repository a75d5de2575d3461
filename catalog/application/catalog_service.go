package application

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/dfryer1193/pixvault/catalog/moderation"
)

const (
	DefaultCatalogPage    = 1
	DefaultCatalogPerPage = 12
	DefaultMaxPerPage     = 100
)

// CatalogQuery selects one page of stored images. Zero or negative Page and
// PerPage fall back to their defaults.
type CatalogQuery struct {
	Page    int
	PerPage int
	Term    string
}

type CatalogPage struct {
	Images      []*domain.ImageRecord
	CurrentPage int
	TotalPages  int
	TotalImages int64
}

// CatalogService pages through stored images.
type CatalogService struct {
	repo       domain.ImageRepository
	maxPerPage int
}

func NewCatalogService(repo domain.ImageRepository, maxPerPage int) *CatalogService {
	if maxPerPage <= 0 {
		maxPerPage = DefaultMaxPerPage
	}
	return &CatalogService{repo: repo, maxPerPage: maxPerPage}
}

// Query returns the requested page. A page past the end is empty, not an
// error.
func (s *CatalogService) Query(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	page := q.Page
	if page < 1 {
		page = DefaultCatalogPage
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultCatalogPerPage
	}
	perPage = min(perPage, s.maxPerPage)

	term := strings.ToLower(strings.TrimSpace(q.Term))
	if term != "" && moderation.IsProhibited(term) {
		prohibitedQueries.WithLabelValues("catalog").Inc()
		return nil, domain.ErrProhibitedQuery
	}

	filter := domain.CatalogFilter{Term: term}

	total, err := s.repo.CountImages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("counting images: %w", err)
	}

	images := []*domain.ImageRecord{}
	if offset, ok := pageOffset(page, perPage); ok && offset < total {
		images, err = s.repo.ListImages(ctx, filter, offset, int64(perPage))
		if err != nil {
			return nil, fmt.Errorf("listing images: %w", err)
		}
	}

	return &CatalogPage{
		Images:      images,
		CurrentPage: page,
		TotalPages:  totalPages(total, perPage),
		TotalImages: total,
	}, nil
}

// pageOffset reports false when the offset of page does not fit in an int64.
func pageOffset(page, perPage int) (int64, bool) {
	skipped := int64(page - 1)
	if skipped > math.MaxInt64/int64(perPage) {
		return 0, false
	}
	return skipped * int64(perPage), true
}

func totalPages(total int64, perPage int) int {
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// GetImage returns a single stored record, or domain.ErrImageNotFound.
func (s *CatalogService) GetImage(ctx context.Context, id int64) (*domain.ImageRecord, error) {
	return s.repo.GetImage(ctx, id)
}

// Ping reports whether the backing store is reachable.
func (s *CatalogService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
