package application

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dfryer1193/pixvault/catalog/domain"
)

type mockSearcher struct {
	searchFn func(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
	calls    []domain.SearchRequest
}

func (m *mockSearcher) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	m.calls = append(m.calls, req)
	return m.searchFn(ctx, req)
}

type mockFetcher struct {
	fetchFn func(ctx context.Context, url string) (*domain.FetchedImage, error)
	calls   int
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*domain.FetchedImage, error) {
	m.calls++
	return m.fetchFn(ctx, url)
}

// memoryRepository is an in-process ImageRepository keeping insertion order.
type memoryRepository struct {
	mu     sync.Mutex
	images []*domain.ImageRecord

	insertErr error

	// Context state observed by the last InsertImage call.
	insertCtxErr      error
	insertHasDeadline bool
}

func (r *memoryRepository) InsertImage(ctx context.Context, img *domain.ImageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCtxErr = ctx.Err()
	_, r.insertHasDeadline = ctx.Deadline()
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, existing := range r.images {
		if existing.ID == img.ID {
			return domain.ErrDuplicateImage
		}
	}
	r.images = append(r.images, img)
	return nil
}

func (r *memoryRepository) GetImage(_ context.Context, id int64) (*domain.ImageRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, domain.ErrImageNotFound
}

func (r *memoryRepository) ExistsImage(ctx context.Context, id int64) (bool, error) {
	_, err := r.GetImage(ctx, id)
	return err == nil, nil
}

func (r *memoryRepository) matching(filter domain.CatalogFilter) []*domain.ImageRecord {
	out := []*domain.ImageRecord{}
	for _, img := range r.images {
		if filter.Term == "" || matches(img, filter.Term) {
			out = append(out, img)
		}
	}
	return out
}

func matches(img *domain.ImageRecord, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(img.User), term) {
		return true
	}
	for _, tag := range img.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func (r *memoryRepository) CountImages(_ context.Context, filter domain.CatalogFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *memoryRepository) ListImages(_ context.Context, filter domain.CatalogFilter, offset int64, limit int64) ([]*domain.ImageRecord, error) {
	if offset < 0 {
		return nil, errors.New("offset cannot be negative")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.matching(filter)
	if offset >= int64(len(all)) {
		return []*domain.ImageRecord{}, nil
	}
	end := min(offset+limit, int64(len(all)))
	return all[offset:end], nil
}

func (r *memoryRepository) Ping(context.Context) error { return nil }
