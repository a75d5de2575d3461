package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFetcher() *mockFetcher {
	return &mockFetcher{
		fetchFn: func(context.Context, string) (*domain.FetchedImage, error) {
			return &domain.FetchedImage{Data: []byte{0x89, 'P', 'N', 'G'}, ContentType: "image/png"}, nil
		},
	}
}

func descriptor(id int64) *domain.ImageDescriptor {
	return &domain.ImageDescriptor{
		ID:        id,
		URL:       "https://cdn.example.com/a.png",
		PageURL:   "https://example.com/a",
		Tags:      []any{"sunset", "beach"},
		User:      "alice",
		Likes:     4,
		Views:     100,
		Downloads: 9,
	}
}

func newTestIngestService(repo *memoryRepository, fetcher *mockFetcher) *IngestService {
	svc := NewIngestService(repo, fetcher, time.Second)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestIngestService_Ingest(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestIngestService(repo, pngFetcher())

	img, err := svc.Ingest(context.Background(), descriptor(42))

	require.NoError(t, err)
	assert.Equal(t, int64(42), img.ID)
	assert.Equal(t, []string{"sunset", "beach"}, img.Tags)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, img.ImageData)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(100), img.Views)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), img.CreatedAt)

	stored, err := repo.GetImage(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, img, stored)
}

func TestIngestService_Ingest_MissingField(t *testing.T) {
	repo := &memoryRepository{}
	fetcher := pngFetcher()
	svc := newTestIngestService(repo, fetcher)

	desc := descriptor(1)
	desc.User = ""
	_, err := svc.Ingest(context.Background(), desc)

	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "user", missing.Field)
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, repo.images)
}

func TestIngestService_Ingest_Duplicate(t *testing.T) {
	repo := &memoryRepository{}
	fetcher := pngFetcher()
	svc := newTestIngestService(repo, fetcher)

	first, err := svc.Ingest(context.Background(), descriptor(7))
	require.NoError(t, err)

	second := descriptor(7)
	second.User = "mallory"
	second.Tags = []any{"changed"}
	_, err = svc.Ingest(context.Background(), second)

	assert.ErrorIs(t, err, domain.ErrDuplicateImage)
	assert.Equal(t, 1, fetcher.calls)

	stored, err := repo.GetImage(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, stored)
	assert.Equal(t, "alice", stored.User)
}

func TestIngestService_Ingest_DuplicateRace(t *testing.T) {
	// The existence check passes but another writer wins the insert.
	repo := &memoryRepository{insertErr: fmt.Errorf("insert: %w", domain.ErrDuplicateImage)}
	svc := newTestIngestService(repo, pngFetcher())

	_, err := svc.Ingest(context.Background(), descriptor(3))

	assert.ErrorIs(t, err, domain.ErrDuplicateImage)
}

func TestIngestService_Ingest_FetchFailure(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestIngestService(repo, &mockFetcher{
		fetchFn: func(context.Context, string) (*domain.FetchedImage, error) {
			return nil, fmt.Errorf("status 404: %w", domain.ErrFetchFailed)
		},
	})

	_, err := svc.Ingest(context.Background(), descriptor(5))

	assert.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Empty(t, repo.images)
}

func TestIngestService_Ingest_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	repo := &memoryRepository{insertErr: storeErr}
	svc := newTestIngestService(repo, pngFetcher())

	_, err := svc.Ingest(context.Background(), descriptor(5))

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrDuplicateImage)
}

func TestIngestService_Ingest_FiltersTags(t *testing.T) {
	tests := []struct {
		name string
		tags any
		want []string
	}{
		{name: "prohibited tags dropped", tags: []any{"sunset", "racist", "poor tribe", "beach"}, want: []string{"sunset", "beach"}},
		{name: "non-string elements dropped", tags: []any{"sunset", 12, nil, "beach"}, want: []string{"sunset", "beach"}},
		{name: "not a list", tags: "sunset", want: []string{}},
		{name: "absent", tags: nil, want: []string{}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryRepository{}
			svc := newTestIngestService(repo, pngFetcher())

			desc := descriptor(int64(i + 1))
			desc.Tags = tt.tags
			img, err := svc.Ingest(context.Background(), desc)

			require.NoError(t, err)
			assert.Equal(t, tt.want, img.Tags)
		})
	}
}

func TestIngestService_Ingest_PersistsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := &memoryRepository{}
	svc := newTestIngestService(repo, &mockFetcher{
		fetchFn: func(context.Context, string) (*domain.FetchedImage, error) {
			// Client disconnects once the payload is in hand.
			cancel()
			return &domain.FetchedImage{Data: []byte("x")}, nil
		},
	})

	_, err := svc.Ingest(ctx, descriptor(11))

	require.NoError(t, err)
	assert.NoError(t, repo.insertCtxErr)
	assert.True(t, repo.insertHasDeadline)
}
