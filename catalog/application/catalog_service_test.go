package application

import (
	"context"
	"math"
	"testing"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededRepository() *memoryRepository {
	return &memoryRepository{images: []*domain.ImageRecord{
		{ID: 1, User: "Alice", Tags: []string{"Sunset", "beach"}},
		{ID: 2, User: "bob", Tags: []string{"mountain"}},
		{ID: 3, User: "carol", Tags: []string{"city", "night"}},
	}}
}

func ids(images []*domain.ImageRecord) []int64 {
	out := make([]int64, 0, len(images))
	for _, img := range images {
		out = append(out, img.ID)
	}
	return out
}

func TestCatalogService_Query(t *testing.T) {
	tests := []struct {
		name      string
		query     CatalogQuery
		wantIDs   []int64
		wantPage  int
		wantPages int
		wantTotal int64
	}{
		{
			name:      "defaults",
			query:     CatalogQuery{},
			wantIDs:   []int64{1, 2, 3},
			wantPage:  1,
			wantPages: 1,
			wantTotal: 3,
		},
		{
			name:      "second page of one",
			query:     CatalogQuery{Page: 2, PerPage: 1},
			wantIDs:   []int64{2},
			wantPage:  2,
			wantPages: 3,
			wantTotal: 3,
		},
		{
			name:      "past the end",
			query:     CatalogQuery{Page: 9, PerPage: 2},
			wantIDs:   []int64{},
			wantPage:  9,
			wantPages: 2,
			wantTotal: 3,
		},
		{
			name:      "page offset overflows",
			query:     CatalogQuery{Page: math.MaxInt, PerPage: 12},
			wantIDs:   []int64{},
			wantPage:  math.MaxInt,
			wantPages: 1,
			wantTotal: 3,
		},
		{
			name:      "term is trimmed and case-folded",
			query:     CatalogQuery{Term: "  SUNSET "},
			wantIDs:   []int64{1},
			wantPage:  1,
			wantPages: 1,
			wantTotal: 1,
		},
		{
			name:      "term matches user",
			query:     CatalogQuery{Term: "bob"},
			wantIDs:   []int64{2},
			wantPage:  1,
			wantPages: 1,
			wantTotal: 1,
		},
		{
			name:      "no match",
			query:     CatalogQuery{Term: "zzz"},
			wantIDs:   []int64{},
			wantPage:  1,
			wantPages: 0,
			wantTotal: 0,
		},
		{
			name:      "negative paging falls back",
			query:     CatalogQuery{Page: -3, PerPage: -1},
			wantIDs:   []int64{1, 2, 3},
			wantPage:  1,
			wantPages: 1,
			wantTotal: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCatalogService(seededRepository(), 0)

			page, err := svc.Query(context.Background(), tt.query)

			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(page.Images))
			assert.Equal(t, tt.wantPage, page.CurrentPage)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, tt.wantTotal, page.TotalImages)
		})
	}
}

func TestCatalogService_Query_CapsPerPage(t *testing.T) {
	svc := NewCatalogService(seededRepository(), 2)

	page, err := svc.Query(context.Background(), CatalogQuery{PerPage: 500})

	require.NoError(t, err)
	assert.Len(t, page.Images, 2)
	assert.Equal(t, 2, page.TotalPages)
}

func TestCatalogService_Query_Prohibited(t *testing.T) {
	svc := NewCatalogService(seededRepository(), 0)

	_, err := svc.Query(context.Background(), CatalogQuery{Term: "Supremacy"})

	assert.ErrorIs(t, err, domain.ErrProhibitedQuery)
}

func TestCatalogService_GetImage(t *testing.T) {
	svc := NewCatalogService(seededRepository(), 0)

	img, err := svc.GetImage(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "carol", img.User)

	_, err = svc.GetImage(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}

func TestPageOffset(t *testing.T) {
	offset, ok := pageOffset(3, 12)
	assert.True(t, ok)
	assert.Equal(t, int64(24), offset)

	_, ok = pageOffset(math.MaxInt, 12)
	assert.False(t, ok)

	offset, ok = pageOffset(math.MaxInt, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt-1), offset)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 12))
	assert.Equal(t, 1, totalPages(12, 12))
	assert.Equal(t, 2, totalPages(13, 12))
	assert.Equal(t, 3, totalPages(3, 1))
}
