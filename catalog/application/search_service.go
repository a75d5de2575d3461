package application

import (
	"context"
	"errors"
	"strings"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/dfryer1193/pixvault/catalog/moderation"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSearchPage    = 1
	DefaultSearchPerPage = 20
)

// SearchService proxies free-text image searches to the provider after
// screening the query.
type SearchService struct {
	searcher domain.ImageSearcher
}

func NewSearchService(searcher domain.ImageSearcher) *SearchService {
	return &SearchService{searcher: searcher}
}

// Search validates query and forwards it. A provider answer with zero hits
// is reported as domain.ErrNoResults.
func (s *SearchService) Search(ctx context.Context, query string, page int, perPage int) (*domain.SearchResult, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		searchRequests.WithLabelValues("invalid").Inc()
		return nil, domain.ErrEmptyQuery
	}

	if moderation.IsProhibited(term) {
		searchRequests.WithLabelValues("prohibited").Inc()
		prohibitedQueries.WithLabelValues("search").Inc()
		return nil, domain.ErrProhibitedQuery
	}

	if page < 1 {
		page = DefaultSearchPage
	}
	if perPage < 1 {
		perPage = DefaultSearchPerPage
	}

	result, err := s.searcher.Search(ctx, domain.SearchRequest{
		Query:   term,
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		searchRequests.WithLabelValues(searchOutcome(err)).Inc()
		log.Error().Err(err).Str("query", term).Int("page", page).Msg("Image search failed")
		return nil, err
	}

	if result.Total == 0 {
		searchRequests.WithLabelValues("empty").Inc()
		return nil, domain.ErrNoResults
	}

	searchRequests.WithLabelValues("ok").Inc()
	return result, nil
}

func searchOutcome(err error) string {
	var perr *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return "misconfigured"
	case errors.Is(err, domain.ErrProviderUnauthorized):
		return "unauthorized"
	case errors.As(err, &perr):
		return "provider_error"
	default:
		return "upstream_error"
	}
}
