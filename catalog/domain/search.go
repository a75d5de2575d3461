package domain

import (
	"context"
	"encoding/json"
)

// SearchRequest is a query forwarded to the image-search provider.
type SearchRequest struct {
	Query   string
	Page    int
	PerPage int
}

// SearchResult carries the provider's payload untouched, plus the total hit
// count read from it.
type SearchResult struct {
	Total int
	Raw   json.RawMessage
}

type ImageSearcher interface {
	// Search returns ErrProviderNotConfigured when no credential is set,
	// ErrProviderUnauthorized on a rejected credential, a *ProviderError for
	// any other provider failure and ErrUpstream for transport failures.
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
}
