package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery      = errors.New("search term is required")
	ErrProhibitedQuery = errors.New("search term contains prohibited content")

	ErrDuplicateImage = errors.New("image already exists")
	ErrImageNotFound  = errors.New("image not found")
	ErrNoResults      = errors.New("no images found for this search")

	ErrProviderNotConfigured = errors.New("image search provider is not configured")
	ErrProviderUnauthorized  = errors.New("image search provider rejected the API key")
	ErrUpstream              = errors.New("image search provider unreachable")

	ErrFetchFailed = errors.New("failed to download image")
)

// MissingFieldError reports a required descriptor field that was not
// supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// ProviderError is a failure reported by the search provider itself.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider responded with status %d: %s", e.Status, e.Message)
}
