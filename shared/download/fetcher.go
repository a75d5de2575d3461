package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 20 << 20
)

// Fetcher is an implementation of domain.ImageFetcher over plain HTTP GET.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
}

var _ domain.ImageFetcher = (*Fetcher)(nil)

// NewFetcher creates a Fetcher. Payloads larger than maxBytes are refused.
func NewFetcher(httpClient *http.Client, maxBytes int64) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		httpClient: httpClient,
		maxBytes:   maxBytes,
	}
}

// Fetch downloads url into memory. Every failure wraps domain.ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*domain.FetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %w", domain.ErrFetchFailed, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s responded with status %d", domain.ErrFetchFailed, url, resp.StatusCode)
	}

	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds limit of %d", domain.ErrFetchFailed, resp.ContentLength, f.maxBytes)
	}

	// One extra byte tells an exact-size payload from an oversized one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", domain.ErrFetchFailed, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: payload exceeds limit of %d bytes", domain.ErrFetchFailed, f.maxBytes)
	}

	return &domain.FetchedImage{
		Data:        data,
		ContentType: mimetype.Detect(data).String(),
	}, nil
}
