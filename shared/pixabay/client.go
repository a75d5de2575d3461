package pixabay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dfryer1193/pixvault/catalog/domain"
)

const (
	DefaultBaseURL = "https://pixabay.com/api/"
	DefaultTimeout = 10 * time.Second

	// Pixabay rejects per_page outside this range.
	MinPerPage = 3
	MaxPerPage = 200

	defaultErrorMessage = "Pixabay API error"

	// maxErrorBody bounds how much of an error response is read for its message.
	maxErrorBody = 4 << 10
)

// Client is an implementation of domain.ImageSearcher backed by the Pixabay
// image search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

var _ domain.ImageSearcher = (*Client)(nil)

// NewClient creates a Pixabay client. An empty apiKey is accepted; Search
// then fails with domain.ErrProviderNotConfigured without calling out.
func NewClient(httpClient *http.Client, baseURL string, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// searchResponse is the part of the Pixabay payload the client inspects.
// The payload itself is relayed untouched.
type searchResponse struct {
	Total int `json:"total"`
}

// Search runs an image search.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	if c.apiKey == "" {
		return nil, domain.ErrProviderNotConfigured
	}

	op := fmt.Sprintf("searching images for %q", req.Query)

	reqURL, err := c.searchURL(req)
	if err != nil {
		return nil, fmt.Errorf("pixabay: %s: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("pixabay: %s: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pixabay: %s: %w: %w", op, domain.ErrUpstream, redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, handlePixabayError(op, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pixabay: %s: reading response: %w: %w", op, domain.ErrUpstream, err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("pixabay: %s: decoding response: %w: %w", op, domain.ErrUpstream, err)
	}

	return &domain.SearchResult{
		Total: parsed.Total,
		Raw:   json.RawMessage(body),
	}, nil
}

func (c *Client) searchURL(req domain.SearchRequest) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}

	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("q", req.Query)
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(clampPerPage(req.PerPage)))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func clampPerPage(n int) int {
	return min(max(n, MinPerPage), MaxPerPage)
}

// handlePixabayError turns a non-2xx response into a domain error. Pixabay
// answers errors with a plain-text body such as "[ERROR 400] ..."; a JSON
// body with a "message" field is honored as well.
func handlePixabayError(op string, resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("pixabay: %s: %w", op, domain.ErrProviderUnauthorized)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return fmt.Errorf("pixabay: %s: %w", op, &domain.ProviderError{
		Status:  resp.StatusCode,
		Message: errorMessage(body),
	})
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return defaultErrorMessage
	}
	return text
}

// redactKey strips the API key from transport errors, which embed the full
// request URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if key == "" || !errors.As(err, &urlErr) {
		return err
	}

	return &url.Error{
		Op:  urlErr.Op,
		URL: strings.ReplaceAll(urlErr.URL, url.QueryEscape(key), "REDACTED"),
		Err: urlErr.Err,
	}
}
