package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dfryer1193/pixvault/api"
	"github.com/dfryer1193/pixvault/catalog/application"
	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/gin-gonic/gin"
)

const (
	healthTimeout      = 2 * time.Second
	defaultContentType = "application/octet-stream"
)

type ImageSearcher interface {
	Search(ctx context.Context, query string, page int, perPage int) (*domain.SearchResult, error)
}

type ImageIngester interface {
	Ingest(ctx context.Context, desc *domain.ImageDescriptor) (*domain.ImageRecord, error)
}

type ImageCatalog interface {
	Query(ctx context.Context, q application.CatalogQuery) (*application.CatalogPage, error)
	GetImage(ctx context.Context, id int64) (*domain.ImageRecord, error)
	Ping(ctx context.Context) error
}

type Handlers struct {
	search  ImageSearcher
	ingest  ImageIngester
	catalog ImageCatalog
}

func NewHandlers(search ImageSearcher, ingest ImageIngester, catalog ImageCatalog) *Handlers {
	return &Handlers{search: search, ingest: ingest, catalog: catalog}
}

// SearchImages relays the provider's payload for ?q=&page=&per_page=.
func (h *Handlers) SearchImages(c *gin.Context) {
	result, err := h.search.Search(c.Request.Context(),
		c.Query("q"),
		queryInt(c, "page"),
		queryInt(c, "per_page"),
	)
	if err != nil {
		writeError(c, err, msgSearchFailed)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", result.Raw)
}

func (h *Handlers) SaveImage(c *gin.Context) {
	var desc domain.ImageDescriptor
	// An empty body is treated as an empty descriptor so the client learns
	// which field is missing.
	if err := c.ShouldBindJSON(&desc); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: msgInvalidBody})
		return
	}

	img, err := h.ingest.Ingest(c.Request.Context(), &desc)
	if err != nil {
		writeError(c, err, msgSaveFailed)
		return
	}

	c.JSON(http.StatusCreated, api.SaveImageResponse{
		Message: msgImageSaved,
		Image:   img,
	})
}

func (h *Handlers) ListSavedImages(c *gin.Context) {
	page, err := h.catalog.Query(c.Request.Context(), application.CatalogQuery{
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "per_page"),
		Term:    c.Query("q"),
	})
	if err != nil {
		writeError(c, err, msgCatalogFailed)
		return
	}

	images := page.Images
	if images == nil {
		images = []*domain.ImageRecord{}
	}
	c.JSON(http.StatusOK, api.CatalogResponse{
		Images:      images,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		TotalImages: page.TotalImages,
	})
}

// GetRawImage writes the stored payload with its sniffed content type.
func (h *Handlers) GetRawImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: msgInvalidImageID})
		return
	}

	img, err := h.catalog.GetImage(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, msgImageFailed)
		return
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	// Records are never updated.
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, img.ImageData)
}

func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.catalog.Ping(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: msgStoreUnavailable})
		return
	}
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// queryInt reads the leading integer of a query parameter, so "2.5" is 2
// and "3abc" is 3. A parameter with no leading digits yields 0, leaving the
// default to the service.
func queryInt(c *gin.Context, key string) int {
	return leadingInt(c.Query(key))
}

// leadingInt saturates at the int range instead of failing.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}
