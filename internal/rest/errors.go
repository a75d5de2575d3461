package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/pixvault/api"
	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/dfryer1193/pixvault/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	msgInvalidBody      = "invalid request body"
	msgInvalidImageID   = "invalid image id"
	msgSearchFailed     = "failed to search images"
	msgSaveFailed       = "failed to save image"
	msgCatalogFailed    = "failed to fetch saved images"
	msgImageFailed      = "failed to fetch image"
	msgImageSaved       = "image saved successfully"
	msgStoreUnavailable = "store unavailable"
)

// statusFor maps err onto a response status and message. Errors outside
// the domain taxonomy yield 500 and the caller's fallback message.
func statusFor(err error, fallback string) (int, string) {
	var missing *domain.MissingFieldError
	var provider *domain.ProviderError

	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest, domain.ErrEmptyQuery.Error()
	case errors.Is(err, domain.ErrProhibitedQuery):
		return http.StatusBadRequest, domain.ErrProhibitedQuery.Error()
	case errors.As(err, &missing):
		return http.StatusBadRequest, missing.Error()
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return http.StatusInternalServerError, "server configuration error"
	case errors.Is(err, domain.ErrProviderUnauthorized):
		return http.StatusUnauthorized, "invalid Pixabay API key"
	case errors.As(err, &provider):
		status := provider.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		return status, provider.Message
	case errors.Is(err, domain.ErrNoResults):
		return http.StatusNotFound, domain.ErrNoResults.Error()
	case errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound, domain.ErrImageNotFound.Error()
	case errors.Is(err, domain.ErrDuplicateImage):
		return http.StatusConflict, domain.ErrDuplicateImage.Error()
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusInternalServerError, "failed to download image from url"
	default:
		return http.StatusInternalServerError, fallback
	}
}

func writeError(c *gin.Context, err error, fallback string) {
	status, msg := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("requestID", c.GetString(middleware.RequestIDKey)).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("Request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: msg})
}
