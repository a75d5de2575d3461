package api

import "github.com/dfryer1193/pixvault/catalog/domain"

type SaveImageResponse struct {
	Message string              `json:"message"`
	Image   *domain.ImageRecord `json:"image"`
}

type CatalogResponse struct {
	Images      []*domain.ImageRecord `json:"images"`
	CurrentPage int                   `json:"currentPage"`
	TotalPages  int                   `json:"totalPages"`
	TotalImages int64                 `json:"totalImages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
