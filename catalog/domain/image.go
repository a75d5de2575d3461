package domain

import (
	"context"
	"time"
)

// ImageRecord is a persisted image: provider metadata plus the raw bytes
// fetched from URL at ingestion time. Records are never updated.
type ImageRecord struct {
	ID           int64     `json:"id" bson:"id"`
	URL          string    `json:"url" bson:"url"`
	PageURL      string    `json:"pageURL" bson:"pageURL"`
	Tags         []string  `json:"tags" bson:"tags"`
	User         string    `json:"user" bson:"user"`
	UserImageURL string    `json:"userImageURL" bson:"userImageURL"`
	Likes        int64     `json:"likes" bson:"likes"`
	Views        int64     `json:"views" bson:"views"`
	Downloads    int64     `json:"downloads" bson:"downloads"`
	ImageData    []byte    `json:"imageData" bson:"imageData"`
	ContentType  string    `json:"contentType" bson:"contentType"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// ImageDescriptor is what a client submits to have an image ingested.
// Tags is left untyped so a malformed tag value can be filtered instead of
// rejecting the whole request.
type ImageDescriptor struct {
	ID           int64  `json:"id"`
	URL          string `json:"url"`
	PageURL      string `json:"pageURL"`
	Tags         any    `json:"tags"`
	User         string `json:"user"`
	UserImageURL string `json:"userImageURL"`
	Likes        int64  `json:"likes"`
	Views        int64  `json:"views"`
	Downloads    int64  `json:"downloads"`
}

// Validate returns a *MissingFieldError for the first required field that
// is absent, checked in the order id, url, pageURL, user.
func (d *ImageDescriptor) Validate() error {
	switch {
	case d.ID == 0:
		return &MissingFieldError{Field: "id"}
	case d.URL == "":
		return &MissingFieldError{Field: "url"}
	case d.PageURL == "":
		return &MissingFieldError{Field: "pageURL"}
	case d.User == "":
		return &MissingFieldError{Field: "user"}
	}
	return nil
}

// CatalogFilter selects stored records. An empty Term matches everything;
// otherwise a record matches when any tag or the user name contains Term,
// ignoring case. Term is matched literally.
type CatalogFilter struct {
	Term string
}

type ImageRepository interface {
	// InsertImage stores a new record. It returns ErrDuplicateImage when a
	// record with the same ID already exists; existing records are never
	// overwritten.
	InsertImage(ctx context.Context, img *ImageRecord) error

	// GetImage returns ErrImageNotFound when no record has the given ID.
	GetImage(ctx context.Context, id int64) (*ImageRecord, error)

	// ExistsImage reports whether a record with the given ID is stored.
	ExistsImage(ctx context.Context, id int64) (bool, error)

	CountImages(ctx context.Context, filter CatalogFilter) (int64, error)

	// ListImages returns matching records in insertion order.
	ListImages(ctx context.Context, filter CatalogFilter, offset int64, limit int64) ([]*ImageRecord, error)

	Ping(ctx context.Context) error
}

// ImageFetcher downloads an image payload.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedImage, error)
}

type FetchedImage struct {
	Data        []byte
	ContentType string
}
