package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/dfryer1193/pixvault/catalog/moderation"
	"github.com/rs/zerolog/log"
)

const DefaultStoreTimeout = 10 * time.Second

// IngestService turns a submitted descriptor into a stored ImageRecord.
type IngestService struct {
	repo         domain.ImageRepository
	fetcher      domain.ImageFetcher
	storeTimeout time.Duration
	now          func() time.Time
}

func NewIngestService(repo domain.ImageRepository, fetcher domain.ImageFetcher, storeTimeout time.Duration) *IngestService {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &IngestService{
		repo:         repo,
		fetcher:      fetcher,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Ingest validates desc, fetches its payload, filters its tags and stores
// the result. The existence check only short-circuits the fetch; the store's
// unique constraint decides races, and both paths yield
// domain.ErrDuplicateImage.
func (s *IngestService) Ingest(ctx context.Context, desc *domain.ImageDescriptor) (*domain.ImageRecord, error) {
	if err := desc.Validate(); err != nil {
		ingestedImages.WithLabelValues("invalid").Inc()
		return nil, err
	}

	exists, err := s.repo.ExistsImage(ctx, desc.ID)
	if err != nil {
		ingestedImages.WithLabelValues("store_error").Inc()
		return nil, fmt.Errorf("checking image %d: %w", desc.ID, err)
	}
	if exists {
		ingestedImages.WithLabelValues("duplicate").Inc()
		log.Info().Int64("imageID", desc.ID).Msg("Image already stored")
		return nil, fmt.Errorf("image %d: %w", desc.ID, domain.ErrDuplicateImage)
	}

	fetched, err := s.fetcher.Fetch(ctx, desc.URL)
	if err != nil {
		ingestedImages.WithLabelValues("fetch_failed").Inc()
		log.Error().Err(err).Int64("imageID", desc.ID).Str("url", desc.URL).Msg("Failed to download image")
		return nil, err
	}

	tags := moderation.FilterTags(desc.Tags)
	if dropped := submittedTagCount(desc.Tags) - len(tags); dropped > 0 {
		droppedTags.Add(float64(dropped))
	}

	img := &domain.ImageRecord{
		ID:           desc.ID,
		URL:          desc.URL,
		PageURL:      desc.PageURL,
		Tags:         tags,
		User:         desc.User,
		UserImageURL: desc.UserImageURL,
		Likes:        desc.Likes,
		Views:        desc.Views,
		Downloads:    desc.Downloads,
		ImageData:    fetched.Data,
		ContentType:  fetched.ContentType,
		CreatedAt:    s.now().UTC(),
	}

	// The payload is already downloaded; finish the write even if the
	// client has gone away.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	if err := s.repo.InsertImage(storeCtx, img); err != nil {
		if errors.Is(err, domain.ErrDuplicateImage) {
			ingestedImages.WithLabelValues("duplicate").Inc()
			log.Info().Int64("imageID", desc.ID).Msg("Image stored concurrently by another request")
			return nil, err
		}
		ingestedImages.WithLabelValues("store_error").Inc()
		log.Error().Err(err).Int64("imageID", desc.ID).Msg("Failed to save image")
		return nil, fmt.Errorf("saving image %d: %w", desc.ID, err)
	}

	ingestedImages.WithLabelValues("ok").Inc()
	ingestedBytes.Add(float64(len(img.ImageData)))
	log.Info().Int64("imageID", img.ID).Int("bytes", len(img.ImageData)).Int("tags", len(img.Tags)).Msg("Image saved")

	return img, nil
}

func submittedTagCount(tags any) int {
	switch v := tags.(type) {
	case []string:
		return len(v)
	case []any:
		return len(v)
	}
	return 0
}
