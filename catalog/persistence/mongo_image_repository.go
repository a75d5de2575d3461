package persistence

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dfryer1193/pixvault/catalog/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ domain.ImageRepository = (*MongoImageRepository)(nil)

// MongoImageRepository implements domain.ImageRepository on a MongoDB
// collection carrying a unique index on "id".
type MongoImageRepository struct {
	collection *mongo.Collection
}

func NewMongoImageRepository(collection *mongo.Collection) *MongoImageRepository {
	return &MongoImageRepository{collection: collection}
}

// InsertImage relies on the unique index to reject duplicates.
func (r *MongoImageRepository) InsertImage(ctx context.Context, img *domain.ImageRecord) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}
	if img.ID == 0 {
		return fmt.Errorf("image id cannot be zero")
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	if img.Tags == nil {
		img.Tags = []string{}
	}

	_, err := r.collection.InsertOne(ctx, img)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("image %d: %w", img.ID, domain.ErrDuplicateImage)
		}
		return fmt.Errorf("failed to insert image document: %w", err)
	}
	return nil
}

func (r *MongoImageRepository) GetImage(ctx context.Context, id int64) (*domain.ImageRecord, error) {
	var img domain.ImageRecord
	err := r.collection.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(&img)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("image %d: %w", id, domain.ErrImageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	normalizeTags(&img)
	return &img, nil
}

func (r *MongoImageRepository) ExistsImage(ctx context.Context, id int64) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := r.collection.FindOne(ctx, bson.D{{Key: "id", Value: id}}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check image existence: %w", err)
	}
	return true, nil
}

func (r *MongoImageRepository) CountImages(ctx context.Context, filter domain.CatalogFilter) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, catalogFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}

// ListImages pages through matching documents ordered by _id, i.e. by
// insertion.
func (r *MongoImageRepository) ListImages(ctx context.Context, filter domain.CatalogFilter, offset int64, limit int64) ([]*domain.ImageRecord, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset cannot be negative")
	}
	if limit <= 0 {
		return []*domain.ImageRecord{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, catalogFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	images := []*domain.ImageRecord{}
	if err := cursor.All(ctx, &images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	for _, img := range images {
		normalizeTags(img)
	}
	return images, nil
}

func (r *MongoImageRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}

// catalogFilter matches the term as an escaped, case-insensitive regex
// against tags (any element) or user.
func catalogFilter(filter domain.CatalogFilter) bson.D {
	term := strings.TrimSpace(filter.Term)
	if term == "" {
		return bson.D{}
	}

	pattern := bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "tags", Value: pattern}},
		bson.D{{Key: "user", Value: pattern}},
	}}}
}

func normalizeTags(img *domain.ImageRecord) {
	if img.Tags == nil {
		img.Tags = []string{}
	}
}
