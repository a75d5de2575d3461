package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dfryer1193/pixvault/shared/db"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	DefaultURI        = "mongodb://localhost:27017/Aplication"
	DefaultDatabase   = "Aplication"
	DefaultCollection = "Collection"

	serverSelectionTimeout = 5 * time.Second
)

type MongoConfig struct {
	URI        string
	Collection string
}

// MongoDB implements db.Database for a single collection of a MongoDB
// deployment.
type MongoDB struct {
	cfg        MongoConfig
	client     *mongo.Client
	collection *mongo.Collection
}

var _ db.Database = (*MongoDB)(nil)

func NewMongoDB(cfg MongoConfig) *MongoDB {
	if cfg.URI == "" {
		cfg.URI = DefaultURI
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	return &MongoDB{cfg: cfg}
}

// Connect dials the deployment, verifies it answers and makes sure the
// unique index on the image id exists.
func (m *MongoDB) Connect(ctx context.Context) error {
	if m.client != nil {
		return fmt.Errorf("database already connected")
	}

	opts := options.Client().
		ApplyURI(m.cfg.URI).
		SetServerSelectionTimeout(serverSelectionTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongo: %w", err)
	}

	collection := client.Database(DatabaseName(m.cfg.URI)).Collection(m.cfg.Collection)
	if err := ensureIndexes(ctx, collection); err != nil {
		_ = client.Disconnect(ctx)
		return err
	}

	m.client = client
	m.collection = collection
	return nil
}

func ensureIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("id_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique index on id: %w", err)
	}
	return nil
}

func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("database not connected")
	}
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	err := m.client.Disconnect(ctx)
	m.client = nil
	m.collection = nil
	return err
}

// Collection returns the images collection; nil before Connect.
func (m *MongoDB) Collection() *mongo.Collection {
	return m.collection
}

// DatabaseName extracts the database from the connection string path,
// falling back to DefaultDatabase.
func DatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultDatabase
	}

	name := strings.Trim(u.Path, "/")
	if name == "" {
		return DefaultDatabase
	}
	return name
}
