// pkg/store/document.go
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/config"
)

// DocumentStore is the document persistence surface the sync engine
// depends on: one collection per gold artifact.
type DocumentStore interface {
	// Upsert atomically replaces the document matching keyField=keyValue,
	// inserting it when absent
	Upsert(ctx context.Context, collection, keyField string, keyValue interface{}, doc map[string]interface{}) error

	// InsertMany bulk-inserts documents; it may partially fail
	InsertMany(ctx context.Context, collection string, docs []map[string]interface{}) error

	// InsertOne inserts a single document
	InsertOne(ctx context.Context, collection string, doc map[string]interface{}) error
}

// MongoStore implements DocumentStore against a MongoDB database
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, cfg *config.MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	if cfg == nil {
		return nil, errors.New("mongo configuration cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// Close disconnects the underlying client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Upsert atomically replaces the document matching keyField=keyValue,
// inserting it when absent. Replace keeps the write atomic per document,
// so concurrent readers never observe a momentarily missing key.
func (s *MongoStore) Upsert(ctx context.Context, collection, keyField string, keyValue interface{}, doc map[string]interface{}) error {
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{keyField: keyValue},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", collection, err)
	}
	return nil
}

// InsertMany bulk-inserts documents unordered, so one failing document
// does not abort the rest of the batch on the server side
func (s *MongoStore) InsertMany(ctx context.Context, collection string, docs []map[string]interface{}) error {
	items := make([]interface{}, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}

	_, err := s.db.Collection(collection).InsertMany(ctx, items, options.InsertMany().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to bulk insert into %s: %w", collection, err)
	}
	return nil
}

// InsertOne inserts a single document
func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc map[string]interface{}) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}
