package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/parse"
)

// Mongo is a document store session owned by one run. Callers must Close it.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// Dial connects and pings the server under the configured retry policy.
func Dial(ctx context.Context, cfg config.MongoConfig, log logger.Logger) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout))
	if err != nil {
		return nil, fmt.Errorf("mongo client: %w", err)
	}

	policy := Policy{Attempts: cfg.Attempts, Delay: cfg.RetryDelay}
	err = Retry(ctx, policy, func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}, func(attempt int, err error) {
		log.Warn("mongo ping failed", "attempt", attempt, "of", policy.Attempts, "error", err)
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &Mongo{client: client, db: client.Database(cfg.Database)}, nil
}

func (m *Mongo) InsertRecords(ctx context.Context, collection string, records []parse.Record) error {
	_, err := m.db.Collection(collection).InsertMany(ctx, records)
	return err
}

func (m *Mongo) Count(ctx context.Context, collection string) (int64, error) {
	return m.db.Collection(collection).CountDocuments(ctx, bson.D{})
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
