package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/riglink/pkg/errors"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// MongoStore keeps one document per scene, keyed by scene name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "riglink"
	}
	if cfg.Collection == "" {
		cfg.Collection = "scenes"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	ping := func() error { return transient(client.Ping(connectCtx, nil)) }
	if err := retry(connectCtx, connectAttempts, connectDelay, ping); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "mongo get %s", name)
	}
	return &rec, nil
}

func (s *MongoStore) Put(ctx context.Context, rec *Record) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.Name}, rec, opts); err != nil {
		return fmt.Errorf("mongo put: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var docs []struct {
		Name string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
