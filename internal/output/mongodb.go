package output

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kvolkov/leadharvest/internal/config"
	cerrors "github.com/kvolkov/leadharvest/internal/errors"
	"github.com/kvolkov/leadharvest/internal/scraper"
)

// MongoSink upserts one document per harvested URL, keyed by the URL so
// repeated runs refresh rather than duplicate.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoSink connects and pings before the run starts.
func NewMongoSink(ctx context.Context, cfg config.MongoConfig) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "output.mongodb", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, cerrors.New(cerrors.KindFatalConfiguration, "output.mongodb", err)
	}
	db := cfg.Database
	if db == "" {
		db = "leadharvest"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "contacts"
	}
	return &MongoSink{client: client, coll: client.Database(db).Collection(coll)}, nil
}

// Name implements Sink.
func (s *MongoSink) Name() string { return "mongodb" }

// Write implements Sink.
func (s *MongoSink) Write(ctx context.Context, result *scraper.RunResult) error {
	now := time.Now().UTC()
	for _, res := range result.Successes {
		doc := bson.M{
			"url":          res.URL,
			"payload":      res.Payload,
			"harvested_at": now,
		}
		_, err := s.coll.UpdateOne(ctx,
			bson.M{"url": res.URL},
			bson.M{"$set": doc},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return cerrors.New(cerrors.KindCollaborator, "output.mongodb", err)
		}
	}
	return nil
}

// Close implements Sink.
func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
