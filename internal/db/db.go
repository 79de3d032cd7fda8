package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentStore runs read queries against named collections of the document database.
type DocumentStore interface {
	Pinger
	// Aggregate runs pipeline and decodes every result document into out (a pointer to a slice).
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, out any) error
	// FindOne decodes the first document matching filter into out. Returns ErrNoDocument on miss.
	FindOne(ctx context.Context, collection string, filter bson.D, out any) error
	// Distinct returns the distinct values of field among documents matching filter.
	Distinct(ctx context.Context, collection, field string, filter bson.D) ([]any, error)
	// Find decodes every document matching filter into out (a pointer to a slice).
	Find(ctx context.Context, collection string, filter bson.D, out any) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
