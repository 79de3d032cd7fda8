// Package mongo implements db.DocumentStore over the MongoDB Go driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/db-frog/folklore-archive/internal/db"
	"github.com/db-frog/folklore-archive/internal/tracer"
)

const tracerName = "github.com/db-frog/folklore-archive/internal/db/mongo"

// Compile-time check: Store implements db.DocumentStore.
var _ db.DocumentStore = (*Store)(nil)

// Config holds connection parameters for a MongoDB store.
type Config struct {
	URI      string
	Database string
	AppName  string
}

// Store implements db.DocumentStore over one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	tracer trace.Tracer
}

// Connect creates a client for cfg. The driver connects lazily; use WaitForReady to block.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return New(client, cfg.Database), nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
		tracer: otel.Tracer(tracerName),
	}
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Aggregate runs pipeline against collection and decodes all results into out.
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, out any) (err error) {
	ctx, span := s.start(ctx, db.OpAggregate, collection, attribute.Int("db.mongodb.pipeline_stages", len(pipeline)))
	defer func() { s.end(span, err) }()

	cur, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return &db.Error{Op: db.OpAggregate, Err: err}
	}
	if err := cur.All(ctx, out); err != nil {
		return &db.Error{Op: db.OpDecode, Err: err}
	}
	return nil
}

// Find decodes every document matching filter into out.
func (s *Store) Find(ctx context.Context, collection string, filter bson.D, out any) (err error) {
	ctx, span := s.start(ctx, db.OpFind, collection)
	defer func() { s.end(span, err) }()

	cur, err := s.db.Collection(collection).Find(ctx, nonNil(filter))
	if err != nil {
		return &db.Error{Op: db.OpFind, Err: err}
	}
	if err := cur.All(ctx, out); err != nil {
		return &db.Error{Op: db.OpDecode, Err: err}
	}
	return nil
}

// FindOne decodes the first match into out, or returns db.ErrNoDocument.
func (s *Store) FindOne(ctx context.Context, collection string, filter bson.D, out any) (err error) {
	ctx, span := s.start(ctx, db.OpFindOne, collection)
	defer func() {
		if errors.Is(err, db.ErrNoDocument) {
			s.end(span, nil)
			return
		}
		s.end(span, err)
	}()

	err = s.db.Collection(collection).FindOne(ctx, nonNil(filter)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return db.ErrNoDocument
	}
	if err != nil {
		return &db.Error{Op: db.OpFindOne, Err: err}
	}
	return nil
}

// Distinct returns the distinct values of field.
func (s *Store) Distinct(ctx context.Context, collection, field string, filter bson.D) (_ []any, err error) {
	ctx, span := s.start(ctx, db.OpDistinct, collection, attribute.String("db.mongodb.field", field))
	defer func() { s.end(span, err) }()

	values, err := s.db.Collection(collection).Distinct(ctx, field, nonNil(filter))
	if err != nil {
		return nil, &db.Error{Op: db.OpDistinct, Err: err}
	}
	return values, nil
}

func (s *Store) start(ctx context.Context, op, collection string, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{
		semconv.DBSystemMongoDB,
		semconv.DBNameKey.String(s.db.Name()),
		semconv.DBOperationKey.String(op),
		semconv.DBMongoDBCollectionKey.String(collection),
	}, extra...)
	return s.tracer.Start(ctx, "mongo."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func (s *Store) end(span trace.Span, err error) {
	if err != nil {
		tracer.RecordError(span, err)
	}
	span.End()
}

// nonNil returns an empty document for a nil filter; the driver rejects nil.
func nonNil(filter bson.D) bson.D {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
