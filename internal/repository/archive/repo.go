// Package archive reads archive records from the document store.
package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/db-frog/folklore-archive/internal/db"
	"github.com/db-frog/folklore-archive/internal/domain"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
	"github.com/db-frog/folklore-archive/internal/domain/search/pipeline"
)

// DefaultCollection is the archive collection name.
const DefaultCollection = "Archive"

// store is the consumer interface for archive reads (ISP).
type store interface {
	Aggregate(ctx context.Context, collection string, p mongo.Pipeline, out any) error
	FindOne(ctx context.Context, collection string, filter bson.D, out any) error
	Distinct(ctx context.Context, collection, field string, filter bson.D) ([]any, error)
}

// Repo implements usecase/archive.Repository and usecase/folder.Repository.
type Repo struct {
	store      store
	collection string
}

// New creates an archive repository over collection.
func New(s store, collection string) *Repo {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Repo{store: s, collection: collection}
}

// Documents runs p and returns the resulting records.
func (r *Repo) Documents(ctx context.Context, p mongo.Pipeline) ([]folklore.Document, error) {
	docs := []folklore.Document{}
	if err := r.store.Aggregate(ctx, r.collection, p, &docs); err != nil {
		return nil, unavailable("aggregate", err)
	}
	return docs, nil
}

// Count runs p, which must end in a $count stage. An empty result counts as 0.
func (r *Repo) Count(ctx context.Context, p mongo.Pipeline) (int, error) {
	var rows []struct {
		Total int `bson:"total"`
	}
	if err := r.store.Aggregate(ctx, r.collection, p, &rows); err != nil {
		return 0, unavailable("count", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// Groups runs p, which must end in pipeline.GroupDistinct, and returns the group keys in order.
func (r *Repo) Groups(ctx context.Context, p mongo.Pipeline) ([]string, error) {
	var rows []struct {
		ID any `bson:"_id"`
	}
	if err := r.store.Aggregate(ctx, r.collection, p, &rows); err != nil {
		return nil, unavailable("group", err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if s, ok := row.ID.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Distinct returns the sorted non-empty string values of field across the collection.
// Null, empty and non-string values are dropped.
func (r *Repo) Distinct(ctx context.Context, field string) ([]string, error) {
	values, err := r.store.Distinct(ctx, r.collection, field, nil)
	if err != nil {
		return nil, unavailable("distinct "+field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Get returns the record with the given id.
func (r *Repo) Get(ctx context.Context, id primitive.ObjectID) (folklore.Document, error) {
	var doc folklore.Document
	err := r.store.FindOne(ctx, r.collection, bson.D{{Key: "_id", Value: id}}, &doc)
	if errors.Is(err, db.ErrNoDocument) {
		return folklore.Document{}, fmt.Errorf("folklore %s: %w", id.Hex(), domain.ErrNotFound)
	}
	if err != nil {
		return folklore.Document{}, unavailable("find "+id.Hex(), err)
	}
	return doc, nil
}

// Lookup returns every record whose field equals value exactly.
func (r *Repo) Lookup(ctx context.Context, field, value string, limit int) ([]folklore.Document, error) {
	p := pipeline.Build(bson.D{{Key: field, Value: value}}, nil, pipeline.Limit(limit))
	return r.Documents(ctx, p)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
