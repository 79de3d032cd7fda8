// Package thesaurus reads the controlled vocabulary collection.
package thesaurus

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/db-frog/folklore-archive/internal/domain"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
)

// DefaultCollection is the thesaurus collection name.
const DefaultCollection = "Thesaurus"

// store is the consumer interface for thesaurus reads (ISP).
type store interface {
	Find(ctx context.Context, collection string, filter bson.D, out any) error
}

// Repo implements usecase/thesaurus.Source.
type Repo struct {
	store      store
	collection string
}

// New creates a thesaurus repository over collection.
func New(s store, collection string) *Repo {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Repo{store: s, collection: collection}
}

// Entries returns every thesaurus record in collection order.
func (r *Repo) Entries(ctx context.Context) ([]domthes.Entry, error) {
	var entries []domthes.Entry
	if err := r.store.Find(ctx, r.collection, nil, &entries); err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", r.collection, domain.ErrStoreUnavailable, err)
	}
	return entries, nil
}
