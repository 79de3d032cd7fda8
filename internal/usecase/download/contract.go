package download

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/db-frog/folklore-archive/internal/blobstore"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
)

// Documents resolves archive entries by id.
type Documents interface {
	Get(ctx context.Context, id primitive.ObjectID) (folklore.Document, error)
}

// Blobs opens scanned originals by object key.
type Blobs = blobstore.Store
