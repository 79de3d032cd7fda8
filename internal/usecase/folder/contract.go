package folder

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/db-frog/folklore-archive/internal/domain/folklore"
)

// Repository provides the archive reads the resolver needs.
type Repository interface {
	Distinct(ctx context.Context, field string) ([]string, error)
	Groups(ctx context.Context, p mongo.Pipeline) ([]string, error)
	Documents(ctx context.Context, p mongo.Pipeline) ([]folklore.Document, error)
}
