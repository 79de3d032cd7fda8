package query

import (
	"context"

	"github.com/db-frog/folklore-archive/internal/domain"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
)

// Thesaurus expands canonical values into raw archive values.
type Thesaurus interface {
	EnsurePopulated(ctx context.Context) error
	Expand(field domthes.FieldType, canonical string) ([]string, error)
}

// Embedder vectorizes semantic search queries.
type Embedder = domain.Embedder
