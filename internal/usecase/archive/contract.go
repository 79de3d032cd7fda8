package archive

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
	"github.com/db-frog/folklore-archive/internal/usecase/query"
)

// Repository provides archive reads.
type Repository interface {
	Documents(ctx context.Context, p mongo.Pipeline) ([]folklore.Document, error)
	Count(ctx context.Context, p mongo.Pipeline) (int, error)
	Distinct(ctx context.Context, field string) ([]string, error)
	Get(ctx context.Context, id primitive.ObjectID) (folklore.Document, error)
	Lookup(ctx context.Context, field, value string, limit int) ([]folklore.Document, error)
}

// Compiler compiles raw filter descriptions.
type Compiler interface {
	Compile(ctx context.Context, raw string) (query.Compiled, error)
}

// Thesaurus collapses raw values into canonical ones.
type Thesaurus interface {
	EnsurePopulated(ctx context.Context) error
	Collapse(field domthes.FieldType, raw string) (string, error)
}

// FolderResolver lists folder contents.
type FolderResolver interface {
	ListChildren(ctx context.Context, path domfolder.Path, includeLeaf bool) (domfolder.Listing, error)
}
