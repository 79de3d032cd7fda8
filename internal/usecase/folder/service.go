// Package folder resolves hierarchical browse paths (geography, genre,
// sub-categories) into the next level of folders or the leaf documents.
package folder

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	"github.com/db-frog/folklore-archive/internal/domain/search/pipeline"
	"github.com/db-frog/folklore-archive/internal/metrics"
)

// Service implements the Folder Hierarchy Resolver.
type Service struct {
	repo      Repository
	levels    domfolder.Levels
	maxLeaves int
}

// New creates a resolver. maxLeaves bounds leaf listings.
func New(repo Repository, levels domfolder.Levels, maxLeaves int) *Service {
	return &Service{repo: repo, levels: levels, maxLeaves: maxLeaves}
}

// ResolvePath returns the equality predicate for path.
func (s *Service) ResolvePath(path domfolder.Path) (bson.D, error) {
	return s.levels.Resolve(path)
}

// ListChildren lists the folders one level below path, or the documents in it
// when includeLeaf is set. The root always lists geography values directly.
func (s *Service) ListChildren(ctx context.Context, path domfolder.Path, includeLeaf bool) (domfolder.Listing, error) {
	pred, err := s.levels.Resolve(path)
	if err != nil {
		return domfolder.Listing{}, err
	}

	if len(path) == 0 {
		metrics.QueriesTotal.WithLabelValues("folder_root", "none").Inc()
		values, err := s.repo.Distinct(ctx, s.levels.Field(0))
		if err != nil {
			return domfolder.Listing{}, fmt.Errorf("list root folders: %w", err)
		}
		return domfolder.Listing{Folders: values}, nil
	}

	if includeLeaf {
		metrics.QueriesTotal.WithLabelValues("folder_leaf", "none").Inc()
		docs, err := s.repo.Documents(ctx, pipeline.Build(pred, nil, pipeline.Limit(s.maxLeaves)))
		if err != nil {
			return domfolder.Listing{}, fmt.Errorf("list folder documents: %w", err)
		}
		return domfolder.Listing{Leaf: true, Documents: docs}, nil
	}

	next, ok := s.levels.NextField(path)
	if !ok {
		return domfolder.Listing{Folders: []string{}}, nil
	}
	metrics.QueriesTotal.WithLabelValues("folder_children", "none").Inc()
	values, err := s.repo.Groups(ctx, pipeline.Build(pred, nil, pipeline.GroupDistinct(next)...))
	if err != nil {
		return domfolder.Listing{}, fmt.Errorf("list %s folders: %w", next, err)
	}
	return domfolder.Listing{Folders: values}, nil
}
