// Package download streams the scanned original of an archive entry from object storage.
package download

import (
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/blobstore"
	"github.com/db-frog/folklore-archive/internal/domain"
	"github.com/db-frog/folklore-archive/internal/logger"
	"github.com/db-frog/folklore-archive/internal/usecase/archive"
)

// File is an open original ready to stream. The caller must close Body.
type File struct {
	*blobstore.Object
	Name string
}

// Service resolves documents to their stored originals.
type Service struct {
	docs  Documents
	blobs Blobs
}

// New creates a Service.
func New(docs Documents, blobs Blobs) *Service {
	return &Service{docs: docs, blobs: blobs}
}

// Open returns the original for the document with the given hex id.
// A missing document, a document without a filename and a missing object
// all yield domain.ErrNotFound; any other storage failure yields domain.ErrObjectStorage.
func (s *Service) Open(ctx context.Context, id string) (*File, error) {
	oid, err := archive.ParseID(id)
	if err != nil {
		return nil, err
	}
	doc, err := s.docs.Get(ctx, oid)
	if err != nil {
		return nil, err
	}
	key, ok := doc.ObjectKey()
	if !ok {
		return nil, fmt.Errorf("%w: folklore %s has no stored original", domain.ErrNotFound, id)
	}

	obj, err := s.blobs.Open(ctx, key)
	switch {
	case errors.Is(err, blobstore.ErrNotFound):
		logger.FromContext(ctx).Warn("Stored original missing",
			zap.String("id", id),
			zap.String("key", key),
		)
		return nil, fmt.Errorf("%w: original for folklore %s", domain.ErrNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("%w: open %q: %w", domain.ErrObjectStorage, key, err)
	}
	return &File{Object: obj, Name: path.Base(key)}, nil
}
