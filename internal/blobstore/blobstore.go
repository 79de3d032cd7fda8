// Package blobstore defines read access to the archive's scanned originals.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("blobstore: object not found")

// Object is an open object stream. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Store opens objects by key.
type Store interface {
	Open(ctx context.Context, key string) (*Object, error)
}
