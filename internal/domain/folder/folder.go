// Package folder maps hierarchical browse paths onto archive fields.
package folder

import (
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/db-frog/folklore-archive/internal/domain"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
)

// Default hierarchy fields.
const (
	DefaultGeographyField   = "geography"
	DefaultGenreField       = "genre"
	DefaultSubCategoryField = "sub_category_"
	DefaultMaxDepth         = 6
)

// Path is an ordered sequence of category selections, root first.
type Path []string

// Levels names the field bound at each depth of the hierarchy:
// 0 geography, 1 genre, i >= 2 SubCategoryPrefix + (i-1).
type Levels struct {
	Geography         string
	Genre             string
	SubCategoryPrefix string
	MaxDepth          int
}

// DefaultLevels returns the archive's standard hierarchy.
func DefaultLevels() Levels {
	return Levels{
		Geography:         DefaultGeographyField,
		Genre:             DefaultGenreField,
		SubCategoryPrefix: DefaultSubCategoryField,
		MaxDepth:          DefaultMaxDepth,
	}
}

// Field returns the field bound at position i.
func (l Levels) Field(i int) string {
	switch i {
	case 0:
		return l.Geography
	case 1:
		return l.Genre
	}
	return l.SubCategoryPrefix + strconv.Itoa(i-1)
}

// Validate checks that p is a usable path: no empty segments, not deeper than MaxDepth.
func (l Levels) Validate(p Path) error {
	if len(p) > l.MaxDepth {
		return fmt.Errorf("%w: depth %d exceeds %d", domain.ErrInvalidFolderPath, len(p), l.MaxDepth)
	}
	for i, seg := range p {
		if seg == "" {
			return fmt.Errorf("%w: segment %d is empty", domain.ErrInvalidFolderPath, i)
		}
	}
	return nil
}

// Resolve returns the equality predicate binding exactly len(p) fields.
// The root path resolves to an empty predicate.
func (l Levels) Resolve(p Path) (bson.D, error) {
	if err := l.Validate(p); err != nil {
		return nil, err
	}
	pred := make(bson.D, 0, len(p))
	for i, seg := range p {
		pred = append(pred, bson.E{Key: l.Field(i), Value: seg})
	}
	return pred, nil
}

// NextField returns the field one level below p, or false at the bottom of the hierarchy.
func (l Levels) NextField(p Path) (string, bool) {
	if len(p) >= l.MaxDepth {
		return "", false
	}
	return l.Field(len(p)), true
}

// Listing is the content of a folder: child folder names, or the leaf documents
// when Leaf is set.
type Listing struct {
	Leaf      bool
	Folders   []string
	Documents []folklore.Document
}
