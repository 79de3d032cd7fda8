package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID signals a malformed document identifier.
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidFilterSyntax signals a malformed filter description.
	ErrInvalidFilterSyntax = errors.New("invalid filter syntax")
	// ErrMultipleSearchStages signals more than one search-type key in a filter description.
	ErrMultipleSearchStages = errors.New("multiple search stages")
	// ErrUnknownNormalizedValue signals a value missing from the thesaurus.
	ErrUnknownNormalizedValue = errors.New("unknown normalized value")
	// ErrConflictingBrowseMode signals a browse request carrying both a folder path and filters.
	ErrConflictingBrowseMode = errors.New("conflicting browse mode")
	// ErrInvalidFolderPath signals a malformed or too deep folder path.
	ErrInvalidFolderPath = errors.New("invalid folder path")

	// ErrEmbeddingFailure signals that the embedding model could not vectorize the input.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrStoreUnavailable signals a failed document store query.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrObjectStorage signals an object storage failure other than a missing object.
	ErrObjectStorage = errors.New("object storage error")

	// ErrUnauthenticated signals a missing, expired or invalid session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// UnknownValueError wraps ErrUnknownNormalizedValue with the offending field and value.
type UnknownValueError struct {
	Field string
	Value string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("%s: %q is not a known %s", ErrUnknownNormalizedValue.Error(), e.Value, e.Field)
}

func (e *UnknownValueError) Unwrap() error { return ErrUnknownNormalizedValue }

// NewUnknownValue creates an unknown normalized value error.
func NewUnknownValue(field, value string) error {
	return &UnknownValueError{Field: field, Value: value}
}
