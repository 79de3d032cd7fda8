// Package filter decodes the filter description wire format into typed clauses.
//
// The wire format is a JSON object whose keys are dot paths into the archive
// document (or one of the two reserved search keys) and whose values are
// either a list of strings (inclusion) or a single string (search query).
package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/db-frog/folklore-archive/internal/domain"
)

// Reserved search keys.
const (
	FullTextKey  = "cleaned_full_text"
	EmbeddingKey = "cleaned_full_text_embedding"
)

// Filter description limits.
const (
	MaxClauses         = 32
	MaxValuesPerClause = 256
	MaxQueryLength     = 4096
)

// Value is the decoded right-hand side of a clause: Inclusion, TextQuery or EmbeddingQuery.
type Value interface {
	isValue()
}

// Inclusion matches documents whose field equals any of the listed values.
type Inclusion []string

// TextQuery is a lexical full-text query.
type TextQuery string

// EmbeddingQuery is free text to be vectorized for semantic search.
type EmbeddingQuery string

func (Inclusion) isValue()      {}
func (TextQuery) isValue()      {}
func (EmbeddingQuery) isValue() {}

// Clause is a single key/value pair of a filter description.
type Clause struct {
	Key   string
	Value Value
}

// IsSearch reports whether the clause produces a search stage rather than a predicate.
func (c Clause) IsSearch() bool {
	switch c.Value.(type) {
	case TextQuery, EmbeddingQuery:
		return true
	}
	return false
}

// Field returns the last dot-path segment of the key (folklore.genre -> genre).
func (c Clause) Field() string {
	if i := strings.LastIndexByte(c.Key, '.'); i >= 0 {
		return c.Key[i+1:]
	}
	return c.Key
}

// Description is an ordered, validated filter description. Empty values are dropped.
type Description struct {
	clauses []Clause
}

// Clauses returns the clauses in wire order.
func (d Description) Clauses() []Clause { return d.clauses }

// IsEmpty reports whether no clause survived parsing.
func (d Description) IsEmpty() bool { return len(d.clauses) == 0 }

// Parse decodes a raw filter description. A blank input yields an empty description.
// Every failure wraps domain.ErrInvalidFilterSyntax.
func Parse(raw string) (Description, error) {
	if strings.TrimSpace(raw) == "" {
		return Description{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return Description{}, syntaxErr("%v", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Description{}, syntaxErr("filters must be a JSON object")
	}

	var clauses []Clause
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return Description{}, syntaxErr("%v", err)
		}
		key, _ := tok.(string)
		if err := ValidateKey(key); err != nil {
			return Description{}, err
		}
		if _, dup := seen[key]; dup {
			return Description{}, syntaxErr("duplicate key %q", key)
		}
		seen[key] = struct{}{}
		if len(seen) > MaxClauses {
			return Description{}, syntaxErr("too many filters (max %d)", MaxClauses)
		}

		var rawValue json.RawMessage
		if err := dec.Decode(&rawValue); err != nil {
			return Description{}, syntaxErr("value of %q: %v", key, err)
		}
		value, err := decodeValue(key, rawValue)
		if err != nil {
			return Description{}, err
		}
		if value == nil {
			continue
		}
		clauses = append(clauses, Clause{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return Description{}, syntaxErr("%v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Description{}, syntaxErr("trailing data after filters object")
	}

	return Description{clauses: clauses}, nil
}

// decodeValue returns nil for empty values (null, "", []).
func decodeValue(key string, raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, syntaxErr("value of %q: %v", key, err)
		}
		if s == "" {
			return nil, nil
		}
		if len(s) > MaxQueryLength {
			return nil, syntaxErr("query for %q too long (max %d chars)", key, MaxQueryLength)
		}
		switch key {
		case FullTextKey:
			return TextQuery(s), nil
		case EmbeddingKey:
			return EmbeddingQuery(s), nil
		}
		return nil, syntaxErr("filter %q expects a list of strings", key)

	case '[':
		var items []any
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, syntaxErr("value of %q: %v", key, err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		if key == FullTextKey || key == EmbeddingKey {
			return nil, syntaxErr("search key %q expects a string", key)
		}
		if len(items) > MaxValuesPerClause {
			return nil, syntaxErr("too many values for %q (max %d)", key, MaxValuesPerClause)
		}
		values := make(Inclusion, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, syntaxErr("value %d of %q is not a string", i, key)
			}
			values[i] = s
		}
		return values, nil
	}

	return nil, syntaxErr("value of %q must be a string or a list of strings", key)
}

// ValidateKey rejects dot paths that are empty or could smuggle query operators.
func ValidateKey(key string) error {
	if key == "" {
		return syntaxErr("filter key is required")
	}
	for _, seg := range strings.Split(key, ".") {
		if seg == "" {
			return syntaxErr("filter key %q has an empty path segment", key)
		}
		if strings.HasPrefix(seg, "$") {
			return syntaxErr("filter key %q must not reference an operator", key)
		}
	}
	return nil
}

func syntaxErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidFilterSyntax, fmt.Sprintf(format, args...))
}
