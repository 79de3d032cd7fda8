// Package query compiles client filter descriptions into an archive predicate
// and at most one search stage.
package query

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/domain"
	"github.com/db-frog/folklore-archive/internal/domain/search/filter"
	"github.com/db-frog/folklore-archive/internal/domain/search/stage"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
	"github.com/db-frog/folklore-archive/internal/logger"
)

// Default search index names.
const (
	DefaultTextIndex   = "search"
	DefaultVectorIndex = "vector_index"
)

// Config names the search indexes and document paths used by search stages.
type Config struct {
	TextIndex     string
	VectorIndex   string
	FullTextPath  string
	EmbeddingPath string
	// Dimensions is the vector index dimensionality; 0 disables the check.
	Dimensions int
}

func (c *Config) applyDefaults() {
	if c.TextIndex == "" {
		c.TextIndex = DefaultTextIndex
	}
	if c.VectorIndex == "" {
		c.VectorIndex = DefaultVectorIndex
	}
	if c.FullTextPath == "" {
		c.FullTextPath = filter.FullTextKey
	}
	if c.EmbeddingPath == "" {
		c.EmbeddingPath = filter.EmbeddingKey
	}
}

// Compiled is the output of Compile. Search is nil when the filter has no search key.
type Compiled struct {
	Predicate bson.D
	Search    stage.Search
}

// IsEmpty reports whether the compiled filter constrains nothing.
func (c Compiled) IsEmpty() bool {
	return len(c.Predicate) == 0 && c.Search == nil
}

// Compiler turns raw filter descriptions into Compiled filters.
type Compiler struct {
	thesaurus Thesaurus
	embedder  Embedder
	cfg       Config
}

// NewCompiler creates a Compiler. embedder may be nil, in which case
// semantic search requests fail with domain.ErrEmbeddingFailure.
func NewCompiler(thesaurus Thesaurus, embedder Embedder, cfg Config) *Compiler {
	cfg.applyDefaults()
	return &Compiler{thesaurus: thesaurus, embedder: embedder, cfg: cfg}
}

// Compile parses raw and compiles it. A blank or all-empty filter compiles to an
// empty result without touching the thesaurus.
//
// Validation completes before any I/O: a malformed filter or a second search
// key fails without a thesaurus load or an embedding call.
func (c *Compiler) Compile(ctx context.Context, raw string) (Compiled, error) {
	desc, err := filter.Parse(raw)
	if err != nil {
		return Compiled{}, err
	}
	if desc.IsEmpty() {
		return Compiled{}, nil
	}

	var search *filter.Clause
	var inclusions []filter.Clause
	for _, cl := range desc.Clauses() {
		if !cl.IsSearch() {
			inclusions = append(inclusions, cl)
			continue
		}
		if search != nil {
			return Compiled{}, fmt.Errorf("%w: %q and %q", domain.ErrMultipleSearchStages, search.Key, cl.Key)
		}
		search = &cl
	}

	predicate, err := c.predicate(ctx, inclusions)
	if err != nil {
		return Compiled{}, err
	}

	out := Compiled{Predicate: predicate}
	if search != nil {
		out.Search, err = c.searchStage(ctx, *search)
		if err != nil {
			return Compiled{}, err
		}
	}
	return out, nil
}

func (c *Compiler) predicate(ctx context.Context, clauses []filter.Clause) (bson.D, error) {
	if len(clauses) == 0 {
		return nil, nil
	}

	needsThesaurus := false
	for _, cl := range clauses {
		if _, ok := domthes.ParseFieldType(cl.Field()); ok {
			needsThesaurus = true
			break
		}
	}
	if needsThesaurus {
		if err := c.thesaurus.EnsurePopulated(ctx); err != nil {
			return nil, err
		}
	}

	pred := make(bson.D, 0, len(clauses))
	for _, cl := range clauses {
		values := []string(cl.Value.(filter.Inclusion))
		if field, ok := domthes.ParseFieldType(cl.Field()); ok {
			expanded, err := c.expand(field, values)
			if err != nil {
				return nil, err
			}
			values = expanded
		}
		pred = append(pred, bson.E{Key: cl.Key, Value: bson.D{{Key: "$in", Value: values}}})
	}
	return pred, nil
}

// expand unions the raw values of every canonical value, deduplicated, in first-seen order.
func (c *Compiler) expand(field domthes.FieldType, canonicals []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range canonicals {
		raws, err := c.thesaurus.Expand(field, v)
		if err != nil {
			return nil, err
		}
		for _, r := range raws {
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *Compiler) searchStage(ctx context.Context, cl filter.Clause) (stage.Search, error) {
	switch v := cl.Value.(type) {
	case filter.TextQuery:
		return stage.Lexical{Index: c.cfg.TextIndex, Query: string(v), Path: c.cfg.FullTextPath}, nil
	case filter.EmbeddingQuery:
		vec, err := c.embed(ctx, string(v))
		if err != nil {
			return nil, err
		}
		return stage.NewVector(c.cfg.VectorIndex, c.cfg.EmbeddingPath, vec), nil
	}
	return nil, fmt.Errorf("%w: %q is not a search key", domain.ErrInvalidFilterSyntax, cl.Key)
}

func (c *Compiler) embed(ctx context.Context, text string) ([]float32, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("%w: semantic search is not configured", domain.ErrEmbeddingFailure)
	}
	res, err := c.embedder.Embed(ctx, text)
	if err != nil {
		logger.FromContext(ctx).Warn("Query embedding failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
	}
	if c.cfg.Dimensions > 0 && len(res.Embedding) != c.cfg.Dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, index expects %d",
			domain.ErrEmbeddingFailure, len(res.Embedding), c.cfg.Dimensions)
	}
	if u := domain.UsageFromContext(ctx); u != nil {
		u.AddTokens(res.TotalTokens)
	}
	return res.Embedding, nil
}
