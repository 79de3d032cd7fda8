// Package archive implements the archive read operations: filtered listing,
// pagination, random sampling, counting, filter options, lookups and browsing.
package archive

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/db-frog/folklore-archive/internal/domain"
	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
	"github.com/db-frog/folklore-archive/internal/domain/search/filter"
	"github.com/db-frog/folklore-archive/internal/domain/search/page"
	"github.com/db-frog/folklore-archive/internal/domain/search/pipeline"
	"github.com/db-frog/folklore-archive/internal/domain/search/stage"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
	"github.com/db-frog/folklore-archive/internal/logger"
	"github.com/db-frog/folklore-archive/internal/metrics"
	"github.com/db-frog/folklore-archive/internal/usecase/query"
)

// Defaults.
const (
	DefaultMaxListResults = 500
	DefaultGenrePath      = "folklore.genre"
	DefaultLanguagePath   = "folklore.language_of_origin"

	// maxOptionFields bounds a single filter options request.
	maxOptionFields = 16
	// optionConcurrency bounds concurrent distinct queries per request.
	optionConcurrency = 4
)

// Config tunes listing bounds and document paths.
type Config struct {
	MaxListResults int
	GenrePath      string
	LanguagePath   string
}

func (c *Config) applyDefaults() {
	if c.MaxListResults <= 0 {
		c.MaxListResults = DefaultMaxListResults
	}
	if c.GenrePath == "" {
		c.GenrePath = DefaultGenrePath
	}
	if c.LanguagePath == "" {
		c.LanguagePath = DefaultLanguagePath
	}
}

// Service implements archive read operations.
type Service struct {
	repo      Repository
	compiler  Compiler
	thesaurus Thesaurus
	folders   FolderResolver
	cfg       Config
}

// New creates a Service.
func New(repo Repository, compiler Compiler, thesaurus Thesaurus, folders FolderResolver, cfg Config) *Service {
	cfg.applyDefaults()
	return &Service{repo: repo, compiler: compiler, thesaurus: thesaurus, folders: folders, cfg: cfg}
}

// List returns documents matching filters, bounded by MaxListResults.
func (s *Service) List(ctx context.Context, filters string) ([]folklore.Document, error) {
	c, err := s.compile(ctx, "list", filters)
	if err != nil {
		return nil, err
	}
	return s.repo.Documents(ctx, pipeline.Build(c.Predicate, c.Search, pipeline.Limit(s.cfg.MaxListResults)))
}

// Paginated returns one clamped page of documents matching filters.
func (s *Service) Paginated(ctx context.Context, filters string, p page.Page) ([]folklore.Document, error) {
	c, err := s.compile(ctx, "paginated", filters)
	if err != nil {
		return nil, err
	}
	return s.repo.Documents(ctx, pipeline.Build(c.Predicate, c.Search, pipeline.Paginate(p)...))
}

// Random returns at most one randomly sampled document matching filters.
func (s *Service) Random(ctx context.Context, filters string) ([]folklore.Document, error) {
	c, err := s.compile(ctx, "random", filters)
	if err != nil {
		return nil, err
	}
	return s.repo.Documents(ctx, pipeline.Build(c.Predicate, c.Search, pipeline.Sample()))
}

// Count returns the number of documents matching filters; 0 when none match.
func (s *Service) Count(ctx context.Context, filters string) (int, error) {
	c, err := s.compile(ctx, "count", filters)
	if err != nil {
		return 0, err
	}
	return s.repo.Count(ctx, pipeline.Build(c.Predicate, c.Search, pipeline.Count()))
}

func (s *Service) compile(ctx context.Context, op, filters string) (query.Compiled, error) {
	c, err := s.compiler.Compile(ctx, filters)
	if err != nil {
		return query.Compiled{}, err
	}
	metrics.QueriesTotal.WithLabelValues(op, stage.KindOf(c.Search)).Inc()
	return c, nil
}

// FilterOptions returns, for each requested field, the distinct values at its path.
// Null and empty values are dropped. Thesaurus-controlled fields are collapsed to
// their canonical values; raw values missing from the thesaurus are dropped.
func (s *Service) FilterOptions(ctx context.Context, fieldToPath map[string]string) (map[string][]string, error) {
	if len(fieldToPath) > maxOptionFields {
		return nil, fmt.Errorf("%w: too many fields (max %d)", domain.ErrInvalidFilterSyntax, maxOptionFields)
	}
	needsThesaurus := false
	for field, path := range fieldToPath {
		if err := filter.ValidateKey(path); err != nil {
			return nil, fmt.Errorf("path for %q: %w", field, err)
		}
		if _, ok := normalizedField(field, path); ok {
			needsThesaurus = true
		}
	}
	if needsThesaurus {
		if err := s.thesaurus.EnsurePopulated(ctx); err != nil {
			return nil, err
		}
	}
	metrics.QueriesTotal.WithLabelValues("filter_options", "none").Inc()

	type result struct {
		field  string
		values []string
	}
	results := make(chan result, len(fieldToPath))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(optionConcurrency)
	for field, path := range fieldToPath {
		g.Go(func() error {
			values, err := s.repo.Distinct(gctx, path)
			if err != nil {
				return fmt.Errorf("options for %q: %w", field, err)
			}
			if ft, ok := normalizedField(field, path); ok {
				values = s.collapse(ctx, ft, values)
			}
			results <- result{field: field, values: values}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	out := make(map[string][]string, len(fieldToPath))
	for r := range results {
		out[r.field] = r.values
	}
	return out, nil
}

func (s *Service) collapse(ctx context.Context, field domthes.FieldType, raws []string) []string {
	seen := make(map[string]struct{}, len(raws))
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		canonical, err := s.thesaurus.Collapse(field, raw)
		if err != nil {
			logger.FromContext(ctx).Warn("Archive value missing from thesaurus",
				zap.String("field", string(field)),
				zap.String("value", raw),
			)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	sort.Strings(out)
	return out
}

// normalizedField reports whether the options field is thesaurus-controlled,
// judged by its name or, failing that, the last segment of its path.
func normalizedField(field, path string) (domthes.FieldType, bool) {
	if ft, ok := domthes.ParseFieldType(field); ok {
		return ft, true
	}
	return domthes.ParseFieldType(filter.Clause{Key: path}.Field())
}

// Genres returns the raw distinct genre values.
func (s *Service) Genres(ctx context.Context) ([]string, error) {
	metrics.QueriesTotal.WithLabelValues("genres", "none").Inc()
	return s.repo.Distinct(ctx, s.cfg.GenrePath)
}

// Languages returns the raw distinct language of origin values.
func (s *Service) Languages(ctx context.Context) ([]string, error) {
	metrics.QueriesTotal.WithLabelValues("languages", "none").Inc()
	return s.repo.Distinct(ctx, s.cfg.LanguagePath)
}

// ByGenre returns documents whose raw genre equals genre.
func (s *Service) ByGenre(ctx context.Context, genre string) ([]folklore.Document, error) {
	metrics.QueriesTotal.WithLabelValues("by_genre", "none").Inc()
	return s.repo.Lookup(ctx, s.cfg.GenrePath, genre, s.cfg.MaxListResults)
}

// ByLanguage returns documents whose raw language of origin equals language.
func (s *Service) ByLanguage(ctx context.Context, language string) ([]folklore.Document, error) {
	metrics.QueriesTotal.WithLabelValues("by_language", "none").Inc()
	return s.repo.Lookup(ctx, s.cfg.LanguagePath, language, s.cfg.MaxListResults)
}

// Get returns the document with the given hex ObjectID.
func (s *Service) Get(ctx context.Context, id string) (folklore.Document, error) {
	oid, err := ParseID(id)
	if err != nil {
		return folklore.Document{}, err
	}
	return s.repo.Get(ctx, oid)
}

// ParseID parses a hex ObjectID.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return oid, nil
}

// BrowseRequest selects folder browsing (Path) or filtered browsing (Filters), never both.
type BrowseRequest struct {
	Path    domfolder.Path
	Filters string
	Leaf    bool
}

// Browse lists a folder, or the documents matching a filter description.
func (s *Service) Browse(ctx context.Context, req BrowseRequest) (domfolder.Listing, error) {
	hasFilters, err := nonEmptyFilters(req.Filters)
	if err != nil {
		return domfolder.Listing{}, err
	}
	if len(req.Path) > 0 && hasFilters {
		return domfolder.Listing{}, domain.ErrConflictingBrowseMode
	}
	if !hasFilters {
		return s.folders.ListChildren(ctx, req.Path, req.Leaf)
	}

	docs, err := s.List(ctx, req.Filters)
	if err != nil {
		return domfolder.Listing{}, err
	}
	return domfolder.Listing{Leaf: true, Documents: docs}, nil
}

func nonEmptyFilters(raw string) (bool, error) {
	desc, err := filter.Parse(raw)
	if err != nil {
		return false, err
	}
	return !desc.IsEmpty(), nil
}
