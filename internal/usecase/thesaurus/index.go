// Package thesaurus holds the process-wide Thesaurus Index: a lazily populated,
// bidirectional mapping between canonical values and raw archive values.
package thesaurus

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/db-frog/folklore-archive/internal/domain"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
	"github.com/db-frog/folklore-archive/internal/metrics"
)

// loadTimeout bounds the shared load, which outlives any single caller's context.
const loadTimeout = 30 * time.Second

// Index is populated once from its Source and never invalidated.
// A failed load is not cached: the next caller retries.
type Index struct {
	source Source
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.RWMutex
	forward map[domthes.FieldType]map[string][]string
	reverse map[domthes.FieldType]map[string]string
}

// New creates an empty Index over source.
func New(source Source, logger *zap.Logger) *Index {
	return &Index{source: source, logger: logger}
}

// EnsurePopulated loads the thesaurus unless both maps are already populated.
// Concurrent first callers share a single load.
func (x *Index) EnsurePopulated(ctx context.Context) error {
	if x.populated() {
		return nil
	}

	ch := x.group.DoChan("populate", func() (any, error) {
		if x.populated() {
			return nil, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return nil, x.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("populate thesaurus: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("populate thesaurus: %w", res.Err)
		}
		return nil
	}
}

func (x *Index) populated() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.forward) > 0 && len(x.reverse) > 0
}

func (x *Index) load(ctx context.Context) error {
	entries, err := x.source.Entries(ctx)
	if err != nil {
		metrics.ThesaurusLoadsTotal.WithLabelValues("error").Inc()
		x.logger.Error("Thesaurus load failed", zap.Error(err))
		return err
	}

	forward := make(map[domthes.FieldType]map[string][]string, len(domthes.FieldTypes))
	reverse := make(map[domthes.FieldType]map[string]string, len(domthes.FieldTypes))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			x.logger.Warn("Skipping thesaurus entry", zap.Error(err))
			continue
		}
		if forward[e.Type] == nil {
			forward[e.Type] = make(map[string][]string)
			reverse[e.Type] = make(map[string]string)
		}
		raws := forward[e.Type][e.Canonical]
		for _, raw := range e.RawValues {
			if !slices.Contains(raws, raw) {
				raws = append(raws, raw)
			}
			// Expand keeps every raw value of the entry; only Collapse has to pick one.
			prev, dup := reverse[e.Type][raw]
			if !dup {
				reverse[e.Type][raw] = e.Canonical
				continue
			}
			if prev != e.Canonical {
				x.logger.Warn("Raw thesaurus value maps to two canonical values",
					zap.String("field", string(e.Type)),
					zap.String("raw", raw),
					zap.String("collapses_to", prev),
					zap.String("also_expanded_by", e.Canonical),
				)
			}
		}
		forward[e.Type][e.Canonical] = raws
	}

	x.mu.Lock()
	x.forward = forward
	x.reverse = reverse
	x.mu.Unlock()

	metrics.ThesaurusLoadsTotal.WithLabelValues("ok").Inc()
	for _, f := range domthes.FieldTypes {
		metrics.ThesaurusEntries.WithLabelValues(string(f)).Set(float64(len(forward[f])))
	}
	x.logger.Info("Thesaurus loaded",
		zap.Int("records", len(entries)),
		zap.Int("genres", len(forward[domthes.Genre])),
		zap.Int("languages", len(forward[domthes.LanguageOfOrigin])),
	)
	return nil
}

// Expand returns every raw value the canonical value stands for, in source order.
func (x *Index) Expand(field domthes.FieldType, canonical string) ([]string, error) {
	x.mu.RLock()
	raws, ok := x.forward[field][canonical]
	x.mu.RUnlock()
	if !ok {
		return nil, domain.NewUnknownValue(string(field), canonical)
	}
	out := make([]string, len(raws))
	copy(out, raws)
	return out, nil
}

// Collapse returns the canonical value a raw value belongs to.
func (x *Index) Collapse(field domthes.FieldType, raw string) (string, error) {
	x.mu.RLock()
	canonical, ok := x.reverse[field][raw]
	x.mu.RUnlock()
	if !ok {
		return "", domain.NewUnknownValue(string(field), raw)
	}
	return canonical, nil
}

// IsNormalized reports whether field (the last segment of a dot path) is thesaurus-controlled.
func IsNormalized(field string) (domthes.FieldType, bool) {
	return domthes.ParseFieldType(field)
}
