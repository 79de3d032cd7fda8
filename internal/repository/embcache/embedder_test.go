package embcache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/db"
	"github.com/db-frog/folklore-archive/internal/domain"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ctx := context.Background()

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(ctx, "trickster spider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", result.Embedding)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, "archive:emb_cache:") {
		t.Fatalf("expected cache put under archive:emb_cache:, got %q", setKey)
	}
	if setTTL != 24*time.Hour {
		t.Errorf("ttl = %v", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached := vectorToCacheBytes([]float32{0.4, 0.5, 0.6})
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return cached, nil
	}

	result, err := ce.Embed(context.Background(), "trickster spider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.Embedding[0] != 0.4 {
		t.Fatalf("expected cached vector, got: %v", result.Embedding)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("expected no provider call on hit, got %d", inner.calls)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingFailure}
	ce, _ := newTestCachedEmbedder(t, inner)

	_, err := ce.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrEmbeddingFailure) {
		t.Fatalf("expected ErrEmbeddingFailure, got %v", err)
	}
}

func TestEmbed_CacheErrorsDegradeToMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("conn refused")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("conn refused")}
	}

	result, err := ce.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Embedding[0] != 1 || inner.calls != 1 {
		t.Errorf("expected provider result, got %v (calls=%d)", result.Embedding, inner.calls)
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte{1, 2, 3}, nil
	}

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected provider call, got %d", inner.calls)
	}
}

func TestCacheKey_NamespacedByModel(t *testing.T) {
	a := New(&mockEmbedder{}, &mockKVStore{}, "model-a", time.Hour, nil, zap.NewNop())
	b := New(&mockEmbedder{}, &mockKVStore{}, "model-b", time.Hour, nil, zap.NewNop())

	if a.cacheKey("same text") == b.cacheKey("same text") {
		t.Error("expected different keys for different models")
	}
	if a.cacheKey("one") == a.cacheKey("two") {
		t.Error("expected different keys for different texts")
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	stored := map[string][]byte{}
	ms := &mockKVStore{
		getFn: func(_ context.Context, key string) ([]byte, error) {
			if v, ok := stored[key]; ok {
				return v, nil
			}
			return nil, db.ErrKeyNotFound
		},
		setFn: func(_ context.Context, key string, value []byte, _ time.Duration) error {
			stored[key] = value
			return nil
		},
	}
	ce := New(inner, ms, "m", time.Hour, counter, zap.NewNop())

	for range 3 {
		if _, err := ce.Embed(context.Background(), "same"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v", got)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0, -1.5, 3.25}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("got %v, want %v", out, in)
		}
	}
}

func TestEmbed_CollapsesWhitespace(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var keys []string
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		keys = append(keys, key)
		return nil, db.ErrKeyNotFound
	}

	for _, q := range []string{"brer rabbit", "  brer\t rabbit \n"} {
		if _, err := ce.Embed(context.Background(), q); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(keys) != 2 || keys[0] != keys[1] {
		t.Errorf("expected the same key for both queries, got %v", keys)
	}
}

// gatedEmbedder blocks every call until release is closed.
type gatedEmbedder struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	<-g.release
	return domain.EmbeddingResult{Embedding: []float32{0.5}, TotalTokens: 4}, nil
}

func TestEmbed_CoalescesConcurrentMisses(t *testing.T) {
	inner := &gatedEmbedder{started: make(chan struct{}), release: make(chan struct{})}
	ce := New(inner, &mockKVStore{}, "m", time.Hour, nil, zap.NewNop())

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := ce.Embed(context.Background(), "anansi")
		errs <- err
	}()
	<-inner.started

	for range callers - 1 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ce.Embed(context.Background(), "anansi")
			errs <- err
		}()
	}
	// Give the followers time to join the in-flight call before it completes.
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := inner.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestEmbed_CanceledCallerDoesNotCancelProvider(t *testing.T) {
	var sawErr error
	inner := embedFunc(func(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
		sawErr = ctx.Err()
		return domain.EmbeddingResult{Embedding: []float32{1}}, nil
	})
	ce := New(inner, &mockKVStore{}, "m", time.Hour, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ce.Embed(ctx, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawErr != nil {
		t.Errorf("provider saw a canceled context: %v", sawErr)
	}
}

type embedFunc func(ctx context.Context, text string) (domain.EmbeddingResult, error)

func (f embedFunc) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return f(ctx, text)
}
