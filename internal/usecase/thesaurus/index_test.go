package thesaurus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db-frog/folklore-archive/internal/domain"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
)

func TestEnsurePopulated_LoadsOnce(t *testing.T) {
	src := &mockSource{entries: sampleEntries()}
	x := newTestIndex(t, src)
	ctx := context.Background()

	require.NoError(t, x.EnsurePopulated(ctx))
	require.NoError(t, x.EnsurePopulated(ctx))

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestEnsurePopulated_ConcurrentCallersShareLoad(t *testing.T) {
	src := &mockSource{entries: sampleEntries(), block: make(chan struct{})}
	x := newTestIndex(t, src)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = x.EnsurePopulated(context.Background())
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() > 0 }, time.Second, time.Millisecond)
	close(src.block)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), src.calls.Load())
	_, err := x.Expand(domthes.Genre, "Folk Tale")
	assert.NoError(t, err)
}

func TestEnsurePopulated_FailureIsRetried(t *testing.T) {
	src := &mockSource{err: errors.New("no reachable servers")}
	x := newTestIndex(t, src)
	ctx := context.Background()

	err := x.EnsurePopulated(ctx)
	require.Error(t, err)

	src.set(sampleEntries(), nil)
	require.NoError(t, x.EnsurePopulated(ctx))
	assert.Equal(t, int32(2), src.calls.Load())

	got, err := x.Expand(domthes.Genre, "Proverb")
	require.NoError(t, err)
	assert.Equal(t, []string{"proverb", "saying", "Proverb"}, got)
}

func TestEnsurePopulated_CanceledCaller(t *testing.T) {
	src := &mockSource{entries: sampleEntries(), block: make(chan struct{})}
	x := newTestIndex(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := x.EnsurePopulated(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	close(src.block)
}

func TestExpand(t *testing.T) {
	x := newTestIndex(t, &mockSource{entries: sampleEntries()})
	require.NoError(t, x.EnsurePopulated(context.Background()))

	got, err := x.Expand(domthes.Genre, "Folk Tale")
	require.NoError(t, err)
	assert.Equal(t, []string{"folktale", "folk-tale"}, got)

	// Callers may not mutate the index through the returned slice.
	got[0] = "changed"
	again, _ := x.Expand(domthes.Genre, "Folk Tale")
	assert.Equal(t, "folktale", again[0])
}

func TestExpand_Unknown(t *testing.T) {
	x := newTestIndex(t, &mockSource{entries: sampleEntries()})
	require.NoError(t, x.EnsurePopulated(context.Background()))

	_, err := x.Expand(domthes.Genre, "Ballad")
	require.ErrorIs(t, err, domain.ErrUnknownNormalizedValue)

	var uv *domain.UnknownValueError
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, "genre", uv.Field)
	assert.Equal(t, "Ballad", uv.Value)

	// Field types are separate namespaces.
	_, err = x.Expand(domthes.LanguageOfOrigin, "Folk Tale")
	assert.ErrorIs(t, err, domain.ErrUnknownNormalizedValue)
}

func TestCollapse(t *testing.T) {
	x := newTestIndex(t, &mockSource{entries: sampleEntries()})
	require.NoError(t, x.EnsurePopulated(context.Background()))

	got, err := x.Collapse(domthes.LanguageOfOrigin, "Español")
	require.NoError(t, err)
	assert.Equal(t, "Spanish", got)

	_, err = x.Collapse(domthes.Genre, "riddle")
	assert.ErrorIs(t, err, domain.ErrUnknownNormalizedValue)
}

func TestExpandCollapse_RoundTrip(t *testing.T) {
	entries := sampleEntries()
	x := newTestIndex(t, &mockSource{entries: entries})
	require.NoError(t, x.EnsurePopulated(context.Background()))

	for _, e := range entries {
		raws, err := x.Expand(e.Type, e.Canonical)
		require.NoError(t, err)
		require.NotEmpty(t, raws)
		for _, r := range raws {
			got, err := x.Collapse(e.Type, r)
			require.NoError(t, err)
			assert.Equal(t, e.Canonical, got)
		}
	}
}

func TestLoad_SkipsInvalidAndOverlapping(t *testing.T) {
	entries := append(sampleEntries(),
		domthes.Entry{Type: "region", Canonical: "West", RawValues: []string{"west"}},
		domthes.Entry{Type: domthes.Genre, Canonical: "", RawValues: []string{"x"}},
		domthes.Entry{Type: domthes.Genre, Canonical: "Tale", RawValues: []string{"folktale", "tale"}},
	)
	x := newTestIndex(t, &mockSource{entries: entries})
	require.NoError(t, x.EnsurePopulated(context.Background()))

	got, err := x.Collapse(domthes.Genre, "folktale")
	require.NoError(t, err)
	assert.Equal(t, "Folk Tale", got, "first mapping wins")

	raws, err := x.Expand(domthes.Genre, "Tale")
	require.NoError(t, err)
	assert.Equal(t, []string{"folktale", "tale"}, raws, "overlap must not narrow the forward set")
}

func TestExpand_FullyOverlappingEntryKeepsItsRawValues(t *testing.T) {
	entries := []domthes.Entry{
		{Type: domthes.Genre, Canonical: "Folk Tale", RawValues: []string{"folktale", "folk-tale"}},
		{Type: domthes.Genre, Canonical: "Tale", RawValues: []string{"folktale"}},
	}
	x := newTestIndex(t, &mockSource{entries: entries})
	require.NoError(t, x.EnsurePopulated(context.Background()))

	raws, err := x.Expand(domthes.Genre, "Tale")
	require.NoError(t, err)
	assert.Equal(t, []string{"folktale"}, raws)

	raws, err = x.Expand(domthes.Genre, "Folk Tale")
	require.NoError(t, err)
	assert.Equal(t, []string{"folktale", "folk-tale"}, raws)
}

func TestIsNormalized(t *testing.T) {
	f, ok := IsNormalized("genre")
	assert.True(t, ok)
	assert.Equal(t, domthes.Genre, f)

	_, ok = IsNormalized("language_of_origin")
	assert.True(t, ok)

	_, ok = IsNormalized("medium")
	assert.False(t, ok)
}
