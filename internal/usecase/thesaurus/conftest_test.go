package thesaurus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
)

// mockSource implements Source for tests.
type mockSource struct {
	mu      sync.Mutex
	entries []domthes.Entry
	err     error
	calls   atomic.Int32
	block   chan struct{}
}

func (m *mockSource) Entries(_ context.Context) ([]domthes.Entry, error) {
	m.calls.Add(1)
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries, m.err
}

func (m *mockSource) set(entries []domthes.Entry, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries, m.err = entries, err
}

func sampleEntries() []domthes.Entry {
	return []domthes.Entry{
		{Type: domthes.Genre, Canonical: "Folk Tale", RawValues: []string{"folktale", "folk-tale"}},
		{Type: domthes.Genre, Canonical: "Proverb", RawValues: []string{"proverb", "saying", "Proverb"}},
		{Type: domthes.LanguageOfOrigin, Canonical: "Spanish", RawValues: []string{"spanish", "Español"}},
	}
}

func newTestIndex(t *testing.T, src *mockSource) *Index {
	t.Helper()
	return New(src, zap.NewNop())
}
