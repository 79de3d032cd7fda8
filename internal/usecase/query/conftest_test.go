package query

import (
	"context"

	"github.com/db-frog/folklore-archive/internal/domain"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
)

// mockThesaurus implements Thesaurus over a fixed forward map.
type mockThesaurus struct {
	forward     map[domthes.FieldType]map[string][]string
	populateErr error
	populates   int
}

func (m *mockThesaurus) EnsurePopulated(_ context.Context) error {
	m.populates++
	return m.populateErr
}

func (m *mockThesaurus) Expand(field domthes.FieldType, canonical string) ([]string, error) {
	raws, ok := m.forward[field][canonical]
	if !ok {
		return nil, domain.NewUnknownValue(string(field), canonical)
	}
	return raws, nil
}

func newMockThesaurus() *mockThesaurus {
	return &mockThesaurus{forward: map[domthes.FieldType]map[string][]string{
		domthes.Genre: {
			"Folk Tale": {"folktale", "folk-tale"},
			"Tale":      {"tale", "folktale"},
			"Myth":      {"myth"},
		},
		domthes.LanguageOfOrigin: {
			"Spanish": {"spanish", "Español"},
		},
	}}
}

// mockEmbedder implements Embedder.
type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.texts = append(m.texts, text)
	return m.result, m.err
}
