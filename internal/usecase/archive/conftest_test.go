package archive

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/db-frog/folklore-archive/internal/domain"
	domfolder "github.com/db-frog/folklore-archive/internal/domain/folder"
	"github.com/db-frog/folklore-archive/internal/domain/folklore"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
	"github.com/db-frog/folklore-archive/internal/usecase/query"
)

// mockRepo implements Repository and records pipelines.
type mockRepo struct {
	mu sync.Mutex

	docs     []folklore.Document
	count    int
	distinct map[string][]string
	err      error

	pipelines []mongo.Pipeline
	lookups   []string
	gets      []primitive.ObjectID
}

func (m *mockRepo) Documents(_ context.Context, p mongo.Pipeline) ([]folklore.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pipelines = append(m.pipelines, p)
	return m.docs, m.err
}

func (m *mockRepo) Count(_ context.Context, p mongo.Pipeline) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pipelines = append(m.pipelines, p)
	return m.count, m.err
}

func (m *mockRepo) Distinct(_ context.Context, field string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.distinct[field], nil
}

func (m *mockRepo) Get(_ context.Context, id primitive.ObjectID) (folklore.Document, error) {
	m.gets = append(m.gets, id)
	if m.err != nil {
		return folklore.Document{}, m.err
	}
	return folklore.Document{ID: id}, nil
}

func (m *mockRepo) Lookup(_ context.Context, field, value string, _ int) ([]folklore.Document, error) {
	m.lookups = append(m.lookups, field+"="+value)
	return m.docs, m.err
}

// mockCompiler returns a fixed compiled filter.
type mockCompiler struct {
	out   query.Compiled
	err   error
	calls int
}

func (m *mockCompiler) Compile(_ context.Context, _ string) (query.Compiled, error) {
	m.calls++
	return m.out, m.err
}

// mockThesaurus implements Thesaurus over a fixed reverse map.
type mockThesaurus struct {
	reverse     map[domthes.FieldType]map[string]string
	populateErr error
	populates   int
}

func (m *mockThesaurus) EnsurePopulated(_ context.Context) error {
	m.populates++
	return m.populateErr
}

func (m *mockThesaurus) Collapse(field domthes.FieldType, raw string) (string, error) {
	c, ok := m.reverse[field][raw]
	if !ok {
		return "", domain.NewUnknownValue(string(field), raw)
	}
	return c, nil
}

// mockFolders implements FolderResolver.
type mockFolders struct {
	listing domfolder.Listing
	err     error
	paths   []domfolder.Path
}

func (m *mockFolders) ListChildren(_ context.Context, path domfolder.Path, _ bool) (domfolder.Listing, error) {
	m.paths = append(m.paths, path)
	return m.listing, m.err
}

type fixture struct {
	repo      *mockRepo
	compiler  *mockCompiler
	thesaurus *mockThesaurus
	folders   *mockFolders
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     &mockRepo{distinct: map[string][]string{}},
		compiler: &mockCompiler{},
		thesaurus: &mockThesaurus{reverse: map[domthes.FieldType]map[string]string{
			domthes.Genre: {"folktale": "Folk Tale", "folk-tale": "Folk Tale", "myth": "Myth"},
		}},
		folders: &mockFolders{},
	}
	f.svc = New(f.repo, f.compiler, f.thesaurus, f.folders, Config{})
	return f
}
