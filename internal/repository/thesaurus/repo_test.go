package thesaurus

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/db-frog/folklore-archive/internal/domain"
	domthes "github.com/db-frog/folklore-archive/internal/domain/thesaurus"
)

type mockStore struct {
	entries []domthes.Entry
	err     error
	calls   []string
}

func (m *mockStore) Find(_ context.Context, collection string, _ bson.D, out any) error {
	m.calls = append(m.calls, collection)
	if m.err != nil {
		return m.err
	}
	*out.(*[]domthes.Entry) = m.entries
	return nil
}

func TestEntries(t *testing.T) {
	ms := &mockStore{entries: []domthes.Entry{
		{Type: domthes.Genre, Canonical: "Folk Tale", RawValues: []string{"folktale", "folk-tale"}},
	}}
	got, err := New(ms, "").Entries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Canonical != "Folk Tale" {
		t.Errorf("entries = %+v", got)
	}
	if ms.calls[0] != DefaultCollection {
		t.Errorf("collection = %q", ms.calls[0])
	}
}

func TestEntries_StoreError(t *testing.T) {
	ms := &mockStore{err: errors.New("no reachable servers")}
	_, err := New(ms, "Thesaurus").Entries(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
