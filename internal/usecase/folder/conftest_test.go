package folder

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/db-frog/folklore-archive/internal/domain/folklore"
)

// mockRepo implements Repository and records every call.
type mockRepo struct {
	distinctValues []string
	groups         []string
	docs           []folklore.Document
	err            error

	distinctFields []string
	pipelines      []mongo.Pipeline
}

func (m *mockRepo) Distinct(_ context.Context, field string) ([]string, error) {
	m.distinctFields = append(m.distinctFields, field)
	return m.distinctValues, m.err
}

func (m *mockRepo) Groups(_ context.Context, p mongo.Pipeline) ([]string, error) {
	m.pipelines = append(m.pipelines, p)
	return m.groups, m.err
}

func (m *mockRepo) Documents(_ context.Context, p mongo.Pipeline) ([]folklore.Document, error) {
	m.pipelines = append(m.pipelines, p)
	return m.docs, m.err
}
