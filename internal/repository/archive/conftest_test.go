package archive

import (
	"context"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mockStore implements the consumer interface for tests.
// Results are copied into out via reflection, mirroring cursor decoding.
type mockStore struct {
	aggregateFn func(collection string, p mongo.Pipeline) (any, error)
	findOneFn   func(collection string, filter bson.D) (any, error)
	distinctFn  func(collection, field string) ([]any, error)

	pipelines []mongo.Pipeline
}

func (m *mockStore) Aggregate(_ context.Context, collection string, p mongo.Pipeline, out any) error {
	m.pipelines = append(m.pipelines, p)
	if m.aggregateFn == nil {
		return nil
	}
	res, err := m.aggregateFn(collection, p)
	if err != nil {
		return err
	}
	reflect.ValueOf(out).Elem().Set(reflect.ValueOf(res))
	return nil
}

func (m *mockStore) FindOne(_ context.Context, collection string, filter bson.D, out any) error {
	res, err := m.findOneFn(collection, filter)
	if err != nil {
		return err
	}
	reflect.ValueOf(out).Elem().Set(reflect.ValueOf(res))
	return nil
}

func (m *mockStore) Distinct(_ context.Context, collection, field string, _ bson.D) ([]any, error) {
	return m.distinctFn(collection, field)
}
