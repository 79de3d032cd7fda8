package session

import (
	"context"
	"time"

	"github.com/db-frog/folklore-archive/internal/db"
)

// memStore is an in-memory stand-in for the KV store; expiry is recorded, not enforced.
type memStore struct {
	data map[string][]byte
	ttls map[string]time.Duration

	getErr    error
	setErr    error
	delErr    error
	expireErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	if m.expireErr != nil {
		return m.expireErr
	}
	if _, ok := m.data[key]; !ok {
		return db.ErrKeyNotFound
	}
	m.ttls[key] = ttl
	return nil
}
