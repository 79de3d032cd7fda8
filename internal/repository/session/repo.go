// Package session persists browser sessions in the key-value store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/db-frog/folklore-archive/internal/db"
	"github.com/db-frog/folklore-archive/internal/domain"
	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
)

var keyPrefix = domain.KeyPrefix + "session:"

// store is the consumer interface for session persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Repo implements usecase/session.Repository. Every read slides the expiry forward.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a session repository with an inactivity timeout of ttl.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// Save stores sess under its id.
func (r *Repo) Save(ctx context.Context, sess domsession.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, key(sess.ID), data, r.ttl); err != nil {
		return unavailable("save session", err)
	}
	return nil
}

// Touch returns the session and resets its inactivity timeout.
// A missing or expired session yields domain.ErrNotFound.
func (r *Repo) Touch(ctx context.Context, id string) (domsession.Session, error) {
	data, err := r.store.Get(ctx, key(id))
	if errors.Is(err, db.ErrKeyNotFound) {
		return domsession.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domsession.Session{}, unavailable("get session", err)
	}

	var sess domsession.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domsession.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	sess.ID = id

	if err := r.store.Expire(ctx, key(id), r.ttl); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsession.Session{}, domain.ErrNotFound
		}
		return domsession.Session{}, unavailable("refresh session", err)
	}
	return sess, nil
}

// Get returns the session without touching its expiry.
func (r *Repo) Get(ctx context.Context, id string) (domsession.Session, error) {
	data, err := r.store.Get(ctx, key(id))
	if errors.Is(err, db.ErrKeyNotFound) {
		return domsession.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domsession.Session{}, unavailable("get session", err)
	}
	var sess domsession.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domsession.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	sess.ID = id
	return sess, nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, key(id)); err != nil {
		return unavailable("delete session", err)
	}
	return nil
}

func key(id string) string {
	return keyPrefix + id
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
