package session

import (
	"context"
	"errors"
	"sync"

	"github.com/db-frog/folklore-archive/internal/domain"
	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	mu       sync.Mutex
	sessions map[string]domsession.Session
	touches  int
	err      error
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]domsession.Session)}
}

func (m *memRepo) Save(_ context.Context, s domsession.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memRepo) Touch(ctx context.Context, id string) (domsession.Session, error) {
	m.mu.Lock()
	m.touches++
	m.mu.Unlock()
	return m.Get(ctx, id)
}

func (m *memRepo) Get(_ context.Context, id string) (domsession.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domsession.Session{}, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return domsession.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// stubProvider is a scripted Provider.
type stubProvider struct {
	tokens      domsession.Tokens
	exchangeErr error
	info        map[string]any
	infoErr     error
	subject     string
	verifyErr   error
	verified    []string
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://idp.example.edu/oidcAuthorize?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, _ string) (domsession.Tokens, error) {
	return p.tokens, p.exchangeErr
}

func (p *stubProvider) UserInfo(_ context.Context, _ string) (map[string]any, error) {
	return p.info, p.infoErr
}

func (p *stubProvider) Verify(_ context.Context, raw string) (string, error) {
	p.verified = append(p.verified, raw)
	return p.subject, p.verifyErr
}

func (p *stubProvider) LogoutURL(idToken string) string {
	if idToken == "" {
		return "https://idp.example.edu/oidcLogout"
	}
	return "https://idp.example.edu/oidcLogout?id_token_hint=" + idToken
}

var errIDP = errors.New("idp unavailable")
