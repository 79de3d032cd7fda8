// Package session implements browser login, session authentication and logout.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/db-frog/folklore-archive/internal/domain"
	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
	"github.com/db-frog/folklore-archive/internal/logger"
)

// Service coordinates the provider and the session store.
type Service struct {
	repo     Repository
	provider Provider
	now      func() time.Time
}

// New creates a Service.
func New(repo Repository, provider Provider) *Service {
	return &Service{repo: repo, provider: provider, now: time.Now}
}

// Login returns a fresh state value and the authorization URL carrying it.
func (s *Service) Login() (state, authURL string) {
	state = uuid.NewString()
	return state, s.provider.AuthCodeURL(state)
}

// Callback completes the authorization code flow and stores a new session.
// state must equal wantState, the value issued by Login.
func (s *Service) Callback(ctx context.Context, code, state, wantState string) (domsession.Session, error) {
	if code == "" {
		return domsession.Session{}, fmt.Errorf("%w: missing authorization code", domain.ErrUnauthenticated)
	}
	if wantState == "" || subtle.ConstantTimeCompare([]byte(state), []byte(wantState)) != 1 {
		return domsession.Session{}, fmt.Errorf("%w: state mismatch", domain.ErrUnauthenticated)
	}

	tokens, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	info, err := s.provider.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	sess := domsession.Session{
		ID:          uuid.NewString(),
		Subject:     domsession.SubjectFromUserInfo(info),
		UserInfo:    info,
		IDToken:     tokens.IDToken,
		AccessToken: tokens.AccessToken,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return domsession.Session{}, err
	}
	logger.FromContext(ctx).Info("Session created", zap.String("subject", sess.Subject))
	return sess, nil
}

// Authenticate resolves a session cookie, slides its expiry and re-verifies its ID token.
// Every rejection wraps domain.ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, id string) (domsession.Session, error) {
	if id == "" {
		return domsession.Session{}, fmt.Errorf("%w: session cookie missing", domain.ErrUnauthenticated)
	}
	sess, err := s.repo.Touch(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domsession.Session{}, fmt.Errorf("%w: invalid or expired session", domain.ErrUnauthenticated)
	}
	if err != nil {
		return domsession.Session{}, err
	}
	if sess.IDToken == "" {
		return domsession.Session{}, fmt.Errorf("%w: session has no token", domain.ErrUnauthenticated)
	}

	subject, err := s.provider.Verify(ctx, sess.IDToken)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if sess.Subject != "" && subject != sess.Subject {
		return domsession.Session{}, fmt.Errorf("%w: token subject does not match session", domain.ErrUnauthenticated)
	}
	return sess, nil
}

// CurrentUser returns the stored user info of a session.
func (s *Service) CurrentUser(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, domain.ErrUnauthenticated
	}
	sess, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return sess.UserInfo, nil
}

// Logout deletes the session, if any, and returns the provider logout URL.
// Store failures are logged; the user is still sent to the provider.
func (s *Service) Logout(ctx context.Context, id string) string {
	if id == "" {
		return s.provider.LogoutURL("")
	}
	log := logger.FromContext(ctx)

	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn("Session lookup failed on logout", zap.Error(err))
		}
		return s.provider.LogoutURL("")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		log.Warn("Session delete failed on logout", zap.Error(err))
	}
	return s.provider.LogoutURL(sess.IDToken)
}
