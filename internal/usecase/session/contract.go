package session

import (
	"context"

	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
)

// Repository persists sessions with an inactivity timeout.
type Repository interface {
	Save(ctx context.Context, s domsession.Session) error
	Touch(ctx context.Context, id string) (domsession.Session, error)
	Get(ctx context.Context, id string) (domsession.Session, error)
	Delete(ctx context.Context, id string) error
}

// Provider is the OpenID Connect relying party.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domsession.Tokens, error)
	UserInfo(ctx context.Context, accessToken string) (map[string]any, error)
	Verify(ctx context.Context, rawIDToken string) (string, error)
	LogoutURL(idToken string) string
}
