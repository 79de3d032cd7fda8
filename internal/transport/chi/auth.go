package chi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
	"github.com/db-frog/folklore-archive/internal/logger"
)

// Cookie defaults.
const (
	DefaultSessionCookie = "session_id"
	DefaultStateCookie   = "oidc_state"
	DefaultSessionMaxAge = 30 * time.Minute
	stateMaxAge          = 10 * time.Minute
)

// CookieConfig controls the session and login-state cookies.
type CookieConfig struct {
	SessionName string
	StateName   string
	MaxAge      time.Duration
	// Insecure drops the Secure attribute, for plain-HTTP local development.
	Insecure    bool
	FrontendURL string
}

func (c *CookieConfig) applyDefaults() {
	if c.SessionName == "" {
		c.SessionName = DefaultSessionCookie
	}
	if c.StateName == "" {
		c.StateName = DefaultStateCookie
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultSessionMaxAge
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
}

// Authenticator resolves a session cookie value to a verified session.
type Authenticator interface {
	Authenticate(ctx context.Context, id string) (domsession.Session, error)
}

type sessionKey struct{}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (domsession.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domsession.Session)
	return s, ok
}

// SessionMiddleware requires a valid session cookie.
// If auth is nil, authentication is disabled (pass-through).
func SessionMiddleware(auth Authenticator, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		if auth == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cookieName); err == nil {
				id = c.Value
			}

			sess, err := auth.Authenticate(r.Context(), id)
			if err != nil {
				handleDomainError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			ctx = logger.With(ctx, zap.String("subject", sess.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Login handles GET /auth/login by redirecting to the provider.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	state, authURL := s.sessions.Login()
	http.SetCookie(w, s.cookie(s.cookies.StateName, state, stateMaxAge, "/auth"))
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /auth/callback: code exchange, session creation, redirect to the frontend.
func (s *Server) Callback(w http.ResponseWriter, r *http.Request) {
	var wantState string
	if c, err := r.Cookie(s.cookies.StateName); err == nil {
		wantState = c.Value
	}
	q := r.URL.Query()

	sess, err := s.sessions.Callback(r.Context(), q.Get("code"), q.Get("state"), wantState)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}

	http.SetCookie(w, s.cookie(s.cookies.StateName, "", -1, "/auth"))
	http.SetCookie(w, s.cookie(s.cookies.SessionName, sess.ID, s.cookies.MaxAge, "/"))
	http.Redirect(w, r, s.cookies.FrontendURL+"/callback", http.StatusFound)
}

// CurrentUser handles GET /auth/current-user.
func (s *Server) CurrentUser(w http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(s.cookies.SessionName); err == nil {
		id = c.Value
	}
	info, err := s.sessions.CurrentUser(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_info": info})
}

// Logout handles GET /auth/logout by dropping the session and redirecting to the provider.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	var id string
	if c, err := r.Cookie(s.cookies.SessionName); err == nil {
		id = c.Value
	}
	target := s.sessions.Logout(r.Context(), id)
	http.SetCookie(w, s.cookie(s.cookies.SessionName, "", -1, "/"))
	http.Redirect(w, r, target, http.StatusFound)
}

// cookie builds an HttpOnly, SameSite=Lax cookie. A negative maxAge deletes it.
func (s *Server) cookie(name, value string, maxAge time.Duration, path string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   !s.cookies.Insecure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}
