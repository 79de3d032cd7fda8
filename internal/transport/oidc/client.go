// Package oidc talks to the campus OpenID Connect provider: authorization redirects,
// code exchange, userinfo, ID token verification and RP-initiated logout.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domsession "github.com/db-frog/folklore-archive/internal/domain/session"
)

// Provider endpoint paths, relative to the authority URL.
const (
	AuthorizePath = "/oidcAuthorize"
	TokenPath     = "/oidcAccessToken"
	ProfilePath   = "/oidcProfile"
	LogoutPath    = "/oidcLogout"
	JWKSPath      = "/jwks"
)

// DefaultScopes are requested on every login.
var DefaultScopes = []string{oidc.ScopeOpenID, "profile", "berkeley_edu_default"}

// ErrMissingIDToken is returned when the token endpoint omits id_token.
var ErrMissingIDToken = errors.New("oidc: token response has no id_token")

// Config describes the relying party registration.
type Config struct {
	AuthorityURL string
	// Issuer defaults to AuthorityURL.
	Issuer string
	// JWKSURL defaults to AuthorityURL + JWKSPath.
	JWKSURL      string
	ClientID     string
	ClientSecret string
	// Audience defaults to ClientID.
	Audience    string
	RedirectURL string
	FrontendURL string
	Scopes      []string
	Timeout     time.Duration
}

// Client is a relying party bound to one provider.
type Client struct {
	oauth     *oauth2.Config
	provider  *oidc.Provider
	verifier  *oidc.IDTokenVerifier
	http      *http.Client
	authority string
	frontend  string
}

// New builds a client from static provider metadata. No network calls are made;
// signing keys are fetched on first verification and cached by go-oidc.
func New(ctx context.Context, cfg Config) *Client {
	authority := strings.TrimRight(cfg.AuthorityURL, "/")
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = authority
	}
	jwks := cfg.JWKSURL
	if jwks == "" {
		jwks = authority + JWKSPath
	}
	audience := cfg.Audience
	if audience == "" {
		audience = cfg.ClientID
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	pc := oidc.ProviderConfig{
		IssuerURL:   issuer,
		AuthURL:     authority + AuthorizePath,
		TokenURL:    authority + TokenPath,
		UserInfoURL: authority + ProfilePath,
		JWKSURL:     jwks,
		Algorithms:  []string{oidc.RS256},
	}
	provider := pc.NewProvider(oidc.ClientContext(ctx, hc))

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   pc.AuthURL,
				TokenURL:  pc.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		provider:  provider,
		verifier:  provider.Verifier(&oidc.Config{ClientID: audience}),
		http:      hc,
		authority: authority,
		frontend:  cfg.FrontendURL,
	}
}

// AuthCodeURL returns the provider authorization URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for access and ID tokens.
func (c *Client) Exchange(ctx context.Context, code string) (domsession.Tokens, error) {
	tok, err := c.oauth.Exchange(c.ctx(ctx), code)
	if err != nil {
		return domsession.Tokens{}, fmt.Errorf("oidc: exchange code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return domsession.Tokens{}, ErrMissingIDToken
	}
	return domsession.Tokens{AccessToken: tok.AccessToken, IDToken: idToken}, nil
}

// UserInfo fetches the profile claims for accessToken.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	info, err := c.provider.UserInfo(c.ctx(ctx), src)
	if err != nil {
		return nil, fmt.Errorf("oidc: userinfo: %w", err)
	}
	claims := make(map[string]any)
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc: decode userinfo: %w", err)
	}
	return claims, nil
}

// Verify checks the ID token's signature, issuer, audience and expiry, and returns its subject.
func (c *Client) Verify(ctx context.Context, rawIDToken string) (string, error) {
	tok, err := c.verifier.Verify(c.ctx(ctx), rawIDToken)
	if err != nil {
		return "", fmt.Errorf("oidc: verify id token: %w", err)
	}
	return tok.Subject, nil
}

// LogoutURL returns the provider logout URL. Without an ID token it carries no parameters.
func (c *Client) LogoutURL(idToken string) string {
	u := c.authority + LogoutPath
	if idToken == "" {
		return u
	}
	q := url.Values{}
	q.Set("id_token_hint", idToken)
	if c.frontend != "" {
		q.Set("post_logout_redirect_uri", c.frontend)
	}
	return u + "?" + q.Encode()
}

func (c *Client) ctx(ctx context.Context) context.Context {
	return oidc.ClientContext(ctx, c.http)
}
