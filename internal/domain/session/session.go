// Package session holds the authenticated browser session model.
package session

import "time"

// Session is created after a successful OIDC callback and looked up by its cookie id.
type Session struct {
	ID          string         `json:"-"`
	Subject     string         `json:"sub"`
	UserInfo    map[string]any `json:"user_info"`
	IDToken     string         `json:"id_token"`
	AccessToken string         `json:"access_token"`
	CreatedAt   time.Time      `json:"created_at"`
}

// SubjectFromUserInfo returns the "sub" claim of a userinfo response, or "" if absent.
func SubjectFromUserInfo(info map[string]any) string {
	sub, _ := info["sub"].(string)
	return sub
}

// Tokens are the credentials returned by an authorization code exchange.
type Tokens struct {
	AccessToken string
	IDToken     string
}
