package models

import "net/http"

// AuthorizedSession is an access token bound to the user it was issued for.
//
// It is the only authorization capability handed to code that calls the Web API.
type AuthorizedSession struct {
	Tokens      TokenSet `json:"-"`
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
}

// Authorize returns a copy of req carrying the session's bearer token.
func (s AuthorizedSession) Authorize(req *http.Request) *http.Request {
	authorized := req.Clone(req.Context())
	authorized.Header.Set("Authorization", "Bearer "+s.Tokens.AccessToken)
	return authorized
}

// Name is the display name, falling back to the user ID when the profile has none.
func (s AuthorizedSession) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}
