package models

import "time"

// TokenSet is an access/refresh token pair issued by the token endpoint.
//
// A refresh produces a new TokenSet; existing values are never mutated.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresIn    int64     `json:"expires_in"` // seconds
	IssuedAt     time.Time `json:"issued_at"`  // captured when the token response arrived
}

// ExpiresAt is the instant the access token stops being valid.
func (t TokenSet) ExpiresAt() time.Time {
	return t.IssuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// IsExpired reports whether more than ExpiresIn seconds have elapsed since IssuedAt.
func (t TokenSet) IsExpired(now time.Time) bool {
	return now.Sub(t.IssuedAt) > time.Duration(t.ExpiresIn)*time.Second
}
