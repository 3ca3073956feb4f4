package models

import (
	"fmt"
	"strings"
	"time"
)

// Credential is refresh material persisted between runs, keyed by client ID.
type Credential struct {
	id           string
	clientID     string
	userID       string
	displayName  string
	refreshToken string
	scope        string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewCredential creates a [Credential] for clientID from the refresh token in tokens.
func NewCredential(clientID string, tokens TokenSet) *Credential {
	now := time.Now()
	return &Credential{
		clientID:     clientID,
		refreshToken: tokens.RefreshToken,
		scope:        tokens.Scope,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (c *Credential) ID() string           { return c.id }
func (c *Credential) ClientID() string     { return c.clientID }
func (c *Credential) UserID() string       { return c.userID }
func (c *Credential) DisplayName() string  { return c.displayName }
func (c *Credential) RefreshToken() string { return c.refreshToken }
func (c *Credential) Scope() string        { return c.scope }
func (c *Credential) CreatedAt() time.Time { return c.createdAt }
func (c *Credential) UpdatedAt() time.Time { return c.updatedAt }

func (c *Credential) SetID(id string)                { c.id = id }
func (c *Credential) SetCreatedAt(t time.Time)       { c.createdAt = t }
func (c *Credential) SetUpdatedAt(t time.Time)       { c.updatedAt = t }
func (c *Credential) SetRefreshToken(token string)   { c.refreshToken = token }
func (c *Credential) SetScope(scope string)          { c.scope = scope }
func (c *Credential) SetUser(id, displayName string) { c.userID, c.displayName = id, displayName }

// Validate checks that the credential carries a client ID and refresh token.
func (c *Credential) Validate() error {
	if strings.TrimSpace(c.clientID) == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.refreshToken == "" {
		return fmt.Errorf("refresh token is required")
	}
	return nil
}

// TokenSet returns an already-expired [TokenSet] carrying only the refresh material, so the next access forces a refresh.
func (c *Credential) TokenSet() TokenSet {
	return TokenSet{RefreshToken: c.refreshToken, Scope: c.scope}
}
