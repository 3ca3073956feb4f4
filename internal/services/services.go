// package services implements the OAuth2 provider client: authorization URLs, token exchange and refresh, and identity resolution
package services

import (
	"context"

	"github.com/desertthunder/spautofy/internal/models"
)

// Authorizer builds the provider-facing authorization redirect for a correlation token.
type Authorizer interface {
	AuthorizationURL(state string) (string, error)
}

// Exchanger trades an authorization code for tokens and refreshes expired ones.
type Exchanger interface {
	// ExchangeCode redeems a single-use authorization code.
	ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error)

	// RefreshToken returns tokens unchanged while they are valid, otherwise a replacement set.
	RefreshToken(ctx context.Context, tokens *models.TokenSet) (*models.TokenSet, error)
}

// Resolver binds a valid access token to the user it belongs to.
type Resolver interface {
	Resolve(ctx context.Context, tokens *models.TokenSet) (*models.AuthorizedSession, error)
}

// OAuthService is the full authorization-code client.
type OAuthService interface {
	Authorizer
	Exchanger
	Resolver
	Name() string
}
