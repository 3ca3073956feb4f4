package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/spautofy/internal/models"
	"github.com/desertthunder/spautofy/internal/shared"
)

// Resolve binds tokens to the current user's identity with one GET /me call.
//
// Expiry must be checked before calling; an expired token here surfaces as [shared.ErrUnknown].
func (s *SpotifyService) Resolve(ctx context.Context, tokens *models.TokenSet) (*models.AuthorizedSession, error) {
	if tokens == nil || tokens.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	session := &models.AuthorizedSession{Tokens: *tokens}

	var user SpotifyUser
	if err := s.doRequest(ctx, session, "/me", &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: profile response missing id", shared.ErrUnknown)
	}

	session.UserID = user.ID
	session.DisplayName = user.DisplayName
	s.logger.Debug("resolved user", "user_id", user.ID)
	return session, nil
}
