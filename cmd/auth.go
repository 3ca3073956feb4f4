package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spautofy/internal/models"
	"github.com/desertthunder/spautofy/internal/repositories"
	"github.com/desertthunder/spautofy/internal/server"
	"github.com/desertthunder/spautofy/internal/services"
	"github.com/desertthunder/spautofy/internal/shared"
	"github.com/desertthunder/spautofy/internal/ui"
	"github.com/urfave/cli/v3"
)

// sessionOutput is the --json view of an authorized session. Tokens are never printed.
type sessionOutput struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Scope       string    `json:"scope"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Authorize produces an [models.AuthorizedSession] for the configured client.
//
// Stored refresh material is tried first when the token store persists it; otherwise a local
// callback listener runs the authorization-code handshake in the user's browser.
func (r *Runner) Authorize(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := r.openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer store.Close()

	spotify, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURI:  config.RedirectURI(),
		Endpoints:    r.endpoints,
		HTTPClient:   r.httpClient,
		Logger:       shared.WithLogger(r.logger, "service", "spotify"),
	})
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	tokens, err := r.storedTokens(ctx, spotify, store, config)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		if tokens, err = r.handshake(ctx, spotify, config); err != nil {
			return err
		}
	case errors.Is(err, shared.ErrExpiredUserCode):
		r.writePlain("%s\n", ui.Warning("The stored authorization was revoked or has expired."))
		r.writePlain("%s\n", ui.Hint("Run `%s forget` to clear it, then authorize again.", cmd.Root().Name))
		return err
	case err != nil:
		return err
	}

	session, err := spotify.Resolve(ctx, tokens)
	if err != nil {
		return fmt.Errorf("failed to resolve session: %w", err)
	}

	if err := r.remember(ctx, store, config, session); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sessionOutput{
			UserID:      session.UserID,
			DisplayName: session.DisplayName,
			Scope:       session.Tokens.Scope,
			ExpiresAt:   session.Tokens.ExpiresAt(),
		}, true)
	}
	return r.writePlain("%s\n", ui.Success("Successfully authenticated with Spotify as user %s.", session.Name()))
}

// storedTokens refreshes the credential kept by store. It returns [shared.ErrNotAuthenticated]
// when nothing is stored or the store does not persist.
func (r *Runner) storedTokens(ctx context.Context, spotify *services.SpotifyService, store repositories.CredentialStore, config *shared.Config) (*models.TokenSet, error) {
	if !repositories.Persists(store) {
		return nil, fmt.Errorf("%w: token_store is %s", shared.ErrNotAuthenticated, config.TokenStore)
	}

	credential, err := store.LoadCredential(ctx, config.ClientID)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("refreshing stored credential", "user", credential.UserID())

	initial := credential.TokenSet()
	tokens := services.NewTokens(spotify, &initial)
	tokens.SetRefreshCallback(func(refreshed *models.TokenSet) {
		if refreshed.RefreshToken == credential.RefreshToken() {
			return
		}
		credential.SetRefreshToken(refreshed.RefreshToken)
		if err := store.SaveCredential(ctx, credential); err != nil {
			r.logger.Warn("failed to store rotated refresh token", "error", err)
		}
	})

	return tokens.Token(ctx)
}

// handshake runs the callback listener until the browser delivers a code, then redeems it.
func (r *Runner) handshake(ctx context.Context, spotify *services.SpotifyService, config *shared.Config) (*models.TokenSet, error) {
	listener := server.NewCallbackListener(server.CallbackOpts{
		Authorizer: spotify,
		Persist:    func() error { return shared.SaveConfig(r.configPath, config) },
		Logger:     shared.WithLogger(r.logger, "component", "callback"),
	})
	router := server.NewCallbackRouter(listener, r.logger, server.DefaultLimiter())

	srv, serverErrs, err := server.Serve(ctx, config.BindAddress(), router)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}
	r.logger.Info("callback listener started", "address", config.BindAddress())

	startURL := config.BaseURL() + "/"
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(startURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("%s", ui.Warning("Could not open browser automatically."))
	}
	r.writePlain("If the browser does not open, visit %s\n", startURL)

	code, err := listener.Wait(ctx, serverErrs)
	if shutdownErr := server.Shutdown(srv); shutdownErr != nil {
		r.logger.Warn("error shutting down callback listener", "error", shutdownErr)
	}
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	tokens, err := spotify.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tokens, nil
}

// remember stores the session's refresh material when the token store persists it.
func (r *Runner) remember(ctx context.Context, store repositories.CredentialStore, config *shared.Config, session *models.AuthorizedSession) error {
	if !repositories.Persists(store) || session.Tokens.RefreshToken == "" {
		return nil
	}

	credential := models.NewCredential(config.ClientID, session.Tokens)
	credential.SetUser(session.UserID, session.DisplayName)
	if err := store.SaveCredential(ctx, credential); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	r.logger.Debug("credential stored", "token_store", config.TokenStore, "user", session.UserID)
	return nil
}

// Init writes the example configuration to --config-path.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config-path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Success("Created %s", path))
	r.writePlain("%s\n", ui.Hint("Set client_id and client_secret from https://developer.spotify.com/dashboard, then run %s.", cmd.Root().Name))
	return nil
}

// Forget deletes the refresh material stored for the configured client. Nothing at the provider is revoked.
func (r *Runner) Forget(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := r.openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer store.Close()

	if !repositories.Persists(store) {
		return r.writePlain("%s\n", ui.Warning("token_store is %s; nothing is stored.", config.TokenStore))
	}

	if err := store.ForgetCredential(ctx, config.ClientID); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Success("Forgot stored authorization for client %s", config.ClientID))
}
