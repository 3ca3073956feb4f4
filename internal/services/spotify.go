// Spotify implementation of [OAuthService]
//
// Endpoint reference: https://developer.spotify.com/documentation/web-api/tutorials/code-flow
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spautofy/internal/models"
	"github.com/desertthunder/spautofy/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// Scopes requested on every authorization: top-tracks read, private-playlist read and modify.
var Scopes = []string{"user-top-read", "playlist-read-private", "playlist-modify-private"}

// Endpoints locates the accounts service and Web API.
type Endpoints struct {
	AuthURL  string
	TokenURL string
	APIURL   string
}

// DefaultEndpoints returns the production Spotify endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{AuthURL: spotifyAuthURL, TokenURL: spotifyTokenURL, APIURL: spotifyBaseURL}
}

// SpotifyUser is the subset of the current user's profile bound into a session.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyOpts configures a [SpotifyService]. Zero-valued endpoints, client, and clock fall back to defaults.
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Endpoints    Endpoints
	HTTPClient   *http.Client
	Now          func() time.Time
	Logger       *log.Logger
}

// SpotifyService implements [OAuthService] for the Spotify accounts service.
type SpotifyService struct {
	config     *oauth2.Config
	apiURL     string
	httpClient *http.Client
	now        func() time.Time
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service for the given client credentials and redirect URI.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		return nil, fmt.Errorf("%w: redirect_uri", shared.ErrMissingArgument)
	}

	endpoints := DefaultEndpoints()
	if opts.Endpoints.AuthURL != "" {
		endpoints.AuthURL = opts.Endpoints.AuthURL
	}
	if opts.Endpoints.TokenURL != "" {
		endpoints.TokenURL = opts.Endpoints.TokenURL
	}
	if opts.Endpoints.APIURL != "" {
		endpoints.APIURL = opts.Endpoints.APIURL
	}

	svc := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoints.AuthURL,
				TokenURL:  endpoints.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		apiURL:     endpoints.APIURL,
		httpClient: opts.HTTPClient,
		now:        opts.Now,
		logger:     opts.Logger,
	}

	if svc.httpClient == nil {
		svc.httpClient = http.DefaultClient
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.logger == nil {
		svc.logger = log.New(io.Discard)
	}
	return svc, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthorizationURL returns the authorize redirect bound to state.
//
// It fails only when the configured authorize endpoint is not an absolute URL.
func (s *SpotifyService) AuthorizationURL(state string) (string, error) {
	u, err := url.Parse(s.config.Endpoint.AuthURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: authorize URL %q", shared.ErrInvalidConfig, s.config.Endpoint.AuthURL)
	}
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true")), nil
}

// ExchangeCode redeems code at the token endpoint.
//
// Codes are single-use: a replayed or expired code yields [shared.ErrInvalidGrant].
func (s *SpotifyService) ExchangeCode(ctx context.Context, code string) (*models.TokenSet, error) {
	if code == "" {
		return nil, shared.ErrNoAuthorizationCode
	}

	var receipt time.Time
	token, err := s.config.Exchange(s.clientContext(ctx, &receipt), code)
	if err != nil {
		return nil, classifyTokenError(err, shared.ErrInvalidGrant)
	}

	s.logger.Debug("exchanged authorization code", "expires_in", token.ExpiresIn)
	return newTokenSet(token, receipt, "")
}

// RefreshToken returns tokens as-is while they are valid, without any network call.
// Once expired it requests a new set with the stored refresh token.
func (s *SpotifyService) RefreshToken(ctx context.Context, tokens *models.TokenSet) (*models.TokenSet, error) {
	if tokens == nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !tokens.IsExpired(s.now()) {
		return tokens, nil
	}
	if tokens.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	var receipt time.Time
	ctx = s.clientContext(ctx, &receipt)
	token, err := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: tokens.RefreshToken}).Token()
	if err != nil {
		return nil, classifyTokenError(err, shared.ErrExpiredUserCode)
	}

	s.logger.Debug("refreshed access token", "expires_in", token.ExpiresIn)
	return newTokenSet(token, receipt, tokens.RefreshToken)
}

// clientContext routes oauth2 requests through the service's client, stamping receipt when the token response arrives.
func (s *SpotifyService) clientContext(ctx context.Context, receipt *time.Time) context.Context {
	base := s.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	client := &http.Client{
		Transport: &receiptTransport{base: base, now: s.now, receipt: receipt},
		Timeout:   s.httpClient.Timeout,
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// receiptTransport records the instant a response is received, before its body is read.
type receiptTransport struct {
	base    http.RoundTripper
	now     func() time.Time
	receipt *time.Time
}

func (t *receiptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err == nil {
		*t.receipt = t.now()
	}
	return resp, err
}

// newTokenSet converts an [oauth2.Token] into a [models.TokenSet] issued at receipt.
func newTokenSet(token *oauth2.Token, receipt time.Time, previousRefresh string) (*models.TokenSet, error) {
	if token.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: token response missing expires_in", shared.ErrUnknown)
	}

	tokens := &models.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
		IssuedAt:     receipt,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		tokens.Scope = scope
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = previousRefresh
	}
	return tokens, nil
}

// classifyTokenError maps oauth2 failures onto the shared taxonomy.
//
// A 4xx or an OAuth error code is a provider rejection and wraps rejected.
func classifyTokenError(err error, rejected error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		if status >= 500 {
			return fmt.Errorf("%w: token endpoint returned %d", shared.ErrUnknown, status)
		}
		if retrieveErr.ErrorCode != "" || status >= 400 {
			reason := retrieveErr.ErrorCode
			if retrieveErr.ErrorDescription != "" {
				reason += ": " + retrieveErr.ErrorDescription
			}
			if reason == "" {
				reason = fmt.Sprintf("status %d", status)
			}
			return fmt.Errorf("%w (%s)", rejected, reason)
		}
		return fmt.Errorf("%w: %v", shared.ErrUnknown, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", shared.ErrRequestFailed, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrUnknown, err)
}

// doRequest performs a bearer-authenticated GET against the Web API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, session *models.AuthorizedSession, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrInvalidConfig, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(session.Authorize(req))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API returned status %d for %s", shared.ErrUnknown, resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUnknown, err)
	}
	return nil
}
