package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const fakeScope = "user-top-read playlist-read-private playlist-modify-private"

// FakeProvider is an in-process stand-in for the Spotify accounts service and Web API.
//
// Authorization codes are single-use and bound to the redirect URI they were issued for.
type FakeProvider struct {
	Server       *httptest.Server
	ClientID     string
	ClientSecret string
	UserID       string
	DisplayName  string
	ExpiresIn    int64

	// Deny makes /authorize answer with error=access_denied.
	Deny bool
	// RotateRefresh issues a new refresh token on every refresh grant.
	RotateRefresh bool

	tokenRequests atomic.Int32

	mu       sync.Mutex
	seq      int
	codes    map[string]string // code -> redirect URI, removed once redeemed
	refresh  map[string]bool
	access   map[string]bool
	lastAuth url.Values
}

// NewFakeProvider starts a [FakeProvider] that is closed with the test.
func NewFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	p := &FakeProvider{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		UserID:       "wizzler",
		DisplayName:  "Wiz",
		ExpiresIn:    3600,
		codes:        make(map[string]string),
		refresh:      make(map[string]bool),
		access:       make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", p.authorize)
	mux.HandleFunc("POST /api/token", p.token)
	mux.HandleFunc("GET /v1/me", p.me)

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

func (p *FakeProvider) AuthURL() string  { return p.Server.URL + "/authorize" }
func (p *FakeProvider) TokenURL() string { return p.Server.URL + "/api/token" }
func (p *FakeProvider) APIURL() string   { return p.Server.URL + "/v1" }

// TokenRequests is the number of requests the token endpoint has received.
func (p *FakeProvider) TokenRequests() int { return int(p.tokenRequests.Load()) }

// LastAuthorization returns the query of the most recent /authorize request.
func (p *FakeProvider) LastAuthorization() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAuth
}

// IssueCode creates an unused authorization code bound to redirectURI.
func (p *FakeProvider) IssueCode(redirectURI string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	code := fmt.Sprintf("code-%d", p.seq)
	p.codes[code] = redirectURI
	return code
}

// IssueRefreshToken creates a refresh token the provider will honor.
func (p *FakeProvider) IssueRefreshToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	token := fmt.Sprintf("refresh-%d", p.seq)
	p.refresh[token] = true
	return token
}

// Revoke invalidates a refresh token.
func (p *FakeProvider) Revoke(refreshToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.refresh, refreshToken)
}

func (p *FakeProvider) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p.mu.Lock()
	p.lastAuth = q
	p.mu.Unlock()

	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || q.Get("client_id") != p.ClientID || q.Get("response_type") != "code" {
		http.Error(w, "invalid authorization request", http.StatusBadRequest)
		return
	}

	params := url.Values{"state": {q.Get("state")}}
	if p.Deny {
		params.Set("error", "access_denied")
	} else {
		params.Set("code", p.IssueCode(redirect.String()))
	}
	redirect.RawQuery = params.Encode()
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (p *FakeProvider) token(w http.ResponseWriter, r *http.Request) {
	p.tokenRequests.Add(1)

	id, secret, ok := r.BasicAuth()
	if !ok || id != p.ClientID || secret != p.ClientSecret {
		writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "Invalid client")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var refreshToken string
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		code := r.PostForm.Get("code")
		redirectURI, issued := p.codes[code]
		if !issued || redirectURI != r.PostForm.Get("redirect_uri") {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Invalid authorization code")
			return
		}
		delete(p.codes, code)

		p.seq++
		refreshToken = fmt.Sprintf("refresh-%d", p.seq)
		p.refresh[refreshToken] = true
	case "refresh_token":
		if !p.refresh[r.PostForm.Get("refresh_token")] {
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "Refresh token revoked")
			return
		}
		if p.RotateRefresh {
			delete(p.refresh, r.PostForm.Get("refresh_token"))
			p.seq++
			refreshToken = fmt.Sprintf("refresh-%d", p.seq)
			p.refresh[refreshToken] = true
		}
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "")
		return
	}

	p.seq++
	accessToken := fmt.Sprintf("access-%d", p.seq)
	p.access[accessToken] = true

	body := map[string]any{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"scope":        fakeScope,
		"expires_in":   p.ExpiresIn,
	}
	if refreshToken != "" {
		body["refresh_token"] = refreshToken
	}
	writeJSON(w, http.StatusOK, body)
}

func (p *FakeProvider) me(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	p.mu.Lock()
	valid := ok && p.access[token]
	p.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]any{"status": 401, "message": "Invalid access token"},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": p.UserID, "display_name": p.DisplayName})
}

func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, map[string]string{"error": code, "error_description": description})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
