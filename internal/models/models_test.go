package models

import (
	"net/http"
	"testing"
	"time"
)

func TestTokenSet(t *testing.T) {
	issued := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tokens := TokenSet{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600, IssuedAt: issued}

	t.Run("IsExpired", func(t *testing.T) {
		tests := []struct {
			name    string
			elapsed time.Duration
			want    bool
		}{
			{"immediately after issue", 0, false},
			{"halfway", 30 * time.Minute, false},
			{"exactly at lifetime", time.Hour, false},
			{"past lifetime", time.Hour + time.Second, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := tokens.IsExpired(issued.Add(tt.elapsed)); got != tt.want {
					t.Errorf("IsExpired() = %v, want %v", got, tt.want)
				}
			})
		}
	})

	t.Run("ExpiresAt", func(t *testing.T) {
		if got := tokens.ExpiresAt(); !got.Equal(issued.Add(time.Hour)) {
			t.Errorf("unexpected expiry %v", got)
		}
	})
}

func TestAuthorizedSession(t *testing.T) {
	session := AuthorizedSession{Tokens: TokenSet{AccessToken: "abc123"}, UserID: "wizzler"}

	t.Run("Authorize", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "https://api.spotify.com/v1/me/top/tracks", nil)
		if err != nil {
			t.Fatal(err)
		}

		authorized := session.Authorize(req)
		if got := authorized.Header.Get("Authorization"); got != "Bearer abc123" {
			t.Errorf("expected bearer header, got %q", got)
		}
		if req.Header.Get("Authorization") != "" {
			t.Error("original request should not be modified")
		}
	})

	t.Run("Name", func(t *testing.T) {
		if session.Name() != "wizzler" {
			t.Errorf("expected fallback to user id, got %q", session.Name())
		}

		session.DisplayName = "Wiz"
		if session.Name() != "Wiz" {
			t.Errorf("expected display name, got %q", session.Name())
		}
	})
}

func TestCredential(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		if err := NewCredential("client", TokenSet{RefreshToken: "r"}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := NewCredential("", TokenSet{RefreshToken: "r"}).Validate(); err == nil {
			t.Error("expected error for missing client ID")
		}
		if err := NewCredential("client", TokenSet{}).Validate(); err == nil {
			t.Error("expected error for missing refresh token")
		}
	})

	t.Run("TokenSet forces refresh", func(t *testing.T) {
		credential := NewCredential("client", TokenSet{RefreshToken: "r", Scope: "user-top-read"})
		tokens := credential.TokenSet()

		if tokens.RefreshToken != "r" || tokens.Scope != "user-top-read" {
			t.Errorf("unexpected token set %+v", tokens)
		}
		if !tokens.IsExpired(time.Now()) {
			t.Error("restored token set should be expired")
		}
	})
}
