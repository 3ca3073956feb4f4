package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spautofy/internal/models"
	"github.com/desertthunder/spautofy/internal/shared"
	tu "github.com/desertthunder/spautofy/internal/testing"
)

func TestTokens(t *testing.T) {
	t.Run("pure read while valid", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		c := newClock()
		srv := newTestService(t, p, c.Now)
		initial := mustExchange(t, srv, p.IssueCode(testRedirectURI))
		requests := p.TokenRequests()

		tokens := NewTokens(srv, initial)
		tokens.SetRefreshCallback(func(*models.TokenSet) {
			t.Error("callback should not be called without a refresh")
		})

		for range 3 {
			got, err := tokens.Token(context.Background())
			if err != nil {
				t.Fatalf("Token() error = %v", err)
			}
			if got != initial {
				t.Error("expected the held token set")
			}
		}

		if p.TokenRequests() != requests {
			t.Errorf("expected no token requests, got %d", p.TokenRequests()-requests)
		}
	})

	t.Run("refreshes after expiry and notifies", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		c := newClock()
		srv := newTestService(t, p, c.Now)
		initial := mustExchange(t, srv, p.IssueCode(testRedirectURI))

		var captured []*models.TokenSet
		tokens := NewTokens(srv, initial)
		tokens.SetRefreshCallback(func(ts *models.TokenSet) { captured = append(captured, ts) })

		c.Advance(2 * time.Hour)
		refreshed, err := tokens.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}

		if refreshed == initial {
			t.Fatal("expected a replacement token set")
		}
		if tokens.Current() != refreshed {
			t.Error("expected accessor to hold the replacement")
		}
		if len(captured) != 1 || captured[0] != refreshed {
			t.Errorf("expected callback once with the replacement, got %d calls", len(captured))
		}

		again, err := tokens.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if again != refreshed || len(captured) != 1 {
			t.Error("second access should be a pure read")
		}
	})

	t.Run("propagates rejection", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		c := newClock()
		srv := newTestService(t, p, c.Now)
		initial := mustExchange(t, srv, p.IssueCode(testRedirectURI))
		p.Revoke(initial.RefreshToken)

		tokens := NewTokens(srv, initial)
		c.Advance(2 * time.Hour)

		if _, err := tokens.Token(context.Background()); !errors.Is(err, shared.ErrExpiredUserCode) {
			t.Errorf("expected ErrExpiredUserCode, got %v", err)
		}
		if tokens.Current() != initial {
			t.Error("failed refresh must not replace the held set")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		srv := newTestService(t, p, nil)
		initial := mustExchange(t, srv, p.IssueCode(testRedirectURI))
		tokens := NewTokens(srv, initial)

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := tokens.Token(context.Background()); err != nil {
					t.Errorf("Token() error = %v", err)
				}
			}()
		}
		wg.Wait()
	})

	t.Run("concurrent refresh of an expired set", func(t *testing.T) {
		p := tu.NewFakeProvider(t)
		p.RotateRefresh = true
		c := newClock()
		srv := newTestService(t, p, c.Now)
		initial := mustExchange(t, srv, p.IssueCode(testRedirectURI))

		var mu sync.Mutex
		var captured []*models.TokenSet
		tokens := NewTokens(srv, initial)
		tokens.SetRefreshCallback(func(ts *models.TokenSet) {
			mu.Lock()
			defer mu.Unlock()
			captured = append(captured, ts)
		})

		c.Advance(2 * time.Hour)
		requests := p.TokenRequests()

		results := make([]*models.TokenSet, 8)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := tokens.Token(context.Background())
				if err != nil {
					t.Errorf("Token() error = %v", err)
					return
				}
				results[i] = got
			}()
		}
		wg.Wait()

		if got := p.TokenRequests() - requests; got != 1 {
			t.Errorf("expected one refresh request, got %d", got)
		}
		if len(captured) != 1 {
			t.Fatalf("expected callback once, got %d calls", len(captured))
		}
		for _, got := range results {
			if got != captured[0] {
				t.Error("expected every caller to receive the same replacement")
			}
		}
	})
}
