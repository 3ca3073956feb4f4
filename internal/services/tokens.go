package services

import (
	"context"
	"sync"

	"github.com/desertthunder/spautofy/internal/models"
)

// RefreshCallback is called with every replacement [models.TokenSet].
type RefreshCallback func(tokens *models.TokenSet)

// Tokens holds the current [models.TokenSet] for a run and refreshes it on demand.
//
// refreshMu serializes refreshes; mu guards the pointer and callback.
type Tokens struct {
	refreshMu sync.Mutex
	mu        sync.Mutex
	current   *models.TokenSet
	exchanger Exchanger
	onRefresh RefreshCallback
}

// NewTokens creates a [Tokens] accessor starting from initial.
func NewTokens(exchanger Exchanger, initial *models.TokenSet) *Tokens {
	return &Tokens{exchanger: exchanger, current: initial}
}

// SetRefreshCallback registers fn to observe refreshed token sets. A nil fn removes it.
func (t *Tokens) SetRefreshCallback(fn RefreshCallback) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRefresh = fn
}

// Current returns the held set without checking expiry.
func (t *Tokens) Current() *models.TokenSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Token returns a valid [models.TokenSet], refreshing only when the held one has expired.
func (t *Tokens) Token(ctx context.Context) (*models.TokenSet, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	t.mu.Lock()
	current := t.current
	t.mu.Unlock()

	next, err := t.exchanger.RefreshToken(ctx, current)
	if err != nil {
		return nil, err
	}
	if next == current {
		return current, nil
	}

	t.mu.Lock()
	t.current = next
	callback := t.onRefresh
	t.mu.Unlock()

	if callback != nil {
		callback(next)
	}
	return next, nil
}
