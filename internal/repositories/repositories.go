package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/spautofy/internal/models"
	"github.com/desertthunder/spautofy/internal/shared"
)

// CredentialStore persists refresh material between runs, one credential per client ID.
//
// LoadCredential returns [shared.ErrNotAuthenticated] when nothing is stored.
type CredentialStore interface {
	LoadCredential(ctx context.Context, clientID string) (*models.Credential, error)
	SaveCredential(ctx context.Context, credential *models.Credential) error
	ForgetCredential(ctx context.Context, clientID string) error
	Close() error
}

// OpenStore returns the [CredentialStore] selected by the config's token_store policy.
func OpenStore(ctx context.Context, config *shared.Config) (CredentialStore, error) {
	switch config.TokenStore {
	case shared.TokenStoreNone, "":
		return NoopStore{}, nil
	case shared.TokenStoreSQLite:
		db, err := shared.OpenDatabase(ctx, config.Database)
		if err != nil {
			return nil, err
		}
		return NewCredentialRepository(db), nil
	case shared.TokenStoreKeyring:
		return NewKeyringStore(KeyringService), nil
	default:
		return nil, fmt.Errorf("%w: unknown token_store %q", shared.ErrInvalidConfig, config.TokenStore)
	}
}

// Persists reports whether store keeps anything between runs.
func Persists(store CredentialStore) bool {
	_, noop := store.(NoopStore)
	return !noop
}

// NoopStore implements [CredentialStore] for the "none" policy: nothing outlives the process.
type NoopStore struct{}

func (NoopStore) LoadCredential(context.Context, string) (*models.Credential, error) {
	return nil, shared.ErrNotAuthenticated
}

func (NoopStore) SaveCredential(context.Context, *models.Credential) error { return nil }
func (NoopStore) ForgetCredential(context.Context, string) error           { return nil }
func (NoopStore) Close() error                                             { return nil }
