package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spautofy/internal/models"
	"github.com/desertthunder/spautofy/internal/shared"
	"github.com/zalando/go-keyring"
)

// KeyringService is the keychain service name credentials are stored under.
const KeyringService = "spautofy"

// keyringRecord is the JSON secret stored per client ID.
type keyringRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	RefreshToken string    `json:"refresh_token"`
	Scope        string    `json:"scope,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// KeyringStore implements [CredentialStore] on the OS keychain, keyed by client ID.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a [KeyringStore] under the given keychain service name.
func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

func (k *KeyringStore) LoadCredential(_ context.Context, clientID string) (*models.Credential, error) {
	secret, err := keyring.Get(k.service, clientID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("%w: no keychain entry for client %s", shared.ErrNotAuthenticated, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keychain: %w", err)
	}

	var record keyringRecord
	if err := json.Unmarshal([]byte(secret), &record); err != nil {
		return nil, fmt.Errorf("%w: malformed keychain entry for client %s", shared.ErrNotAuthenticated, clientID)
	}

	credential := models.NewCredential(clientID, models.TokenSet{RefreshToken: record.RefreshToken, Scope: record.Scope})
	credential.SetID(record.ID)
	credential.SetUser(record.UserID, record.DisplayName)
	credential.SetCreatedAt(record.CreatedAt)
	credential.SetUpdatedAt(record.UpdatedAt)
	return credential, nil
}

func (k *KeyringStore) SaveCredential(ctx context.Context, credential *models.Credential) error {
	if err := credential.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if existing, err := k.LoadCredential(ctx, credential.ClientID()); err == nil {
		credential.SetID(existing.ID())
		credential.SetCreatedAt(existing.CreatedAt())
	} else if credential.ID() == "" {
		credential.SetID(shared.GenerateID())
	}
	credential.SetUpdatedAt(time.Now())

	secret, err := json.Marshal(keyringRecord{
		ID:           credential.ID(),
		UserID:       credential.UserID(),
		DisplayName:  credential.DisplayName(),
		RefreshToken: credential.RefreshToken(),
		Scope:        credential.Scope(),
		CreatedAt:    credential.CreatedAt(),
		UpdatedAt:    credential.UpdatedAt(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := keyring.Set(k.service, credential.ClientID(), string(secret)); err != nil {
		return fmt.Errorf("failed to write keychain: %w", err)
	}
	return nil
}

func (k *KeyringStore) ForgetCredential(_ context.Context, clientID string) error {
	if err := keyring.Delete(k.service, clientID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete keychain entry: %w", err)
	}
	return nil
}

func (k *KeyringStore) Close() error { return nil }
