package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spautofy/internal/models"
	"github.com/desertthunder/spautofy/internal/shared"
)

const credentialColumns = `id, client_id, user_id, display_name, refresh_token, scope, created_at, updated_at`

// CredentialRepository implements [models.Repository] and [CredentialStore] for [models.Credential] on SQLite.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new credential with a generated ID
func (r *CredentialRepository) Create(ctx context.Context, credential *models.Credential) error {
	if err := credential.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	credential.SetID(shared.GenerateID())

	query := `INSERT INTO credentials (` + credentialColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		credential.ID(),
		credential.ClientID(),
		credential.UserID(),
		credential.DisplayName(),
		credential.RefreshToken(),
		credential.Scope(),
		credential.CreatedAt(),
		credential.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

// Get retrieves a credential by ID
func (r *CredentialRepository) Get(ctx context.Context, id string) (*models.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id)
	credential, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credential not found: %s", id)
	}
	return credential, err
}

// Update replaces the refresh material and identity of an existing credential
func (r *CredentialRepository) Update(ctx context.Context, credential *models.Credential) error {
	if err := credential.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	query := `
		UPDATE credentials
		SET user_id = ?, display_name = ?, refresh_token = ?, scope = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		credential.UserID(), credential.DisplayName(), credential.RefreshToken(), credential.Scope(), now, credential.ID())
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	if err := expectRows(result, "credential not found: "+credential.ID()); err != nil {
		return err
	}

	credential.SetUpdatedAt(now)
	return nil
}

// Delete removes a credential by ID. Refresh tokens are secrets, so rows are removed outright.
func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return expectRows(result, "credential not found: "+id)
}

// List retrieves credentials matching criteria ("client_id", "user_id"), oldest first
func (r *CredentialRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE 1 = 1`
	args := []any{}

	for _, column := range []string{"client_id", "user_id"} {
		if value, ok := criteria[column].(string); ok && value != "" {
			query += " AND " + column + " = ?"
			args = append(args, value)
		}
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*models.Credential
	for rows.Next() {
		credential, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return credentials, nil
}

// LoadCredential returns the credential stored for clientID.
func (r *CredentialRepository) LoadCredential(ctx context.Context, clientID string) (*models.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE client_id = ?`, clientID)
	credential, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no stored credential for client %s", shared.ErrNotAuthenticated, clientID)
	}
	return credential, err
}

// SaveCredential inserts or replaces the single credential for the credential's client ID.
func (r *CredentialRepository) SaveCredential(ctx context.Context, credential *models.Credential) error {
	existing, err := r.LoadCredential(ctx, credential.ClientID())
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.Create(ctx, credential)
	case err != nil:
		return err
	}

	credential.SetID(existing.ID())
	credential.SetCreatedAt(existing.CreatedAt())
	return r.Update(ctx, credential)
}

// ForgetCredential removes any credential stored for clientID. Forgetting nothing is not an error.
func (r *CredentialRepository) ForgetCredential(ctx context.Context, clientID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (r *CredentialRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner) (*models.Credential, error) {
	var (
		id           string
		clientID     string
		userID       string
		displayName  string
		refreshToken string
		scope        string
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&id, &clientID, &userID, &displayName, &refreshToken, &scope, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan credential: %w", err)
	}

	credential := models.NewCredential(clientID, models.TokenSet{RefreshToken: refreshToken, Scope: scope})
	credential.SetID(id)
	credential.SetUser(userID, displayName)
	credential.SetCreatedAt(createdAt)
	credential.SetUpdatedAt(updatedAt)
	return credential, nil
}

func expectRows(result sql.Result, notFound string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return errors.New(notFound)
	}
	return nil
}
