// Package repositories persists refresh material according to the configured token_store policy.
//
// Implementations of [CredentialStore]:
//   - [NoopStore] : "none", the default; every run performs the browser handshake
//   - [CredentialRepository] : "sqlite", one row per client ID in the migrated credentials table
//   - [KeyringStore] : "keyring", the OS keychain via go-keyring
//
// [CredentialRepository] also implements models.Repository[*models.Credential] for id-based CRUD.
// Access tokens are never stored by any implementation.
package repositories
