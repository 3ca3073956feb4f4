// Package models defines the values that flow through an authorization run.
//
//   - [TokenSet] : an access/refresh token pair with the instant it was received
//   - [AuthorizedSession] : a [TokenSet] bound to the resolved user, handed to API callers
//   - [Credential] : refresh material persisted between runs when a token store is configured
//
// [Credential] implements [Model]; the [Repository] interface defines CRUD access for persisted models.
package models
