// Package services talks to the Spotify accounts service and Web API.
//
// # Authorization
//
// [SpotifyService] wraps an [oauth2.Config] configured for the authorization-code grant with client
// credentials sent as HTTP Basic auth. [SpotifyService.AuthorizationURL] always forces the consent
// dialog (show_dialog=true) and requests the fixed [Scopes].
//
// # Token lifecycle
//
// [SpotifyService.ExchangeCode] redeems a code once. [SpotifyService.RefreshToken] is a pure read
// while the [models.TokenSet] is still valid and only contacts the token endpoint after expiry.
// IssuedAt is stamped when the token response arrives, before its body is decoded.
//
// [Tokens] holds the current set for a run and refreshes it on demand, notifying an optional
// callback so new refresh material can be persisted.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrNoAuthorizationCode] : exchange attempted without a code
//   - [shared.ErrInvalidGrant] : the provider rejected an authorization code (matches [shared.ErrExpiredUserCode])
//   - [shared.ErrExpiredUserCode] : the provider rejected a refresh token
//   - [shared.ErrRequestFailed] : transport failure
//   - [shared.ErrUnknown] : unexpected status or response shape
//
// No call is retried.
package services
