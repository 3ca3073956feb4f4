package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrNoRefreshToken      = fmt.Errorf("no refresh token available")
	ErrNoAuthorizationCode = fmt.Errorf("no authorization code")
	ErrExpiredUserCode     = fmt.Errorf("user authorization expired or revoked")
	// ErrInvalidGrant matches [ErrExpiredUserCode] with errors.Is: a rejected code is an expired grant.
	ErrInvalidGrant      = fmt.Errorf("%w: authorization code rejected", ErrExpiredUserCode)
	ErrProtocolViolation = fmt.Errorf("oauth protocol violation")

	// API and transport errors
	ErrRequestFailed = fmt.Errorf("request failed")
	ErrUnknown       = fmt.Errorf("unexpected response")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
