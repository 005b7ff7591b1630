package service

import "errors"

// Sentinel errors for the OAuth callback pipeline. Each callback attempt is
// single-shot: these are terminal for the attempt, since replaying a
// consumed authorization code is invalid.
var (
	// ErrMissingCode indicates the redirect arrived without a code parameter.
	ErrMissingCode = errors.New("authorization code is missing")

	// ErrUnauthenticated indicates no authenticated user could be resolved.
	ErrUnauthenticated = errors.New("no authenticated user")

	// ErrExchangeFailed indicates the provider rejected the code-for-token
	// exchange or a follow-up account lookup.
	ErrExchangeFailed = errors.New("token exchange failed")

	// ErrPersistenceFailed indicates the connection row could not be saved.
	ErrPersistenceFailed = errors.New("connection could not be saved")
)
