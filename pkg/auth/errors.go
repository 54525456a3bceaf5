package auth

import "errors"

var (
	// ErrAuthentication covers bad credentials and bad, expired or wrong-kind
	// bearer tokens. The message is deliberately uniform so callers cannot
	// tell which check failed.
	ErrAuthentication = errors.New("could not validate credentials")

	// ErrInvalidToken is returned when a bearer token's signature is
	// malformed or does not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a bearer token's expiry has passed.
	// Callers treat it exactly like ErrInvalidToken; the distinction exists
	// for logging only.
	ErrExpiredToken = errors.New("token expired")

	// ErrTokenNotFound is returned when a one-time token is unknown,
	// already consumed or expired
	ErrTokenNotFound = errors.New("token not found")

	// ErrEmailTaken is returned on registration with an already-used email
	ErrEmailTaken = errors.New("email already registered")

	// ErrUnknownEmail is returned by the reset-request flow when the email
	// is not registered. Note: surfacing this distinguishes registered from
	// unregistered emails, unlike login. Kept for API compatibility; the
	// service logs each occurrence.
	ErrUnknownEmail = errors.New("no user with this email")
)
