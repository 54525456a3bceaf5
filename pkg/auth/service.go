package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/storage"
)

// TokenPair is an access/refresh token pair issued together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service orchestrates login, token refresh, registration, account
// confirmation and the password-reset flow.
type Service struct {
	store  storage.CredentialStore
	codec  *TokenCodec
	hasher Hasher
	tokens *OneTimeTokens
	logger *observability.Logger
}

// NewService wires the auth service from its collaborators
func NewService(store storage.CredentialStore, codec *TokenCodec, hasher Hasher, tokens *OneTimeTokens, logger *observability.Logger) *Service {
	return &Service{
		store:  store,
		codec:  codec,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate verifies an email/password pair. Unknown email and wrong
// password both return ErrAuthentication so callers cannot enumerate users.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*storage.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.WithField("email", RedactEmail(email)).Info("login failed: unknown email")
			return nil, ErrAuthentication
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		s.logger.WithField("email", RedactEmail(email)).Info("login failed: password mismatch")
		return nil, ErrAuthentication
	}

	s.logger.WithField("email", RedactEmail(email)).Info("login succeeded")
	return user, nil
}

// GenerateAuthTokens issues a fresh access/refresh pair for the user
func (s *Service) GenerateAuthTokens(userID int64) (TokenPair, error) {
	access, err := s.codec.Issue(userID, false)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.Issue(userID, true)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RefreshAuthTokens exchanges a refresh token for a fresh pair. An access
// token must never mint new tokens, so a decoded token without the refresh
// flag is rejected like any other bad credential.
func (s *Service) RefreshAuthTokens(refreshToken string) (TokenPair, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		s.logger.WithError(err).Info("token refresh rejected")
		return TokenPair{}, ErrAuthentication
	}
	if !claims.Refresh {
		s.logger.WithField("user_id", claims.UserID).Warn("access token presented to refresh endpoint")
		return TokenPair{}, ErrAuthentication
	}
	return s.GenerateAuthTokens(claims.UserID)
}

// Register persists an unconfirmed user and issues a register-type one-time
// token. Delivery of the confirmation link is the caller's problem and must
// not roll back registration when it fails.
func (s *Service) Register(ctx context.Context, user *storage.User, password string) (*storage.OneTimeToken, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	user.IsConfirmed = false

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			s.logger.WithField("email", RedactEmail(user.Email)).Info("registration rejected: duplicate email")
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(ctx, user.ID, storage.TokenRegister)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("email", RedactEmail(user.Email)).Info("user registered, confirmation pending")
	return token, nil
}

// ConfirmAccount resolves and consumes a register token, flipping the owner's
// confirmed flag. Resolution rejects unknown, consumed, expired and
// wrong-kind values before the consuming transaction opens; consumption and
// the flag update then happen in one transaction, so racing confirmations
// still let exactly one caller through.
func (s *Service) ConfirmAccount(ctx context.Context, tokenValue string) error {
	if _, err := s.tokens.Resolve(ctx, tokenValue, storage.TokenRegister); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			s.logger.Info("account confirmation failed: token unknown or consumed")
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to resolve register token: %w", err)
	}

	userID, err := s.store.ConfirmRegistration(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			s.logger.Info("account confirmation failed: token unknown or consumed")
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to confirm account: %w", err)
	}
	s.logger.WithField("user_id", userID).Info("account confirmed")
	return nil
}

// RequestReset looks up the user and issues a reset-type one-time token.
// Unlike login this surfaces whether the email exists; the asymmetry is part
// of the public contract, so it is kept but logged.
func (s *Service) RequestReset(ctx context.Context, email string) (*storage.User, *storage.OneTimeToken, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.WithField("email", RedactEmail(email)).Warn("reset requested for unknown email (response reveals registration status)")
			return nil, nil, ErrUnknownEmail
		}
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.tokens.Issue(ctx, user.ID, storage.TokenReset)
	if err != nil {
		return nil, nil, err
	}
	s.logger.WithField("email", RedactEmail(email)).Info("password reset requested")
	return user, token, nil
}

// ConfirmReset resolves and consumes a reset token, storing the new password
// hash in the same transaction as the consumption.
func (s *Service) ConfirmReset(ctx context.Context, tokenValue, newPassword string) error {
	if _, err := s.tokens.Resolve(ctx, tokenValue, storage.TokenReset); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			s.logger.Info("password reset failed: token unknown or consumed")
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to resolve reset token: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.store.ResetPassword(ctx, tokenValue, hash)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			s.logger.Info("password reset failed: token unknown or consumed")
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}
	s.logger.WithField("user_id", userID).Info("password reset completed")
	return nil
}

// RedactEmail keeps the first characters of the local part for log
// correlation without recording the full address.
func RedactEmail(email string) string {
	const keep = 4
	if len(email) <= keep {
		return "***"
	}
	return email[:keep] + "***"
}
