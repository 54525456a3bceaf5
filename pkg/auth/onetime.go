package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/hotelier/backoffice/pkg/storage"
)

const (
	// oneTimeTokenBytes is the entropy of a one-time token value (256 bits)
	oneTimeTokenBytes = 32
	// DefaultOneTimeTokenTTL bounds how long an unconsumed token stays valid
	DefaultOneTimeTokenTTL = 48 * time.Hour
)

// OneTimeTokens issues and resolves persisted single-use tokens. Consumption
// is not done here: the store's consume-and-apply methods handle it together
// with the state change the token gates, inside one transaction.
type OneTimeTokens struct {
	store storage.CredentialStore
	ttl   time.Duration
}

// NewOneTimeTokens creates a generator backed by the credential store. A zero
// ttl falls back to DefaultOneTimeTokenTTL.
func NewOneTimeTokens(store storage.CredentialStore, ttl time.Duration) *OneTimeTokens {
	if ttl <= 0 {
		ttl = DefaultOneTimeTokenTTL
	}
	return &OneTimeTokens{store: store, ttl: ttl}
}

// Issue generates a cryptographically random opaque value and persists it
// tied to the user and kind, unconsumed.
func (g *OneTimeTokens) Issue(ctx context.Context, userID int64, kind storage.TokenKind) (*storage.OneTimeToken, error) {
	raw := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate token value: %w", err)
	}

	now := time.Now()
	token := &storage.OneTimeToken{
		Value:     base64.RawURLEncoding.EncodeToString(raw),
		Kind:      kind,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.store.SaveOneTimeToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to persist one-time token: %w", err)
	}
	return token, nil
}

// Resolve looks a token up by value AND kind. Unknown, consumed and expired
// tokens all come back as ErrTokenNotFound.
func (g *OneTimeTokens) Resolve(ctx context.Context, value string, kind storage.TokenKind) (*storage.OneTimeToken, error) {
	token, err := g.store.FindOneTimeToken(ctx, value, kind)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if token.ConsumedAt != nil || time.Now().After(token.ExpiresAt) {
		return nil, ErrTokenNotFound
	}
	return token, nil
}
