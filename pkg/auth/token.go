package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTTL is the default lifetime of access tokens
	DefaultAccessTTL = 30 * time.Minute
	// DefaultRefreshTTL is the default lifetime of refresh tokens
	DefaultRefreshTTL = 14 * 24 * time.Hour
)

// Claims is the decoded payload of a bearer token.
type Claims struct {
	// UserID is the token subject
	UserID int64
	// Refresh marks a refresh token. Refresh tokens are accepted only by the
	// refresh endpoint and must never authenticate an ordinary request.
	Refresh bool
}

type tokenClaims struct {
	UID     int64 `json:"uid"`
	Refresh bool  `json:"refresh"`
	jwt.RegisteredClaims
}

// TokenCodecConfig configures the codec. Secret is required; zero TTLs fall
// back to the defaults.
type TokenCodecConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

// TokenCodec signs and verifies stateless bearer tokens (HS256). Issuance and
// decoding are pure over the config and need no locking.
type TokenCodec struct {
	config TokenCodecConfig
}

// NewTokenCodec creates a token codec with the given config
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &TokenCodec{config: cfg}, nil
}

// Issue produces a signed token for the subject. Refresh tokens get the long
// TTL, access tokens the short one.
func (c *TokenCodec) Issue(userID int64, refresh bool) (string, error) {
	ttl := c.config.AccessTTL
	if refresh {
		ttl = c.config.RefreshTTL
	}

	now := time.Now()
	claims := tokenClaims{
		UID:     userID,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.config.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry and returns the claims. It returns
// ErrExpiredToken for a valid-but-expired token and ErrInvalidToken for
// everything else; callers must treat both as authentication failure.
func (c *TokenCodec) Decode(tokenString string) (Claims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if claims.UID == 0 {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: claims.UID, Refresh: claims.Refresh}, nil
}
