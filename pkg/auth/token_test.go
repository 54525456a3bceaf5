package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, accessTTL, refreshTTL time.Duration) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(TokenCodecConfig{
		Secret:     []byte("test-secret-0123456789"),
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Issuer:     "backoffice-test",
	})
	require.NoError(t, err)
	return codec
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)

	access, err := codec.Issue(42, false)
	require.NoError(t, err)
	refresh, err := codec.Issue(42, true)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	got, err := codec.Decode(access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.False(t, got.Refresh)

	got, err = codec.Decode(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.True(t, got.Refresh)
}

func TestTokenCodec_Expired(t *testing.T) {
	// TTL in the past: the token is expired the moment it is issued
	codec := newTestCodec(t, -time.Minute, time.Hour)

	token, err := codec.Issue(7, false)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)
	other := newTestCodec(t, time.Minute, time.Hour)
	other.config.Secret = []byte("a-different-secret")

	token, err := codec.Issue(7, false)
	require.NoError(t, err)

	_, err = other.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Garbage(t *testing.T) {
	codec := newTestCodec(t, time.Minute, time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Decode(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestNewTokenCodec_RequiresSecret(t *testing.T) {
	_, err := NewTokenCodec(TokenCodecConfig{})
	assert.Error(t, err)
}
