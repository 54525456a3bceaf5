package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/contextkeys"
	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/storage"
)

type fakeUserLoader struct {
	users map[int64]*storage.User
}

func (f *fakeUserLoader) GetUserByID(ctx context.Context, id int64) (*storage.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *auth.TokenCodec) {
	t.Helper()
	codec, err := auth.NewTokenCodec(auth.TokenCodecConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)

	store := &fakeUserLoader{users: map[int64]*storage.User{
		1: {ID: 1, Kind: storage.KindWorker, Email: "worker@hotel.test"},
	}}
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewAuthenticator(codec, store, logger), codec
}

func TestAuthenticator(t *testing.T) {
	authn, codec := newTestAuthenticator(t)

	var seen *storage.User
	handler := authn.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = contextkeys.User(r.Context())
	}))

	t.Run("valid access token", func(t *testing.T) {
		token, err := codec.Issue(1, false)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/rooms", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, int64(1), seen.ID)
	})

	rejected := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{
			name:  "missing header",
			setup: func(r *http.Request) {},
		},
		{
			name: "not a bearer scheme",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
		},
		{
			name: "garbage token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer not.a.jwt")
			},
		},
		{
			name: "refresh token rejected",
			setup: func(r *http.Request) {
				token, err := codec.Issue(1, true)
				require.NoError(t, err)
				r.Header.Set("Authorization", "Bearer "+token)
			},
		},
		{
			name: "unknown user",
			setup: func(r *http.Request) {
				token, err := codec.Issue(999, false)
				require.NoError(t, err)
				r.Header.Set("Authorization", "Bearer "+token)
			},
		},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest("GET", "/rooms", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			// failure message is identical for every cause
			assert.JSONEq(t, `{"detail":"could not validate credentials"}`, rec.Body.String())
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			assert.Nil(t, seen)
		})
	}
}

func TestExtractBearer(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer lowercase-scheme-ok")

	token, err := extractBearer(req)
	require.NoError(t, err)
	assert.Equal(t, "lowercase-scheme-ok", token)
}
