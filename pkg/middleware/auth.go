package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/contextkeys"
	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/storage"
)

// authFailureMessage is returned verbatim for every authentication failure so
// callers cannot tell a bad signature from an expired token or a deleted user
const authFailureMessage = "could not validate credentials"

// UserLoader loads users by ID
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (*storage.User, error)
}

// Authenticator validates bearer tokens and attaches the user to the request
// context
type Authenticator struct {
	codec  *auth.TokenCodec
	store  UserLoader
	logger *observability.Logger
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(codec *auth.TokenCodec, store UserLoader, logger *observability.Logger) *Authenticator {
	return &Authenticator{codec: codec, store: store, logger: logger}
}

// Middleware rejects requests without a valid access token. Refresh tokens
// are not accepted here; only the refresh endpoint takes them.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authenticate(r)
		if err != nil {
			a.logger.WithError(err).
				WithField("request_id", contextkeys.RequestID(r.Context())).
				Debug("request authentication failed")
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.WriteUnauthorized(w, authFailureMessage)
			return
		}

		next.ServeHTTP(w, r.WithContext(contextkeys.WithUser(r.Context(), user)))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*storage.User, error) {
	token, err := extractBearer(r)
	if err != nil {
		return nil, err
	}

	claims, err := a.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Refresh {
		return nil, errors.New("refresh token used for request authentication")
	}

	user, err := a.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, auth.ErrAuthentication
		}
		return nil, err
	}
	return user, nil
}

// extractBearer pulls the token out of the Authorization header
func extractBearer(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("malformed authorization header")
	}
	return parts[1], nil
}
