package rbac

import (
	"net/http"

	"github.com/hotelier/backoffice/pkg/contextkeys"
	"github.com/hotelier/backoffice/pkg/httputil"
)

// Require builds middleware that rejects the request with 403 unless the
// authenticated user holds every listed permission code. It must run after
// the authenticator, which puts the user on the context; a missing user is a
// 401.
func (c *Checker) Require(codes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := contextkeys.User(r.Context())
			if user == nil {
				httputil.WriteUnauthorized(w, "could not validate credentials")
				return
			}

			allowed, err := c.CanPerform(r.Context(), user, codes...)
			if err != nil {
				httputil.WriteInternalError(w, err)
				return
			}
			if !allowed {
				httputil.WriteForbidden(w, "not enough permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
