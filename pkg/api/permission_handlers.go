package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
)

// Permissions are seeded by migrations and read-only over the API.
func (s *Server) registerPermissionRoutes(router *mux.Router) {
	s.handle(router, "GET", "/permissions", s.listPermissions, rbac.CodeShowPermission)
	s.handle(router, "GET", "/permissions/{id}", s.getPermission, rbac.CodeShowPermission)
}

func (s *Server) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := s.store.ListPermissions(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, perms)
}

func (s *Server) getPermission(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	perm, err := s.store.GetPermission(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "permission not found")
		return
	}
	httputil.WriteSuccess(w, perm)
}
