package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerGroupRoutes(router *mux.Router) {
	s.handle(router, "GET", "/groups", s.listGroups, rbac.CodeShowGroup)
	s.handle(router, "GET", "/groups/{id}", s.getGroup, rbac.CodeShowGroup)
	s.handle(router, "POST", "/groups", s.createGroup, rbac.CodeAddGroup)
	s.handle(router, "PUT", "/groups/{id}", s.updateGroup, rbac.CodeEditGroup)
	s.handle(router, "DELETE", "/groups/{id}", s.deleteGroup, rbac.CodeDeleteGroup)
	s.handle(router, "GET", "/groups/{id}/permissions", s.groupPermissions, rbac.CodeShowGroup, rbac.CodeShowPermission)
	s.handle(router, "PUT", "/groups/{id}/permissions", s.setGroupPermissions, rbac.CodeEditGroup)
	s.handle(router, "DELETE", "/groups/{id}/permissions", s.clearGroupPermissions, rbac.CodeEditGroup)
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListGroups(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, groups)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	response, err := s.groupWithPermissions(r, id)
	if err != nil {
		s.writeStoreError(w, err, "group not found")
		return
	}
	httputil.WriteSuccess(w, response)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if req.Name == "" {
		httputil.WriteValidationError(w, "name is required")
		return
	}

	group := &storage.Group{Name: req.Name}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, group)
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req groupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if req.Name == "" {
		httputil.WriteValidationError(w, "name is required")
		return
	}

	group := &storage.Group{ID: id, Name: req.Name}
	if err := s.store.UpdateGroup(r.Context(), group); err != nil {
		s.writeStoreError(w, err, "group not found")
		return
	}
	httputil.WriteSuccess(w, group)
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.store.DeleteGroup(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "group not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) groupPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if _, err := s.store.GetGroup(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "group not found")
		return
	}

	perms, err := s.store.PermissionsOfGroup(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, perms)
}

// setGroupPermissions replaces the group's permission set with the request's
func (s *Server) setGroupPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req groupPermissionsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if _, err := s.store.GetGroup(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "group not found")
		return
	}
	for _, permID := range req.PermissionIDs {
		if _, err := s.store.GetPermission(r.Context(), permID); err != nil {
			s.writeStoreError(w, err, "permission not found")
			return
		}
	}

	current, err := s.store.PermissionsOfGroup(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	wanted := make(map[int64]struct{}, len(req.PermissionIDs))
	for _, permID := range req.PermissionIDs {
		wanted[permID] = struct{}{}
	}
	for _, perm := range current {
		if _, keep := wanted[perm.ID]; keep {
			delete(wanted, perm.ID)
			continue
		}
		if err := s.store.RemovePermissionFromGroup(r.Context(), id, perm.ID); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
	}
	for permID := range wanted {
		if err := s.store.AddPermissionToGroup(r.Context(), id, permID); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
	}

	response, err := s.groupWithPermissions(r, id)
	if err != nil {
		s.writeStoreError(w, err, "group not found")
		return
	}
	httputil.WriteSuccess(w, response)
}

func (s *Server) clearGroupPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if _, err := s.store.GetGroup(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "group not found")
		return
	}

	perms, err := s.store.PermissionsOfGroup(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	for _, perm := range perms {
		if err := s.store.RemovePermissionFromGroup(r.Context(), id, perm.ID); err != nil {
			httputil.WriteInternalError(w, err)
			return
		}
	}
	httputil.WriteNoContent(w)
}

func (s *Server) groupWithPermissions(r *http.Request, id int64) (*groupResponse, error) {
	group, err := s.store.GetGroup(r.Context(), id)
	if err != nil {
		return nil, err
	}
	perms, err := s.store.PermissionsOfGroup(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return &groupResponse{ID: group.ID, Name: group.Name, Permissions: perms}, nil
}
