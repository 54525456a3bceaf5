package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerTagRoutes(router *mux.Router) {
	s.handle(router, "GET", "/tags", s.listTags)
	s.handle(router, "GET", "/tags/{id}", s.getTag)
	s.handle(router, "POST", "/tags", s.createTag, rbac.CodeAddTag)
	s.handle(router, "PUT", "/tags/{id}", s.updateTag, rbac.CodeEditTag)
	s.handle(router, "DELETE", "/tags/{id}", s.deleteTag, rbac.CodeDeleteTag)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, tags)
}

func (s *Server) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	tag, err := s.store.GetTag(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "tag not found")
		return
	}
	httputil.WriteSuccess(w, tag)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	tag := &storage.Tag{Name: req.Name}
	if err := s.store.CreateTag(r.Context(), tag); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, tag)
}

func (s *Server) updateTag(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req tagRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	tag := &storage.Tag{ID: id, Name: req.Name}
	if err := s.store.UpdateTag(r.Context(), tag); err != nil {
		s.writeStoreError(w, err, "tag not found")
		return
	}
	httputil.WriteSuccess(w, tag)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.store.DeleteTag(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "tag not found")
		return
	}
	httputil.WriteNoContent(w)
}

// writeStoreError maps store sentinel errors onto HTTP statuses
func (s *Server) writeStoreError(w http.ResponseWriter, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httputil.WriteNotFoundError(w, notFoundMessage)
	case errors.Is(err, storage.ErrDuplicateEmail):
		httputil.WriteValidationError(w, storage.ErrDuplicateEmail.Error())
	case errors.Is(err, storage.ErrDuplicateRoomNumber):
		httputil.WriteValidationError(w, storage.ErrDuplicateRoomNumber.Error())
	default:
		if s.metrics != nil {
			s.metrics.StorageErrorsTotal.WithLabelValues("api").Inc()
		}
		httputil.WriteInternalError(w, err)
	}
}
