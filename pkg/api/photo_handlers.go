package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerPhotoRoutes(router *mux.Router) {
	s.handle(router, "GET", "/photos", s.listPhotos)
	s.handle(router, "GET", "/photos/{id}", s.getPhoto)
	s.handle(router, "POST", "/photos", s.createPhoto, rbac.CodeCreatePhoto, rbac.CodeEditCategory)
	s.handle(router, "PATCH", "/photos/{id}", s.updatePhoto, rbac.CodeEditPhoto, rbac.CodeEditCategory)
	s.handle(router, "DELETE", "/photos/{id}", s.deletePhoto, rbac.CodeDeletePhoto, rbac.CodeEditCategory)
}

func (s *Server) listPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.store.ListPhotos(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, photos)
}

func (s *Server) getPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	photo, err := s.store.GetPhoto(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "photo not found")
		return
	}
	httputil.WriteSuccess(w, photo)
}

// createPhoto accepts a multipart form: category_id, order and the
// "photo_file" upload
func (s *Server) createPhoto(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	categoryID, err := formInt(r, "category_id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	order, err := formInt(r, "order")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if _, err := s.store.GetCategory(r.Context(), int64(categoryID)); err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}

	path, err := s.requireUpload(r, "photo_file")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	photo := &storage.Photo{CategoryID: int64(categoryID), Order: order, Path: path}
	if err := s.store.CreatePhoto(r.Context(), photo); err != nil {
		s.removeUploadQuietly(path)
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, photo)
}

func (s *Server) updatePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var update photoUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	photo, err := s.store.GetPhoto(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "photo not found")
		return
	}

	if update.CategoryID != nil {
		if _, err := s.store.GetCategory(r.Context(), *update.CategoryID); err != nil {
			s.writeStoreError(w, err, "category not found")
			return
		}
	}

	update.Apply(photo)
	if err := s.store.UpdatePhoto(r.Context(), photo); err != nil {
		s.writeStoreError(w, err, "photo not found")
		return
	}
	httputil.WriteSuccess(w, photo)
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	photo, err := s.store.GetPhoto(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "photo not found")
		return
	}

	if err := s.store.DeletePhoto(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "photo not found")
		return
	}
	s.removeUploadQuietly(photo.Path)
	httputil.WriteNoContent(w)
}
