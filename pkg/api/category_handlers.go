package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerCategoryRoutes(router *mux.Router) {
	s.handle(router, "GET", "/categories", s.listCategories)
	s.handle(router, "GET", "/categories/{id}", s.getCategory)
	s.handle(router, "GET", "/categories/{id}/familiar", s.familiarCategories)
	s.handle(router, "POST", "/categories", s.createCategory, rbac.CodeAddCategory)
	s.handle(router, "PUT", "/categories/{id}", s.updateCategory, rbac.CodeEditCategory)
	s.handle(router, "DELETE", "/categories/{id}", s.deleteCategory, rbac.CodeDeleteCategory)
	s.handle(router, "GET", "/categories/{id}/tags", s.categoryTags)
	s.handle(router, "PUT", "/categories/{id}/tags", s.addCategoryTags, rbac.CodeEditCategory, rbac.CodeEditTag)
	s.handle(router, "DELETE", "/categories/{id}/tags", s.removeCategoryTags, rbac.CodeEditCategory, rbac.CodeEditTag)
}

// parseCategoryFilter reads the list query parameters
func parseCategoryFilter(r *http.Request) (storage.CategoryFilter, error) {
	var filter storage.CategoryFilter
	var err error

	if filter.Page, err = httputil.QueryInt(r, "page", 1); err != nil {
		return filter, err
	}
	if filter.PageSize, err = httputil.QueryInt(r, "page_size", 20); err != nil {
		return filter, err
	}
	filter.SortBy = r.URL.Query().Get("sort_by")
	if filter.Desc, err = httputil.QueryBool(r, "desc", false); err != nil {
		return filter, err
	}
	if filter.ShowHidden, err = httputil.QueryBool(r, "show_hidden", false); err != nil {
		return filter, err
	}

	if name := r.URL.Query().Get("name"); name != "" {
		filter.Name = &name
	}
	if filter.BedsFrom, err = httputil.QueryIntPtr(r, "beds_from"); err != nil {
		return filter, err
	}
	if filter.BedsUntil, err = httputil.QueryIntPtr(r, "beds_until"); err != nil {
		return filter, err
	}
	if filter.FloorsFrom, err = httputil.QueryIntPtr(r, "floors_from"); err != nil {
		return filter, err
	}
	if filter.FloorsUntil, err = httputil.QueryIntPtr(r, "floors_until"); err != nil {
		return filter, err
	}
	if filter.SquareFrom, err = httputil.QueryFloatPtr(r, "square_from"); err != nil {
		return filter, err
	}
	if filter.SquareUntil, err = httputil.QueryFloatPtr(r, "square_until"); err != nil {
		return filter, err
	}
	if filter.PriceFrom, err = httputil.QueryFloatPtr(r, "price_from"); err != nil {
		return filter, err
	}
	if filter.PriceUntil, err = httputil.QueryFloatPtr(r, "price_until"); err != nil {
		return filter, err
	}
	if filter.RoomsFrom, err = httputil.QueryIntPtr(r, "rooms_from"); err != nil {
		return filter, err
	}
	if filter.RoomsUntil, err = httputil.QueryIntPtr(r, "rooms_until"); err != nil {
		return filter, err
	}

	return filter, nil
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	filter, err := parseCategoryFilter(r)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	items, total, err := s.store.FilterCategories(r.Context(), filter)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	httputil.WriteSuccess(w, categoryListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	category, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}
	httputil.WriteSuccess(w, category)
}

func (s *Server) familiarCategories(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if _, err := s.store.GetCategory(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}

	familiar, err := s.store.FamiliarCategories(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, familiar)
}

// createCategory accepts a multipart form: the category fields plus a
// mandatory "photo" file used as the main photo
func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	category := &storage.Category{Description: r.FormValue("description")}
	var err error
	if category.Name, err = formValue(r, "name"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if category.Price, err = formFloat(r, "price"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if category.PrepaymentPercent, err = formFloat(r, "prepayment_percent"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if category.RefundPercent, err = formFloat(r, "refund_percent"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if category.RoomsCount, err = formInt(r, "rooms_count"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if category.Floors, err = formInt(r, "floors"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if category.Beds, err = formInt(r, "beds"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if category.Square, err = formFloat(r, "square"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if hidden, err := formBoolPtr(r, "is_hidden"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	} else if hidden != nil {
		category.IsHidden = *hidden
	}

	path, err := s.requireUpload(r, "photo")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	category.MainPhotoPath = path

	if err := s.store.CreateCategory(r.Context(), category); err != nil {
		s.removeUploadQuietly(path)
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, category)
}

// updateCategory accepts a multipart form where every field is optional; a
// "photo" file, when present, replaces the main photo
func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := parseMultipart(r); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	category, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}

	update := categoryUpdate{
		Name:        formStringPtr(r, "name"),
		Description: formStringPtr(r, "description"),
	}
	if update.Price, err = formFloatPtr(r, "price"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.PrepaymentPercent, err = formFloatPtr(r, "prepayment_percent"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.RefundPercent, err = formFloatPtr(r, "refund_percent"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.RoomsCount, err = formIntPtr(r, "rooms_count"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.Floors, err = formIntPtr(r, "floors"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.Beds, err = formIntPtr(r, "beds"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.Square, err = formFloatPtr(r, "square"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.IsHidden, err = formBoolPtr(r, "is_hidden"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	oldPhoto := category.MainPhotoPath
	newPhoto, err := s.saveUpload(r, "photo")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if newPhoto != "" {
		update.MainPhotoPath = &newPhoto
	}

	update.Apply(category)
	if err := s.store.UpdateCategory(r.Context(), category); err != nil {
		if newPhoto != "" {
			s.removeUploadQuietly(newPhoto)
		}
		s.writeStoreError(w, err, "category not found")
		return
	}
	if newPhoto != "" && oldPhoto != "" {
		s.removeUploadQuietly(oldPhoto)
	}
	httputil.WriteSuccess(w, category)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) categoryTags(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if _, err := s.store.GetCategory(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}

	tags, err := s.store.TagsOfCategory(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, tags)
}

func (s *Server) addCategoryTags(w http.ResponseWriter, r *http.Request) {
	s.modifyCategoryTags(w, r, s.store.AddTagToCategory)
}

func (s *Server) removeCategoryTags(w http.ResponseWriter, r *http.Request) {
	s.modifyCategoryTags(w, r, s.store.RemoveTagFromCategory)
}

// modifyCategoryTags applies a link or unlink operation for every tag in the
// request body, then returns the resulting tag list
func (s *Server) modifyCategoryTags(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, categoryID, tagID int64) error) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req categoryTagsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if len(req.TagIDs) == 0 {
		httputil.WriteValidationError(w, "tag_ids is required")
		return
	}

	if _, err := s.store.GetCategory(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}
	for _, tagID := range req.TagIDs {
		if _, err := s.store.GetTag(r.Context(), tagID); err != nil {
			s.writeStoreError(w, err, "tag not found")
			return
		}
	}

	for _, tagID := range req.TagIDs {
		if err := op(r.Context(), id, tagID); err != nil {
			s.writeStoreError(w, err, "tag not linked to category")
			return
		}
	}

	tags, err := s.store.TagsOfCategory(r.Context(), id)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, tags)
}

// removeUploadQuietly deletes a stored file, logging instead of failing
func (s *Server) removeUploadQuietly(path string) {
	if path == "" {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("failed to remove stored file")
	}
}
