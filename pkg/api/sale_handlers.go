package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerSaleRoutes(router *mux.Router) {
	s.handle(router, "GET", "/sales", s.listSales)
	s.handle(router, "GET", "/sales/{id}", s.getSale)
	s.handle(router, "POST", "/sales", s.createSale, rbac.CodeCreateSale)
	s.handle(router, "PATCH", "/sales/{id}", s.updateSale, rbac.CodeEditSale)
	s.handle(router, "DELETE", "/sales/{id}", s.deleteSale, rbac.CodeDeleteSale)
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.store.ListSales(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, sales)
}

func (s *Server) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	sale, err := s.store.GetSale(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "sale not found")
		return
	}
	httputil.WriteSuccess(w, sale)
}

// createSale accepts a multipart form: name, description, discount,
// start_date, end_date (RFC 3339 or YYYY-MM-DD) and an "image" upload
func (s *Server) createSale(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(r); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	sale := &storage.Sale{Description: r.FormValue("description")}
	var err error
	if sale.Name, err = formValue(r, "name"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if sale.Discount, err = formFloat(r, "discount"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := validateDiscount(sale.Discount); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if sale.StartDate, err = formDate(r, "start_date"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if sale.EndDate, err = formDate(r, "end_date"); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if !sale.EndDate.After(sale.StartDate) {
		httputil.WriteValidationError(w, "end_date must be after start_date")
		return
	}

	path, err := s.requireUpload(r, "image")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	sale.ImagePath = path

	if err := s.store.CreateSale(r.Context(), sale); err != nil {
		s.removeUploadQuietly(path)
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteCreated(w, sale)
}

func (s *Server) updateSale(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var update saleUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if update.Discount != nil {
		if err := validateDiscount(*update.Discount); err != nil {
			httputil.WriteValidationError(w, err.Error())
			return
		}
	}

	sale, err := s.store.GetSale(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "sale not found")
		return
	}

	update.Apply(sale)
	if !sale.EndDate.After(sale.StartDate) {
		httputil.WriteValidationError(w, "end_date must be after start_date")
		return
	}

	if err := s.store.UpdateSale(r.Context(), sale); err != nil {
		s.writeStoreError(w, err, "sale not found")
		return
	}
	httputil.WriteSuccess(w, sale)
}

func (s *Server) deleteSale(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	sale, err := s.store.GetSale(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "sale not found")
		return
	}

	if err := s.store.DeleteSale(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "sale not found")
		return
	}
	s.removeUploadQuietly(sale.ImagePath)
	httputil.WriteNoContent(w)
}

// formDate parses a required date form field, accepting RFC 3339 timestamps
// and plain dates
func formDate(r *http.Request, name string) (time.Time, error) {
	raw, err := formValue(r, name)
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return parseDate(raw)
}
