package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerWorkerRoutes(router *mux.Router) {
	s.handle(router, "GET", "/workers", s.listWorkers, rbac.CodeShowWorker)
	s.handle(router, "GET", "/workers/{id}", s.getWorker, rbac.CodeShowWorker)
	s.handle(router, "POST", "/workers", s.createWorker, rbac.CodeShowWorker)
	s.handle(router, "PUT", "/workers/{id}", s.updateWorker, rbac.CodeEditWorker)
	s.handle(router, "DELETE", "/workers/{id}", s.deleteWorker, rbac.CodeEditWorker)
}

func (s *Server) listWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := s.store.ListUsers(r.Context(), storage.KindWorker)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, workers)
}

func (s *Server) getWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := s.getUserOfKind(r, storage.KindWorker)
	if err != nil {
		s.writeStoreError(w, err, "worker not found")
		return
	}
	httputil.WriteSuccess(w, worker)
}

// createWorker registers a staff account. The initial password is random and
// never disclosed; the worker activates the account through the mailed
// confirmation link and then sets a password via the reset flow.
func (s *Server) createWorker(w http.ResponseWriter, r *http.Request) {
	var req workerCreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if req.Email == "" {
		httputil.WriteValidationError(w, "email is required")
		return
	}

	password, err := randomPassword()
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	user := &storage.User{
		Kind:        storage.KindWorker,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Salary:      req.Salary,
		IsSuperuser: req.IsSuperuser,
	}

	token, err := s.auth.Register(r.Context(), user, password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			httputil.WriteValidationError(w, auth.ErrEmailTaken.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	if len(req.GroupIDs) > 0 {
		if err := s.assignGroups(r, user.ID, req.GroupIDs); err != nil {
			s.writeStoreError(w, err, "group not found")
			return
		}
	}

	s.sendConfirmationMail(user.Email, s.confirmSignUpLink(token))
	httputil.WriteCreated(w, user)
}

func (s *Server) updateWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := s.getUserOfKind(r, storage.KindWorker)
	if err != nil {
		s.writeStoreError(w, err, "worker not found")
		return
	}

	var update workerUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	update.Apply(worker)
	if err := s.store.UpdateUser(r.Context(), worker); err != nil {
		s.writeStoreError(w, err, "worker not found")
		return
	}

	if update.GroupIDs != nil {
		if err := s.assignGroups(r, worker.ID, update.GroupIDs); err != nil {
			s.writeStoreError(w, err, "group not found")
			return
		}
	}
	httputil.WriteSuccess(w, worker)
}

func (s *Server) deleteWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := s.getUserOfKind(r, storage.KindWorker)
	if err != nil {
		s.writeStoreError(w, err, "worker not found")
		return
	}

	if err := s.store.DeleteUser(r.Context(), worker.ID); err != nil {
		s.writeStoreError(w, err, "worker not found")
		return
	}
	httputil.WriteNoContent(w)
}

// assignGroups validates each group then replaces the membership
func (s *Server) assignGroups(r *http.Request, userID int64, groupIDs []int64) error {
	for _, groupID := range groupIDs {
		if _, err := s.store.GetGroup(r.Context(), groupID); err != nil {
			return err
		}
	}
	return s.store.SetUserGroups(r.Context(), userID, groupIDs)
}

// randomPassword generates an unusable placeholder credential
func randomPassword() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
