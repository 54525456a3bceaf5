package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerClientRoutes(router *mux.Router) {
	s.handle(router, "GET", "/clients", s.listClients, rbac.CodeShowClient)
	s.handle(router, "GET", "/clients/{id}", s.getClient, rbac.CodeShowClient)
	s.handle(router, "POST", "/clients", s.createClient, rbac.CodeAddClient)
	s.handle(router, "PUT", "/clients/{id}", s.updateClient, rbac.CodeEditClient)
	s.handle(router, "DELETE", "/clients/{id}", s.deleteClient, rbac.CodeEditClient)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.store.ListUsers(r.Context(), storage.KindClient)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, clients)
}

// getUserOfKind loads a live user and checks it is the expected kind; a user
// of the other kind reads as not found
func (s *Server) getUserOfKind(r *http.Request, kind storage.UserKind) (*storage.User, error) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUserByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if user.Kind != kind {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.getUserOfKind(r, storage.KindClient)
	if err != nil {
		s.writeStoreError(w, err, "client not found")
		return
	}
	httputil.WriteSuccess(w, client)
}

// createClient registers a client on their behalf. Unlike sign-up the account
// still starts unconfirmed and the confirmation link is mailed out.
func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	var req clientCreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if req.Email == "" {
		httputil.WriteValidationError(w, "email is required")
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteValidationError(w, "password must be at least 8 characters")
		return
	}

	user := &storage.User{
		Kind:      storage.KindClient,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			httputil.WriteValidationError(w, fmt.Sprintf("invalid date_of_birth: %s", *req.DateOfBirth))
			return
		}
		user.DateOfBirth = &dob
	}

	token, err := s.auth.Register(r.Context(), user, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			httputil.WriteValidationError(w, auth.ErrEmailTaken.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	s.sendConfirmationMail(user.Email, s.confirmSignUpLink(token))
	httputil.WriteCreated(w, user)
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.getUserOfKind(r, storage.KindClient)
	if err != nil {
		s.writeStoreError(w, err, "client not found")
		return
	}

	var update clientUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := update.Apply(client); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.store.UpdateUser(r.Context(), client); err != nil {
		s.writeStoreError(w, err, "client not found")
		return
	}
	httputil.WriteSuccess(w, client)
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.getUserOfKind(r, storage.KindClient)
	if err != nil {
		s.writeStoreError(w, err, "client not found")
		return
	}

	if err := s.store.DeleteUser(r.Context(), client.ID); err != nil {
		s.writeStoreError(w, err, "client not found")
		return
	}
	httputil.WriteNoContent(w)
}
