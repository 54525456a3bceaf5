package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerRoomRoutes(router *mux.Router) {
	s.handle(router, "GET", "/rooms", s.listRooms)
	s.handle(router, "GET", "/rooms/{id}", s.getRoom)
	s.handle(router, "POST", "/rooms", s.createRoom, rbac.CodeAddRoom)
	s.handle(router, "PUT", "/rooms/{id}", s.updateRoom, rbac.CodeEditRoom)
	s.handle(router, "DELETE", "/rooms/{id}", s.deleteRoom, rbac.CodeDeleteRoom)
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.store.ListRooms(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, rooms)
}

func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	room, err := s.store.GetRoom(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "room not found")
		return
	}
	httputil.WriteSuccess(w, room)
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	// The category must exist and be live
	if _, err := s.store.GetCategory(r.Context(), req.CategoryID); err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}

	room := &storage.Room{RoomNumber: req.RoomNumber, CategoryID: req.CategoryID}
	if err := s.store.CreateRoom(r.Context(), room); err != nil {
		s.writeStoreError(w, err, "room not found")
		return
	}
	httputil.WriteCreated(w, room)
}

func (s *Server) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req roomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if _, err := s.store.GetCategory(r.Context(), req.CategoryID); err != nil {
		s.writeStoreError(w, err, "category not found")
		return
	}

	room := &storage.Room{ID: id, RoomNumber: req.RoomNumber, CategoryID: req.CategoryID}
	if err := s.store.UpdateRoom(r.Context(), room); err != nil {
		s.writeStoreError(w, err, "room not found")
		return
	}
	httputil.WriteSuccess(w, room)
}

func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.store.DeleteRoom(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "room not found")
		return
	}
	httputil.WriteNoContent(w)
}
