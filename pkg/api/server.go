// Package api exposes the back-office HTTP surface: authentication flows and
// CRUD over rooms, categories, tags, photos, sales, clients, workers, groups
// and permissions.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/middleware"
	"github.com/hotelier/backoffice/pkg/notify"
	"github.com/hotelier/backoffice/pkg/observability"
	"github.com/hotelier/backoffice/pkg/rbac"
	"github.com/hotelier/backoffice/pkg/storage"
)

// Server wires handlers, stores and middleware into a router
type Server struct {
	store   storage.Store
	files   storage.FileStore
	auth    *auth.Service
	checker *rbac.Checker
	authn   *middleware.Authenticator
	limiter *middleware.LoginRateLimiter
	mailer  *notify.AsyncSender
	logger  *observability.Logger
	metrics *observability.Metrics

	// publicURL is the base for links embedded in outgoing mail
	publicURL string
}

// Config collects the server dependencies
type Config struct {
	Store         storage.Store
	Files         storage.FileStore
	AuthService   *auth.Service
	Checker       *rbac.Checker
	Authenticator *middleware.Authenticator
	LoginLimiter  *middleware.LoginRateLimiter
	Mailer        *notify.AsyncSender
	Logger        *observability.Logger
	Metrics       *observability.Metrics
	PublicURL     string
}

// NewServer creates the API server
func NewServer(cfg Config) *Server {
	return &Server{
		store:     cfg.Store,
		files:     cfg.Files,
		auth:      cfg.AuthService,
		checker:   cfg.Checker,
		authn:     cfg.Authenticator,
		limiter:   cfg.LoginLimiter,
		mailer:    cfg.Mailer,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		publicURL: cfg.PublicURL,
	}
}

// Router assembles the full route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(
		mux.MiddlewareFunc(httputil.RequestIDMiddleware),
		mux.MiddlewareFunc(httputil.LoggingMiddleware(s.logger)),
		mux.MiddlewareFunc(httputil.RecoveryMiddleware(s.logger)),
	)

	// Public auth flows; login is rate limited per client IP
	s.registerAuthRoutes(router)

	// Everything else requires a valid access token
	protected := router.NewRoute().Subrouter()
	protected.Use(mux.MiddlewareFunc(s.authn.Middleware))

	s.registerTagRoutes(protected)
	s.registerRoomRoutes(protected)
	s.registerCategoryRoutes(protected)
	s.registerPhotoRoutes(protected)
	s.registerSaleRoutes(protected)
	s.registerClientRoutes(protected)
	s.registerWorkerRoutes(protected)
	s.registerGroupRoutes(protected)
	s.registerPermissionRoutes(protected)

	return router
}

// handle registers a permission-guarded, instrumented route. No codes means
// any authenticated user.
func (s *Server) handle(router *mux.Router, method, path string, handler http.HandlerFunc, codes ...string) {
	h := s.checker.Require(codes...)(handler)
	router.Handle(path, s.instrumented(path, h)).Methods(method)
}

// handlePublic registers an unauthenticated, instrumented route
func (s *Server) handlePublic(router *mux.Router, method, path string, handler http.Handler) {
	router.Handle(path, s.instrumented(path, handler)).Methods(method)
}

// instrumented wraps a handler with request metrics under the route template
func (s *Server) instrumented(path string, handler http.Handler) http.Handler {
	if s.metrics == nil {
		return handler
	}
	return s.metrics.InstrumentHandler(path, handler)
}
