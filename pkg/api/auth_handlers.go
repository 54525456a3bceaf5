package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelier/backoffice/pkg/auth"
	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/notify"
	"github.com/hotelier/backoffice/pkg/storage"
)

func (s *Server) registerAuthRoutes(router *mux.Router) {
	s.handlePublic(router, "POST", "/auth/login",
		s.limiter.Middleware(http.HandlerFunc(s.login)))
	s.handlePublic(router, "POST", "/auth/refresh_user_token", http.HandlerFunc(s.refreshToken))
	s.handlePublic(router, "POST", "/auth/sign_up", http.HandlerFunc(s.signUp))
	s.handlePublic(router, "POST", "/auth/confirm_sign_up/{token}", http.HandlerFunc(s.confirmSignUp))
	s.handlePublic(router, "POST", "/auth/request_reset", http.HandlerFunc(s.requestReset))
	s.handlePublic(router, "POST", "/auth/reset_password/{token}", http.HandlerFunc(s.resetPassword))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	user, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAuthentication) {
			s.countLogin("failure")
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.WriteUnauthorized(w, auth.ErrAuthentication.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	pair, err := s.auth.GenerateAuthTokens(user.ID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	s.countLogin("success")
	httputil.WriteSuccess(w, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	pair, err := s.auth.RefreshAuthTokens(req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrAuthentication) {
			s.countRefresh("failure")
			httputil.WriteUnauthorized(w, auth.ErrAuthentication.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	s.countRefresh("success")
	httputil.WriteSuccess(w, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteValidationError(w, err.Error())
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

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
	link := s.confirmSignUpLink(token)
	s.sendConfirmationMail(user.Email, link)
	httputil.WriteCreated(w, signUpResponse{User: user, ConfirmLink: link})
}

func (s *Server) confirmSignUp(w http.ResponseWriter, r *http.Request) {
	token, err := httputil.PathString(r, "token")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if err := s.auth.ConfirmAccount(r.Context(), token); err != nil {
		// An unknown and a consumed token read the same: 401
		if errors.Is(err, auth.ErrTokenNotFound) {
			httputil.WriteUnauthorized(w, auth.ErrTokenNotFound.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, detailResponse{Detail: "account confirmed"})
}

func (s *Server) requestReset(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	user, token, err := s.auth.RequestReset(r.Context(), req.Email)
	if err != nil {
		// The 400 on unknown email is part of the public contract even
		// though it reveals registration status
		if errors.Is(err, auth.ErrUnknownEmail) {
			httputil.WriteValidationError(w, auth.ErrUnknownEmail.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	link := s.resetPasswordLink(token)
	s.sendResetMail(user.Email, link)
	httputil.WriteSuccess(w, confirmLinkResponse{Detail: "reset link sent", ConfirmLink: link})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	token, err := httputil.PathString(r, "token")
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	var req resetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	if len(req.Password) < 8 {
		httputil.WriteValidationError(w, "password must be at least 8 characters")
		return
	}

	if err := s.auth.ConfirmReset(r.Context(), token, req.Password); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			s.countReset("failure")
			httputil.WriteUnauthorized(w, auth.ErrTokenNotFound.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	s.countReset("success")
	httputil.WriteSuccess(w, detailResponse{Detail: "password updated"})
}

// confirmSignUpLink builds the confirmation URL returned to the caller and
// mailed to the account owner
func (s *Server) confirmSignUpLink(token *storage.OneTimeToken) string {
	return fmt.Sprintf("%s/auth/confirm_sign_up/%s", s.publicURL, token.Value)
}

func (s *Server) resetPasswordLink(token *storage.OneTimeToken) string {
	return fmt.Sprintf("%s/auth/reset_password/%s", s.publicURL, token.Value)
}

func (s *Server) sendConfirmationMail(email, link string) {
	if s.mailer == nil {
		return
	}
	s.mailer.Dispatch(notify.RegistrationMessage(email, link))
}

func (s *Server) sendResetMail(email, link string) {
	if s.mailer == nil {
		return
	}
	s.mailer.Dispatch(notify.PasswordResetMessage(email, link))
}

func (s *Server) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countRefresh(outcome string) {
	if s.metrics != nil {
		s.metrics.TokenRefreshTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countReset(outcome string) {
	if s.metrics != nil {
		s.metrics.PasswordResetsTotal.WithLabelValues(outcome).Inc()
	}
}
