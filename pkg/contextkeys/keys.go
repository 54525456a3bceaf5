// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/hotelier/backoffice/pkg/storage"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// UserKey contains the authenticated *storage.User
	// Set by: middleware.Authenticator (pkg/middleware/auth.go)
	// Required by: All protected API endpoints, RBAC middleware
	UserKey Key = "auth_user"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: Logger, request log
	RequestIDKey Key = "request_id"
)

// WithUser adds the authenticated user to the context
func WithUser(ctx context.Context, user *storage.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// User retrieves the authenticated user from the context, or nil
func User(ctx context.Context) *storage.User {
	if user, ok := ctx.Value(UserKey).(*storage.User); ok {
		return user
	}
	return nil
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID retrieves the request ID from the context, or ""
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
