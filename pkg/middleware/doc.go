// Package middleware provides request authentication and login rate limiting.
package middleware
