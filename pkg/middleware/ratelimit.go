package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hotelier/backoffice/pkg/httputil"
	"github.com/hotelier/backoffice/pkg/observability"
)

// LoginRateLimiter throttles login attempts per client IP using a Redis
// fixed window. Limits are shared across instances; on Redis errors the
// limiter fails open so an outage never locks everyone out.
type LoginRateLimiter struct {
	redis   *redis.Client
	limit   int
	window  time.Duration
	prefix  string
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewLoginRateLimiter creates a Redis-backed login rate limiter
func NewLoginRateLimiter(redisClient *redis.Client, limit int, window time.Duration, logger *observability.Logger, metrics *observability.Metrics) *LoginRateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LoginRateLimiter{
		redis:   redisClient,
		limit:   limit,
		window:  window,
		prefix:  "ratelimit:login",
		logger:  logger,
		metrics: metrics,
	}
}

// Allow checks whether another attempt from the key is within the limit
func (rl *LoginRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: a Redis outage must not block logins
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.limit), nil
}

// Reset clears the counter for a key
func (rl *LoginRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// Middleware rejects requests over the limit with 429. A nil limiter (redis
// not configured) is a pass-through.
func (rl *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil || rl.redis == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := rl.Allow(r.Context(), clientIP(r))
		if err != nil {
			rl.logger.WithError(err).Warn("rate limiter unavailable, allowing request")
		}
		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RateLimitedTotal.WithLabelValues(r.URL.Path).Inc()
			}
			httputil.WriteTooManyRequests(w, "too many login attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address, preferring X-Forwarded-For when a
// proxy set it
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
