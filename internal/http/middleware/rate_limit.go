package middleware

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/NishanKutu/ghumfir-api/internal/http/response"
	"github.com/redis/go-redis/v9"
)

// RateLimiter applies a fixed-window request cap per client IP, backed
// by Redis so the count survives restarts and is shared between
// replicas.
type RateLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:   client,
		requests: requests,
		window:   window,
	}
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.client == nil {
				next.ServeHTTP(w, r)
				return
			}

			if !rl.allow(r) {
				response.RateLimit(w, "Too many requests. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(r *http.Request) bool {
	ip := getClientIP(r)
	if ip == "" {
		return true
	}

	// Hash the IP so raw addresses never land in Redis.
	key := fmt.Sprintf("ratelimit:%x", sha256.Sum256([]byte(ip)))
	ctx := r.Context()

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		// Fail open on Redis errors
		return true
	}
	if count == 1 {
		rl.client.Expire(ctx, key, rl.window)
	}
	return count <= int64(rl.requests)
}

// getClientIP extracts the real client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
