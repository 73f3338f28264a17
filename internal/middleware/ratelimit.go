package middleware

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/config"
	"github.com/gridbase/gridbase/internal/counter"
)

// RateLimit returns a fixed-window throttle keyed by client network
// identity and the policy's scope. The counter lives in the shared store;
// the first increment of a window creates the key with the window as TTL,
// later increments ride the same key until it expires.
//
// This gate protects against a single noisy client, not aggregate platform
// cost, so it fails OPEN: a store error lets the request through. The quota
// guard has the opposite default; the two must not be conflated.
func RateLimit(policy config.RateLimitPolicy, store counter.Store) echo.MiddlewareFunc {
	if !policy.Enabled || store == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			key := policy.Prefix + ":" + policy.Scope + ":" + ip
			ctx := c.Request().Context()

			count, err := store.IncrWindow(ctx, key, 1, policy.Window)
			if err != nil {
				log.Printf("ratelimit: store error for key=%s: %v", key, err)
				return next(c)
			}

			remaining := policy.Max - count
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.FormatInt(policy.Max, 10))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > policy.Max {
				retry := retryAfterSeconds(ctx, store, key, policy.Window)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"ok":    false,
					"error": "rate limit exceeded, slow down",
				})
			}
			return next(c)
		}
	}
}

// retryAfterSeconds advertises the remainder of the current window, rounded
// up. A store error here just falls back to the full window; the request is
// already rejected either way.
func retryAfterSeconds(ctx context.Context, store counter.Store, key string, window time.Duration) int {
	left, err := store.TTL(ctx, key)
	if err != nil || left <= 0 {
		left = window
	}
	return int(math.Ceil(left.Seconds()))
}
