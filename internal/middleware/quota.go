package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/queue"
	"github.com/gridbase/gridbase/internal/quota"
	audit "github.com/gridbase/gridbase/internal/service"
)

// QuotaGuard counts every inbound request against the platform's daily
// request ceiling before any handler runs. Once the ceiling is reached the
// API answers 503 until the counters roll over at UTC midnight.
//
// Opposite of the rate limiter, this guard fails CLOSED: if the counter
// store cannot be observed, the request is rejected. Blind spending against
// a hard external quota is the one failure mode this subsystem must never
// allow.
func QuotaGuard(tracker *quota.Tracker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := tracker.TrackUsage(c.Request().Context(), quota.MetricRequests, 1)
			if err != nil {
				log.Printf("quota: usage store unreachable, refusing request: %v", err)
				ok = false
			}
			if !ok {
				audit.Publish(queue.AuditEvent{Kind: queue.EventQuotaExceeded, IP: c.RealIP(), Detail: quota.MetricRequests})
				resetAt := tracker.NextReset().Format("2006-01-02T15:04:05Z")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{
					"ok":    false,
					"error": "daily platform quota reached, service resumes at " + resetAt + " (UTC midnight)",
				})
			}
			return next(c)
		}
	}
}
