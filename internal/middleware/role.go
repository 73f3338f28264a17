package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
)

// RequireRole enforces that the authenticated user's platform role is one of
// the allowed set. It assumes SessionAuth ran earlier on the chain. Admin
// endpoints sit behind this and deliberately answer a distinguishable 403;
// the anti-enumeration 404 contract applies only to membership-gated
// resources, not to platform-role checks.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := auth.CurrentIdentity(c)
			if !ok || !allowed[ident.User.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}
