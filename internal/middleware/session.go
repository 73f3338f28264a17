package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/repository"
	"github.com/gridbase/gridbase/internal/utils"
)

// SessionCookieName is the cookie carrying the raw session token.
const SessionCookieName = "session_token"

// One body for every authentication failure. Missing, malformed, unknown and
// expired tokens must be indistinguishable to the client.
const genericAuthError = "authentication required"

// SessionAuth validates the request's session token and attaches the
// resolved identity to the context. Token transport is the session cookie
// first, then an "Authorization: Bearer" header. Every request re-validates
// against the session store from scratch; there is no renewal window.
//
// A disabled account is the one case that answers 403 instead of the
// generic 401: suspension is not sensitive the way resource existence is.
func SessionAuth(sessions *repository.SessionRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": genericAuthError})
			}

			session, user, err := sessions.GetActiveByDigest(c.Request().Context(), utils.DigestToken(raw))
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": genericAuthError})
				}
				return err // storage fault, mapped by the error handler
			}
			if !user.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "error": "account disabled"})
			}

			auth.SetIdentity(c, auth.Identity{User: user, Session: session})
			return next(c)
		}
	}
}

// extractToken pulls the candidate token from the cookie or, failing that,
// the Authorization header. Callers never learn which transport failed.
func extractToken(c echo.Context) string {
	if ck, err := c.Cookie(SessionCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
