package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler maps anything a handler returned but did not translate
// itself into the JSON envelope. Internal details are logged, never sent,
// unless the service runs in dev mode. Errors carrying known storage-quota
// signatures map to 503 so clients treat them like a tripped admission
// guard rather than a bug.
func HTTPErrorHandler(dev bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal error"

		if he, isHTTP := err.(*echo.HTTPError); isHTTP {
			status = he.Code
			if s, isStr := he.Message.(string); isStr {
				msg = s
			} else {
				msg = http.StatusText(status)
			}
		} else if isQuotaSignature(err) {
			status = http.StatusServiceUnavailable
			msg = "storage quota exhausted, try again after the daily reset"
		}

		if status >= http.StatusInternalServerError {
			log.Printf("%s %s -> %d: %v", c.Request().Method, c.Request().URL.Path, status, err)
			if dev {
				msg = err.Error()
			}
		}
		_ = c.JSON(status, echo.Map{"ok": false, "error": msg})
	}
}

// isQuotaSignature recognizes the error strings hosted MySQL tiers emit
// when the account's storage or operation quota is exhausted.
func isQuotaSignature(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "max_questions") ||
		strings.Contains(s, "max_user_connections") ||
		strings.Contains(s, "quota exceeded")
}
