package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Every JSON body on the API uses the same envelope:
// { ok: bool, data?, error?, errors?: [{field, message}] }.

// FieldError is one validation failure, specific enough for the client to
// fix the input. Security-sensitive failures never get this treatment.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"ok": true, "data": data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"ok": false, "error": msg})
}

func failValidation(c echo.Context, errs []FieldError) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "validation failed", "errors": errs})
}

// notFound is the anti-enumeration response: identical whether the resource
// is absent or merely invisible to the caller.
func notFound(c echo.Context) error {
	return fail(c, http.StatusNotFound, "not found")
}
