package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness endpoint for load balancers and monitors. It sits in
// front of every gate on purpose: a tripped quota or rate limit must not
// make the service look dead.
func Health(c echo.Context) error {
	return ok(c, http.StatusOK, echo.Map{"status": "ok"})
}
