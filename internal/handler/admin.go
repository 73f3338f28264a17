package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/queue"
	"github.com/gridbase/gridbase/internal/quota"
	"github.com/gridbase/gridbase/internal/repository"
	audit "github.com/gridbase/gridbase/internal/service"
)

// AdminHandler serves the platform-admin surface. Its routes sit behind
// RequireRole("admin"), which answers a plain 403: unlike workspace
// resources, the existence of these endpoints is not a secret.
type AdminHandler struct {
	Users *repository.UserRepo
	Quota *quota.Tracker
}

func NewAdminHandler(u *repository.UserRepo, q *quota.Tracker) *AdminHandler {
	return &AdminHandler{Users: u, Quota: q}
}

// ListUsers returns every account on the platform.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return err
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return ok(c, http.StatusOK, out)
}

// SetUserRole changes a user's platform role.
func (h *AdminHandler) SetUserRole(c echo.Context) error {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	switch req.Role {
	case auth.RoleAdmin, auth.RoleUser, auth.RoleViewer:
	default:
		return failValidation(c, []FieldError{{Field: "role", Message: "role must be admin, user or viewer"}})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.Users.SetRole(ctx, c.Param("id"), req.Role)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"id": c.Param("id"), "role": req.Role})
}

// SetUserActive flips the account's active flag. Disabled accounts keep
// their session rows but fail the auth gate with 403 on the next request.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return failValidation(c, []FieldError{{Field: "active", Message: "active must be true or false"}})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.Users.SetActive(ctx, c.Param("id"), *req.Active)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c)
	}
	if err != nil {
		return err
	}
	if !*req.Active {
		audit.Publish(queue.AuditEvent{Kind: queue.EventAccountDisabled, UserID: c.Param("id"), IP: c.RealIP()})
	}
	return ok(c, http.StatusOK, echo.Map{"id": c.Param("id"), "active": *req.Active})
}

// UsageReport exposes the quota tracker's read-only view of today's
// counters for dashboards. It inspects without incrementing.
func (h *AdminHandler) UsageReport(c echo.Context) error {
	rep, err := h.Quota.CheckLimits(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, rep)
}
