package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/quota"
)

// Bases and tables hang off the workspace tree; every route here derives
// access by resolving up to the owning workspace.

type baseResp struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

type tableResp struct {
	ID        string    `json:"id"`
	BaseID    string    `json:"base_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBase adds a base to a workspace; needs a writing membership role.
func (h *WorkspaceHandler) CreateBase(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return failValidation(c, []FieldError{{Field: "name", Message: "name is required"}})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Memberships.ResolveWorkspaceAccess(ctx, ident.User.ID, c.Param("id"))
	if err != nil {
		return err
	}
	if access == nil {
		return notFound(c)
	}
	if !auth.CanWrite(access.Role) {
		return fail(c, http.StatusForbidden, "write access required")
	}
	if !h.admitUsage(c, quota.MetricWrites, 1) {
		return nil
	}
	b, err := h.Bases.Create(ctx, access.WorkspaceID, req.Name)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, baseResp{ID: b.ID, WorkspaceID: b.WorkspaceID, Name: b.Name, CreatedAt: b.CreatedAt})
}

// ListBases lists a workspace's bases to its members.
func (h *WorkspaceHandler) ListBases(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	if !h.admitUsage(c, quota.MetricReads, 1) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Memberships.ResolveWorkspaceAccess(ctx, ident.User.ID, c.Param("id"))
	if err != nil {
		return err
	}
	if access == nil {
		return notFound(c)
	}
	bases, err := h.Bases.ListByWorkspace(ctx, access.WorkspaceID)
	if err != nil {
		return err
	}
	out := make([]baseResp, 0, len(bases))
	for _, b := range bases {
		out = append(out, baseResp{ID: b.ID, WorkspaceID: b.WorkspaceID, Name: b.Name, CreatedAt: b.CreatedAt})
	}
	return ok(c, http.StatusOK, out)
}

// CreateTable adds a table to a base; access is resolved base -> workspace.
func (h *WorkspaceHandler) CreateTable(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return failValidation(c, []FieldError{{Field: "name", Message: "name is required"}})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Memberships.ResolveBaseAccess(ctx, ident.User.ID, c.Param("id"))
	if err != nil {
		return err
	}
	if access == nil {
		return notFound(c)
	}
	if !auth.CanWrite(access.Role) {
		return fail(c, http.StatusForbidden, "write access required")
	}
	if !h.admitUsage(c, quota.MetricWrites, 1) {
		return nil
	}
	t, err := h.Tables.Create(ctx, c.Param("id"), req.Name)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, tableResp{ID: t.ID, BaseID: t.BaseID, Name: t.Name, CreatedAt: t.CreatedAt})
}

// ListTables lists a base's tables to workspace members.
func (h *WorkspaceHandler) ListTables(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	if !h.admitUsage(c, quota.MetricReads, 1) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Memberships.ResolveBaseAccess(ctx, ident.User.ID, c.Param("id"))
	if err != nil {
		return err
	}
	if access == nil {
		return notFound(c)
	}
	tables, err := h.Tables.ListByBase(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]tableResp, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableResp{ID: t.ID, BaseID: t.BaseID, Name: t.Name, CreatedAt: t.CreatedAt})
	}
	return ok(c, http.StatusOK, out)
}

// GetTable returns a table to workspace members. Non-members get the same
// 404 a missing ID gets; this route is the canonical enumeration target.
func (h *WorkspaceHandler) GetTable(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	if !h.admitUsage(c, quota.MetricReads, 1) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Memberships.ResolveTableAccess(ctx, ident.User.ID, c.Param("id"))
	if err != nil {
		return err
	}
	if access == nil {
		return notFound(c)
	}
	t, err := h.Tables.GetByID(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, tableResp{ID: t.ID, BaseID: t.BaseID, Name: t.Name, CreatedAt: t.CreatedAt})
}
