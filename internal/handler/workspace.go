package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/queue"
	"github.com/gridbase/gridbase/internal/quota"
	"github.com/gridbase/gridbase/internal/repository"
	audit "github.com/gridbase/gridbase/internal/service"
)

// WorkspaceHandler bundles the repositories and the quota tracker for the
// workspace tree: workspaces, memberships, bases, tables, records.
//
// Every handler here resolves access BEFORE issuing any mutating statement,
// and translates a nil resolver result into 404 so non-members cannot tell
// an invisible resource from a missing one.
type WorkspaceHandler struct {
	Workspaces  *repository.WorkspaceRepo
	Bases       *repository.BaseRepo
	Tables      *repository.TableRepo
	Records     *repository.RecordRepo
	Memberships *repository.MembershipRepo
	Users       *repository.UserRepo
	Quota       *quota.Tracker
}

func NewWorkspaceHandler(w *repository.WorkspaceRepo, b *repository.BaseRepo, t *repository.TableRepo,
	rec *repository.RecordRepo, m *repository.MembershipRepo, u *repository.UserRepo, q *quota.Tracker) *WorkspaceHandler {
	if w == nil || b == nil || t == nil || rec == nil || m == nil || u == nil || q == nil {
		panic("nil dependency passed to NewWorkspaceHandler")
	}
	return &WorkspaceHandler{Workspaces: w, Bases: b, Tables: t, Records: rec, Memberships: m, Users: u, Quota: q}
}

// reqCtx bounds repository calls by the request deadline plus a hard cap.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// identity fetches the authenticated identity; routes are registered behind
// SessionAuth so absence means a wiring bug, answered as a plain 401.
func identity(c echo.Context) (auth.Identity, error) {
	ident, found := auth.CurrentIdentity(c)
	if !found {
		return auth.Identity{}, fail(c, http.StatusUnauthorized, "authentication required")
	}
	return ident, nil
}

// ----- workspaces -----

type workspaceResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateWorkspace creates a workspace with the caller as its sole owner,
// atomically.
func (h *WorkspaceHandler) CreateWorkspace(c echo.Context) error {
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
	if !h.admitUsage(c, quota.MetricWrites, 1) {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	w, err := h.Workspaces.Create(ctx, req.Name, ident.User.ID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, workspaceResp{ID: w.ID, Name: w.Name, Role: "owner", CreatedAt: w.CreatedAt})
}

// ListWorkspaces returns the caller's workspaces with their membership role.
func (h *WorkspaceHandler) ListWorkspaces(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	if !h.admitUsage(c, quota.MetricReads, 1) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Workspaces.ListForUser(ctx, ident.User.ID)
	if err != nil {
		return err
	}
	out := make([]workspaceResp, 0, len(list))
	for _, w := range list {
		out = append(out, workspaceResp{ID: w.ID, Name: w.Name, Role: w.Role, CreatedAt: w.CreatedAt})
	}
	return ok(c, http.StatusOK, out)
}

// GetWorkspace returns one workspace the caller is a member of; anyone else
// gets 404, member or not, workspace or not.
func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
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
	w, err := h.Workspaces.GetByID(ctx, access.WorkspaceID)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, workspaceResp{ID: w.ID, Name: w.Name, Role: access.Role, CreatedAt: w.CreatedAt})
}

// DeleteWorkspace removes a workspace and its whole subtree. Owner only;
// a member with a lesser role gets 403 (they can already see the workspace,
// existence is not a secret to them).
func (h *WorkspaceHandler) DeleteWorkspace(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
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
	if access.Role != auth.MemberOwner {
		return fail(c, http.StatusForbidden, "owner role required")
	}
	if !h.admitUsage(c, quota.MetricWrites, 1) {
		return nil
	}
	if err := h.Workspaces.Delete(ctx, access.WorkspaceID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- members -----

type memberResp struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ListMembers shows the membership edges of a workspace to its members.
func (h *WorkspaceHandler) ListMembers(c echo.Context) error {
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
	members, err := h.Memberships.ListMembers(ctx, access.WorkspaceID)
	if err != nil {
		return err
	}
	out := make([]memberResp, 0, len(members))
	for _, m := range members {
		out = append(out, memberResp{UserID: m.UserID, Role: m.Role, CreatedAt: m.CreatedAt})
	}
	return ok(c, http.StatusOK, out)
}

// UpsertMember adds a user to the workspace by email or changes their role.
// Owner only.
func (h *WorkspaceHandler) UpsertMember(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	var errs []FieldError
	if req.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	}
	switch req.Role {
	case auth.MemberOwner, auth.MemberEditor, auth.MemberViewer:
	default:
		errs = append(errs, FieldError{Field: "role", Message: "role must be owner, editor or viewer"})
	}
	if len(errs) > 0 {
		return failValidation(c, errs)
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
	if access.Role != auth.MemberOwner {
		return fail(c, http.StatusForbidden, "owner role required")
	}

	target, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return failValidation(c, []FieldError{{Field: "email", Message: "no account with this email"}})
		}
		return err
	}
	if !h.admitUsage(c, quota.MetricWrites, 1) {
		return nil
	}
	if err := h.Memberships.Upsert(ctx, access.WorkspaceID, target.ID, req.Role); err != nil {
		return err
	}

	audit.Publish(queue.AuditEvent{
		Kind: queue.EventMemberChanged, UserID: target.ID, Email: target.Email,
		IP: c.RealIP(), Detail: access.WorkspaceID + ":" + req.Role,
	})
	return ok(c, http.StatusOK, memberResp{UserID: target.ID, Role: req.Role, CreatedAt: time.Now().UTC()})
}

// RemoveMember deletes a membership edge. Owner only; removing the last
// owner answers 409 so a workspace never goes ownerless.
func (h *WorkspaceHandler) RemoveMember(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
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
	if access.Role != auth.MemberOwner {
		return fail(c, http.StatusForbidden, "owner role required")
	}
	if !h.admitUsage(c, quota.MetricWrites, 1) {
		return nil
	}
	err = h.Memberships.Remove(ctx, access.WorkspaceID, c.Param("userID"))
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c)
	}
	if errors.Is(err, repository.ErrConflict) {
		return fail(c, http.StatusConflict, "cannot remove the last owner")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
