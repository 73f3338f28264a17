package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/quota"
	"github.com/gridbase/gridbase/internal/repository"
)

// admitUsage charges n units of metric against the daily quota. When the
// budget is exhausted, or the usage store cannot be observed (fail closed),
// it writes the 503 itself and returns false so the handler stops.
func (h *WorkspaceHandler) admitUsage(c echo.Context, metric string, n int64) bool {
	allowed, err := h.Quota.TrackUsage(c.Request().Context(), metric, n)
	if err != nil {
		log.Printf("quota: usage store unreachable, refusing %s: %v", metric, err)
		allowed = false
	}
	if !allowed {
		resetAt := h.Quota.NextReset().Format("2006-01-02T15:04:05Z")
		_ = c.JSON(http.StatusServiceUnavailable, echo.Map{
			"ok":    false,
			"error": "daily platform quota reached, service resumes at " + resetAt + " (UTC midnight)",
		})
		return false
	}
	return true
}

type recordResp struct {
	ID        string          `json:"id"`
	TableID   string          `json:"table_id"`
	Fields    json.RawMessage `json:"fields"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toRecordResp(r repository.Record) recordResp {
	return recordResp{ID: r.ID, TableID: r.TableID, Fields: r.Fields, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

// CreateRecord inserts a record into a table; needs a writing role on the
// owning workspace.
func (h *WorkspaceHandler) CreateRecord(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if len(req.Fields) == 0 {
		return failValidation(c, []FieldError{{Field: "fields", Message: "fields object is required"}})
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
	if !auth.CanWrite(access.Role) {
		return fail(c, http.StatusForbidden, "write access required")
	}
	if !h.admitUsage(c, quota.MetricWrites, 1) {
		return nil
	}
	rec, err := h.Records.Create(ctx, c.Param("id"), req.Fields)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, toRecordResp(rec))
}

// ListRecords returns a table's records to workspace members.
func (h *WorkspaceHandler) ListRecords(c echo.Context) error {
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
	records, err := h.Records.ListByTable(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]recordResp, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResp(r))
	}
	return ok(c, http.StatusOK, out)
}

// resolveRecord loads a record and resolves the caller's access on its
// owning table. Both a missing record and a record behind a foreign
// workspace come back as (zero, nil, false) and must answer 404.
func (h *WorkspaceHandler) resolveRecord(c echo.Context, userID string) (repository.Record, *repository.Access, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Records.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Record{}, nil, nil
	}
	if err != nil {
		return repository.Record{}, nil, err
	}
	access, err := h.Memberships.ResolveTableAccess(ctx, userID, rec.TableID)
	if err != nil {
		return repository.Record{}, nil, err
	}
	return rec, access, nil
}

// GetRecord returns one record to workspace members.
func (h *WorkspaceHandler) GetRecord(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	if !h.admitUsage(c, quota.MetricReads, 1) {
		return nil
	}
	rec, access, err := h.resolveRecord(c, ident.User.ID)
	if err != nil {
		return err
	}
	if access == nil {
		return notFound(c)
	}
	return ok(c, http.StatusOK, toRecordResp(rec))
}

// UpdateRecord replaces a record's fields; needs a writing role.
func (h *WorkspaceHandler) UpdateRecord(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	var req struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if len(req.Fields) == 0 {
		return failValidation(c, []FieldError{{Field: "fields", Message: "fields object is required"}})
	}

	rec, access, err := h.resolveRecord(c, ident.User.ID)
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
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Records.Update(ctx, rec.ID, req.Fields); err != nil {
		return err
	}
	rec.Fields = req.Fields
	rec.UpdatedAt = time.Now().UTC()
	return ok(c, http.StatusOK, toRecordResp(rec))
}

// DeleteRecord removes a record; needs a writing role.
func (h *WorkspaceHandler) DeleteRecord(c echo.Context) error {
	ident, err := identity(c)
	if err != nil {
		return err
	}
	rec, access, err := h.resolveRecord(c, ident.User.ID)
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
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Records.Delete(ctx, rec.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
