package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gridbase/gridbase/internal/utils"
)

// Base groups tables inside a workspace.
type Base struct {
	ID          string
	WorkspaceID string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type BaseRepo struct{ DB *sql.DB }

func NewBaseRepo(db *sql.DB) *BaseRepo { return &BaseRepo{DB: db} }

// Create inserts a base under a workspace. Access to the workspace must
// already have been resolved by the caller.
func (r *BaseRepo) Create(ctx context.Context, workspaceID, name string) (Base, error) {
	id, err := utils.NewID(utils.IDPrefixBase)
	if err != nil {
		return Base{}, err
	}
	now := time.Now().UTC()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO bases (id, workspace_id, name, created_at, updated_at) VALUES (?,?,?,?,?)",
		id, workspaceID, name, now, now)
	if err != nil {
		return Base{}, err
	}
	return Base{ID: id, WorkspaceID: workspaceID, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// GetByID fetches a base without access filtering; resolvers decide
// visibility.
func (r *BaseRepo) GetByID(ctx context.Context, id string) (Base, error) {
	var b Base
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, workspace_id, name, created_at, updated_at FROM bases WHERE id=? LIMIT 1", id).
		Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Base{}, ErrNotFound
	}
	return b, err
}

// ListByWorkspace returns the bases of one workspace.
func (r *BaseRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]Base, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, workspace_id, name, created_at, updated_at FROM bases WHERE workspace_id=? ORDER BY created_at ASC",
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Base
	for rows.Next() {
		var b Base
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
