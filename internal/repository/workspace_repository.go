package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gridbase/gridbase/internal/utils"
)

// Workspace is the root of the ownership tree: workspaces own bases, bases
// own tables. Authorization for everything below hangs off workspace
// membership.
type Workspace struct {
	ID        string
	Name      string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WorkspaceRepo struct{ DB *sql.DB }

func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo { return &WorkspaceRepo{DB: db} }

// Create inserts the workspace and its creator's owner membership in one
// transaction, so a workspace can never exist without exactly one owner.
func (r *WorkspaceRepo) Create(ctx context.Context, name, creatorID string) (Workspace, error) {
	id, err := utils.NewID(utils.IDPrefixWorkspace)
	if err != nil {
		return Workspace{}, err
	}
	now := time.Now().UTC()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Workspace{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO workspaces (id, name, created_by, created_at, updated_at) VALUES (?,?,?,?,?)",
		id, name, creatorID, now, now); err != nil {
		return Workspace{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO memberships (workspace_id, user_id, role, created_at) VALUES (?,?,?,?)",
		id, creatorID, "owner", now); err != nil {
		return Workspace{}, err
	}
	if err := tx.Commit(); err != nil {
		return Workspace{}, err
	}
	return Workspace{ID: id, Name: name, CreatedBy: creatorID, CreatedAt: now, UpdatedAt: now}, nil
}

// GetByID fetches a workspace regardless of caller; access checks belong to
// the resolver, not here.
func (r *WorkspaceRepo) GetByID(ctx context.Context, id string) (Workspace, error) {
	var w Workspace
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at, updated_at FROM workspaces WHERE id=? LIMIT 1", id).
		Scan(&w.ID, &w.Name, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Workspace{}, ErrNotFound
	}
	return w, err
}

// ListForUser returns the workspaces the user is a member of, with the
// membership role alongside each.
func (r *WorkspaceRepo) ListForUser(ctx context.Context, userID string) ([]WorkspaceWithRole, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT w.id, w.name, w.created_by, w.created_at, w.updated_at, m.role
		 FROM workspaces w
		 JOIN memberships m ON m.workspace_id = w.id
		 WHERE m.user_id=?
		 ORDER BY w.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkspaceWithRole
	for rows.Next() {
		var wr WorkspaceWithRole
		if err := rows.Scan(&wr.ID, &wr.Name, &wr.CreatedBy, &wr.CreatedAt, &wr.UpdatedAt, &wr.Role); err != nil {
			return nil, err
		}
		out = append(out, wr)
	}
	return out, rows.Err()
}

// WorkspaceWithRole is a workspace row joined with the caller's membership.
type WorkspaceWithRole struct {
	Workspace
	Role string
}

// Delete removes the workspace and, through ON DELETE CASCADE, everything
// under it. Callers must have resolved owner access first.
func (r *WorkspaceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM workspaces WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
