package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Membership is the sole authorization fact: an edge from (workspace, user)
// to a role. Access to bases and tables is derived by walking up the
// ownership chain to the workspace and reading this edge.
type Membership struct {
	WorkspaceID string
	UserID      string
	Role        string
	CreatedAt   time.Time
}

// Access is the resolver's positive answer: the workspace that owns the
// requested resource and the caller's role in it.
type Access struct {
	WorkspaceID string
	Role        string
}

// MembershipRepo resolves and manages workspace membership. The Resolve*
// methods return (nil, nil) both when the resource does not exist and when
// the caller holds no membership for its workspace; callers for
// member-facing routes must answer 404 in both cases so that IDs cannot be
// enumerated by probing.
type MembershipRepo struct{ DB *sql.DB }

func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{DB: db} }

// The memberships table carries UNIQUE (workspace_id, user_id), so at most
// one row can match. The ORDER BY below is a deterministic tie-break kept in
// case the constraint is ever relaxed; owner sorts before editor and viewer.

// ResolveWorkspaceAccess checks the caller's membership in a workspace.
func (r *MembershipRepo) ResolveWorkspaceAccess(ctx context.Context, userID, workspaceID string) (*Access, error) {
	return r.resolve(ctx,
		`SELECT m.workspace_id, m.role
		 FROM memberships m
		 WHERE m.workspace_id=? AND m.user_id=?
		 ORDER BY m.role ASC LIMIT 1`,
		workspaceID, userID)
}

// ResolveBaseAccess walks base -> workspace -> membership in one join.
func (r *MembershipRepo) ResolveBaseAccess(ctx context.Context, userID, baseID string) (*Access, error) {
	return r.resolve(ctx,
		`SELECT m.workspace_id, m.role
		 FROM bases b
		 JOIN memberships m ON m.workspace_id = b.workspace_id AND m.user_id=?
		 WHERE b.id=?
		 ORDER BY m.role ASC LIMIT 1`,
		userID, baseID)
}

// ResolveTableAccess walks table -> base -> workspace -> membership in one
// join.
func (r *MembershipRepo) ResolveTableAccess(ctx context.Context, userID, tableID string) (*Access, error) {
	return r.resolve(ctx,
		`SELECT m.workspace_id, m.role
		 FROM tables t
		 JOIN bases b ON b.id = t.base_id
		 JOIN memberships m ON m.workspace_id = b.workspace_id AND m.user_id=?
		 WHERE t.id=?
		 ORDER BY m.role ASC LIMIT 1`,
		userID, tableID)
}

func (r *MembershipRepo) resolve(ctx context.Context, query string, args ...any) (*Access, error) {
	var a Access
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(&a.WorkspaceID, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert adds a member or changes an existing member's role.
func (r *MembershipRepo) Upsert(ctx context.Context, workspaceID, userID, role string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO memberships (workspace_id, user_id, role, created_at) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE role=VALUES(role)`,
		workspaceID, userID, role, time.Now().UTC())
	return err
}

// Remove deletes a membership edge. Removing the last owner is refused so a
// workspace never ends up ownerless; the owner rows are locked for the span
// of the transaction, so two concurrent removals of the last two owners
// cannot both pass the check.
func (r *MembershipRepo) Remove(ctx context.Context, workspaceID, userID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var role string
	err = tx.QueryRowContext(ctx,
		"SELECT role FROM memberships WHERE workspace_id=? AND user_id=? FOR UPDATE",
		workspaceID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if role == "owner" {
		var owners int
		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM memberships WHERE workspace_id=? AND role='owner' FOR UPDATE",
			workspaceID).Scan(&owners)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrConflict
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM memberships WHERE workspace_id=? AND user_id=?", workspaceID, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListMembers returns all membership edges of a workspace.
func (r *MembershipRepo) ListMembers(ctx context.Context, workspaceID string) ([]Membership, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT workspace_id, user_id, role, created_at FROM memberships WHERE workspace_id=? ORDER BY created_at ASC",
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
