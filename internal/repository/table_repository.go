package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gridbase/gridbase/internal/utils"
)

// Table is a leaf of the ownership tree: table -> base -> workspace.
type Table struct {
	ID        string
	BaseID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TableRepo struct{ DB *sql.DB }

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{DB: db} }

// Create inserts a table under a base.
func (r *TableRepo) Create(ctx context.Context, baseID, name string) (Table, error) {
	id, err := utils.NewID(utils.IDPrefixTable)
	if err != nil {
		return Table{}, err
	}
	now := time.Now().UTC()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO tables (id, base_id, name, created_at, updated_at) VALUES (?,?,?,?,?)",
		id, baseID, name, now, now)
	if err != nil {
		return Table{}, err
	}
	return Table{ID: id, BaseID: baseID, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// GetByID fetches a table without access filtering.
func (r *TableRepo) GetByID(ctx context.Context, id string) (Table, error) {
	var t Table
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, base_id, name, created_at, updated_at FROM tables WHERE id=? LIMIT 1", id).
		Scan(&t.ID, &t.BaseID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Table{}, ErrNotFound
	}
	return t, err
}

// ListByBase returns the tables of one base.
func (r *TableRepo) ListByBase(ctx context.Context, baseID string) ([]Table, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, base_id, name, created_at, updated_at FROM tables WHERE base_id=? ORDER BY created_at ASC",
		baseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.BaseID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
