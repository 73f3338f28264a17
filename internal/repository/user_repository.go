package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gridbase/gridbase/internal/utils"
)

// User mirrors the 'users' table.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,name,password_hash,role,is_active,created_at,updated_at"

// Create hashes the password and inserts the user. The very first account on
// the platform becomes admin; the role is decided inside the INSERT itself
// by counting over a derived table, not by a separate read. The locking read
// an INSERT ... SELECT takes on the source rows serializes concurrent first
// registrations, so exactly one of them can observe the empty table.
func (r *UserRepo) Create(ctx context.Context, email, name, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	id, err := utils.NewID(utils.IDPrefixUser)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, updated_at)
		 SELECT ?, ?, ?, ?, IF(n.existing = 0, 'admin', 'user'), ?, ?, ?
		 FROM (SELECT COUNT(*) AS existing FROM users) AS n`,
		id, email, name, hash, true, now, now); err != nil {
		if isDuplicateKey(err) {
			return User{}, ErrEmailExists
		}
		return User{}, err
	}

	// Read back which role the database assigned.
	var role string
	if err := r.DB.QueryRowContext(ctx, "SELECT role FROM users WHERE id=?", id).Scan(&role); err != nil {
		return User{}, err
	}

	return User{
		ID: id, Email: email, Name: name, PasswordHash: hash,
		Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users ordered by creation time. Admin surface only.
func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
			&u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetRole updates a user's platform role.
func (r *UserRepo) SetRole(ctx context.Context, id, role string) error {
	return r.update(ctx, "UPDATE users SET role=?, updated_at=? WHERE id=?", role, time.Now().UTC(), id)
}

// SetActive toggles the account's active flag. Disabled accounts keep their
// sessions but the auth gate rejects them with 403.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, "UPDATE users SET is_active=?, updated_at=? WHERE id=?", active, time.Now().UTC(), id)
}

// UpdateName is the self-service profile edit.
func (r *UserRepo) UpdateName(ctx context.Context, id, name string) error {
	return r.update(ctx, "UPDATE users SET name=?, updated_at=? WHERE id=?", name, time.Now().UTC(), id)
}

func (r *UserRepo) update(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
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

func (r *UserRepo) scanOne(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// isDuplicateKey detects MySQL error 1062 (duplicate entry for a unique key).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
