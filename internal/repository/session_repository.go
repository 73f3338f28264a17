package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gridbase/gridbase/internal/utils"
)

// Session mirrors the 'sessions' table. TokenDigest is the SHA-256 of the
// bearer token; the raw token never touches storage.
type Session struct {
	ID          string
	UserID      string
	TokenDigest string
	IP          string
	UserAgent   string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// SessionRepo persists and resolves login sessions by token digest.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row for the given user. The token_digest column
// carries a unique constraint; a collision means the RNG handed out the same
// 32 bytes twice, which we surface rather than silently retry.
func (r *SessionRepo) Create(ctx context.Context, userID, tokenDigest, ip, userAgent string, ttl time.Duration) (Session, error) {
	id, err := utils.NewID(utils.IDPrefixSession)
	if err != nil {
		return Session{}, err
	}
	now := time.Now().UTC()
	s := Session{
		ID: id, UserID: userID, TokenDigest: tokenDigest,
		IP: ip, UserAgent: userAgent,
		CreatedAt: now, ExpiresAt: now.Add(ttl),
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, token_digest, ip, user_agent, created_at, expires_at) VALUES (?,?,?,?,?,?,?)",
		s.ID, s.UserID, s.TokenDigest, s.IP, s.UserAgent, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// GetActiveByDigest resolves a live session and its owning user in a single
// join. Expired sessions are filtered in SQL so they are indistinguishable
// from nonexistent ones to every caller.
func (r *SessionRepo) GetActiveByDigest(ctx context.Context, tokenDigest string) (Session, User, error) {
	var (
		s Session
		u User
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.token_digest, s.ip, s.user_agent, s.created_at, s.expires_at,
		        u.id, u.email, u.name, u.password_hash, u.role, u.is_active, u.created_at, u.updated_at
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token_digest=? AND s.expires_at > ?
		 LIMIT 1`,
		tokenDigest, time.Now().UTC()).
		Scan(&s.ID, &s.UserID, &s.TokenDigest, &s.IP, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt,
			&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, User{}, ErrNotFound
	}
	if err != nil {
		return Session{}, User{}, err
	}
	return s, u, nil
}

// DeleteByDigest removes a single session (logout of one device).
func (r *SessionRepo) DeleteByDigest(ctx context.Context, tokenDigest string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE token_digest=?", tokenDigest)
	return err
}

// DeleteAllForUser logs the user out everywhere.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE user_id=?", userID)
	return err
}

// ListForUser returns the user's live sessions, newest first.
func (r *SessionRepo) ListForUser(ctx context.Context, userID string) ([]Session, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, token_digest, ip, user_agent, created_at, expires_at
		 FROM sessions WHERE user_id=? AND expires_at > ? ORDER BY created_at DESC`,
		userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TokenDigest, &s.IP, &s.UserAgent, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteExpired prunes dead rows; callers may run it periodically. Expiry
// itself never depends on this, the digest lookup filters by expires_at.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
