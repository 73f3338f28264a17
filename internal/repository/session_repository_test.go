package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSessionCreateCarriesTTL(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "usr_1", "digest-1", "10.0.0.1", "agent", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s, err := NewSessionRepo(db).Create(context.Background(), "usr_1", "digest-1", "10.0.0.1", "agent", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != time.Hour {
		t.Fatalf("expiry - creation = %v, want 1h", got)
	}
	if s.TokenDigest != "digest-1" {
		t.Fatalf("digest = %q", s.TokenDigest)
	}
}

// Expiry filtering happens in the query itself; a dead session resolves
// exactly like an absent one.
func TestGetActiveByDigestMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM sessions s").
		WithArgs("digest-x", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, _, err = NewSessionRepo(db).GetActiveByDigest(context.Background(), "digest-x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetActiveByDigestReturnsUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM sessions s").
		WithArgs("digest-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"s_id", "s_user_id", "s_token_digest", "s_ip", "s_user_agent", "s_created_at", "s_expires_at",
			"u_id", "u_email", "u_name", "u_password_hash", "u_role", "u_is_active", "u_created_at", "u_updated_at",
		}).AddRow(
			"ses_1", "usr_1", "digest-1", "10.0.0.1", "agent", now, now.Add(time.Hour),
			"usr_1", "a@example.com", "Ada", "hash", "user", true, now, now,
		))

	s, u, err := NewSessionRepo(db).GetActiveByDigest(context.Background(), "digest-1")
	if err != nil {
		t.Fatal(err)
	}
	if s.UserID != u.ID {
		t.Fatalf("session user %q != user %q", s.UserID, u.ID)
	}
	if u.Email != "a@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}
