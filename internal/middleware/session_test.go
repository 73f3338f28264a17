package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/gridbase/gridbase/internal/auth"
	"github.com/gridbase/gridbase/internal/repository"
	"github.com/gridbase/gridbase/internal/utils"
)

func sessionColumns() []string {
	return []string{
		"s_id", "s_user_id", "s_token_digest", "s_ip", "s_user_agent", "s_created_at", "s_expires_at",
		"u_id", "u_email", "u_name", "u_password_hash", "u_role", "u_is_active", "u_created_at", "u_updated_at",
	}
}

func sessionRow(digest string, active bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(sessionColumns()).AddRow(
		"ses_1", "usr_1", digest, "10.2.0.1", "go-test", now, now.Add(time.Hour),
		"usr_1", "a@example.com", "Ada", "pbkdf2:sha256:120000$aa$bb", "user", active, now, now,
	)
}

func newGate(t *testing.T) (echo.HandlerFunc, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	next := func(c echo.Context) error {
		ident, found := auth.CurrentIdentity(c)
		if !found {
			t.Error("identity missing in handler behind the gate")
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, echo.Map{"user": ident.User.ID, "session": ident.Session.ID})
	}
	h := SessionAuth(repository.NewSessionRepo(db))(next)
	return h, mock, func() { db.Close() }
}

func runGate(h echo.HandlerFunc, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	_ = h(c)
	return rec
}

func TestSessionAuthNoToken(t *testing.T) {
	h, _, done := newGate(t)
	defer done()
	rec := runGate(h, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

// A token with no live session row and a missing token answer the same way:
// same status, same body. Expired sessions are filtered inside the SQL, so
// they take exactly this path too.
func TestSessionAuthUnknownTokenMatchesMissing(t *testing.T) {
	h, mock, done := newGate(t)
	defer done()

	missing := runGate(h, nil)

	mock.ExpectQuery("FROM sessions s").WillReturnError(sql.ErrNoRows)
	unknown := runGate(h, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "deadbeef"})
	})

	if unknown.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", unknown.Code)
	}
	if missing.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies must be indistinguishable:\n%s\n%s", missing.Body.String(), unknown.Body.String())
	}
}

func TestSessionAuthCookieTransport(t *testing.T) {
	h, mock, done := newGate(t)
	defer done()

	raw := "aaaa1111"
	mock.ExpectQuery("FROM sessions s").
		WithArgs(utils.DigestToken(raw), sqlmock.AnyArg()).
		WillReturnRows(sessionRow(utils.DigestToken(raw), true))

	rec := runGate(h, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: raw})
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSessionAuthBearerTransport(t *testing.T) {
	h, mock, done := newGate(t)
	defer done()

	raw := "bbbb2222"
	mock.ExpectQuery("FROM sessions s").
		WithArgs(utils.DigestToken(raw), sqlmock.AnyArg()).
		WillReturnRows(sessionRow(utils.DigestToken(raw), true))

	rec := runGate(h, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+raw)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

// The cookie wins when both transports are present.
func TestSessionAuthCookiePreferredOverBearer(t *testing.T) {
	h, mock, done := newGate(t)
	defer done()

	cookieTok := "cccc3333"
	mock.ExpectQuery("FROM sessions s").
		WithArgs(utils.DigestToken(cookieTok), sqlmock.AnyArg()).
		WillReturnRows(sessionRow(utils.DigestToken(cookieTok), true))

	rec := runGate(h, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookieTok})
		r.Header.Set("Authorization", "Bearer something-else")
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// Account suspension is the one auth failure that is allowed to look
// different: 403 instead of the generic 401.
func TestSessionAuthDisabledAccount(t *testing.T) {
	h, mock, done := newGate(t)
	defer done()

	raw := "dddd4444"
	mock.ExpectQuery("FROM sessions s").
		WithArgs(utils.DigestToken(raw), sqlmock.AnyArg()).
		WillReturnRows(sessionRow(utils.DigestToken(raw), false))

	rec := runGate(h, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: raw})
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403", rec.Code)
	}
}
