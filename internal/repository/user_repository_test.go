package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gridbase/gridbase/internal/utils"
)

// Role assignment happens inside the INSERT itself (counting over a derived
// table), never as a separate read the code could act on. The expectations
// below pin that shape: one insert, no transaction, no standalone count.
func TestCreateFirstUserBecomesAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "ada@example.com", "Ada", sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT role FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))

	u, err := NewUserRepo(db).Create(context.Background(), " Ada@Example.com ", "Ada", "long-enough")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != "admin" {
		t.Fatalf("first user role = %q, want admin", u.Role)
	}
	if u.Email != "ada@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if !utils.VerifyPassword("long-enough", u.PasswordHash) {
		t.Fatal("stored hash does not verify the password")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateLaterUserIsRegularUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "b@example.com", "B", sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT role FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("user"))

	u, err := NewUserRepo(db).Create(context.Background(), "b@example.com", "B", "long-enough")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != "user" {
		t.Fatalf("role = %q, want user", u.Role)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'b@example.com' for key 'users.email'"))

	_, err = NewUserRepo(db).Create(context.Background(), "b@example.com", "B", "long-enough")
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("got %v, want ErrEmailExists", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs("usr_missing").
		WillReturnError(sql.ErrNoRows)

	_, err = NewUserRepo(db).GetByID(context.Background(), "usr_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
