package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestResolveTableAccessMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM tables t").
		WithArgs("usr_1", "tbl_1").
		WillReturnRows(sqlmock.NewRows([]string{"workspace_id", "role"}).AddRow("wsp_1", "editor"))

	access, err := NewMembershipRepo(db).ResolveTableAccess(context.Background(), "usr_1", "tbl_1")
	if err != nil {
		t.Fatal(err)
	}
	if access == nil || access.WorkspaceID != "wsp_1" || access.Role != "editor" {
		t.Fatalf("unexpected access: %+v", access)
	}
}

// The resolver's answer for "table does not exist" and "table exists but the
// caller is no member" is the same nil: in SQL terms both are an empty join
// result, and nothing downstream can tell them apart.
func TestResolveTableAccessNilForMissingAndForeign(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	// nonexistent table id
	mock.ExpectQuery("FROM tables t").
		WithArgs("usr_1", "tbl_missing").
		WillReturnError(sql.ErrNoRows)
	// existing table in a workspace the caller does not belong to: the
	// membership join drops the row, so the store answers the same way
	mock.ExpectQuery("FROM tables t").
		WithArgs("usr_1", "tbl_foreign").
		WillReturnError(sql.ErrNoRows)

	repo := NewMembershipRepo(db)
	for _, id := range []string{"tbl_missing", "tbl_foreign"} {
		access, err := repo.ResolveTableAccess(context.Background(), "usr_1", id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if access != nil {
			t.Fatalf("%s: expected nil access, got %+v", id, access)
		}
	}
}

func TestResolveWorkspaceAccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM memberships m").
		WithArgs("wsp_1", "usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"workspace_id", "role"}).AddRow("wsp_1", "owner"))

	access, err := NewMembershipRepo(db).ResolveWorkspaceAccess(context.Background(), "usr_1", "wsp_1")
	if err != nil {
		t.Fatal(err)
	}
	if access == nil || access.Role != "owner" {
		t.Fatalf("unexpected access: %+v", access)
	}
}

// The owner check and the delete share one transaction with locking reads;
// the expectations pin that shape so the check cannot drift back to separate
// autocommit statements.
func TestRemoveLastOwnerRefused(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM memberships").
		WithArgs("wsp_1", "usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("owner"))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("wsp_1").
		WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(1))
	mock.ExpectRollback()

	err = NewMembershipRepo(db).Remove(context.Background(), "wsp_1", "usr_1")
	if err != ErrConflict {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRemoveCoOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM memberships").
		WithArgs("wsp_1", "usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("owner"))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("wsp_1").
		WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(2))
	mock.ExpectExec("DELETE FROM memberships").
		WithArgs("wsp_1", "usr_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewMembershipRepo(db).Remove(context.Background(), "wsp_1", "usr_1"); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRemoveEditor(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT role FROM memberships").
		WithArgs("wsp_1", "usr_2").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("editor"))
	mock.ExpectExec("DELETE FROM memberships").
		WithArgs("wsp_1", "usr_2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := NewMembershipRepo(db).Remove(context.Background(), "wsp_1", "usr_2"); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListMembers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM memberships WHERE workspace_id").
		WithArgs("wsp_1").
		WillReturnRows(sqlmock.NewRows([]string{"workspace_id", "user_id", "role", "created_at"}).
			AddRow("wsp_1", "usr_1", "owner", now).
			AddRow("wsp_1", "usr_2", "viewer", now))

	members, err := NewMembershipRepo(db).ListMembers(context.Background(), "wsp_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[0].Role != "owner" || members[1].UserID != "usr_2" {
		t.Fatalf("unexpected members: %+v", members)
	}
}
