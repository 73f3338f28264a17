package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// Workspace creation and the creator's owner membership are one atomic unit.
func TestCreateWorkspaceWithOwnerMembership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO workspaces").
		WithArgs(sqlmock.AnyArg(), "Ops", "usr_1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO memberships").
		WithArgs(sqlmock.AnyArg(), "usr_1", "owner", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w, err := NewWorkspaceRepo(db).Create(context.Background(), "Ops", "usr_1")
	if err != nil {
		t.Fatal(err)
	}
	if w.Name != "Ops" || w.CreatedBy != "usr_1" {
		t.Fatalf("unexpected workspace: %+v", w)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

// If the membership insert fails, the workspace insert rolls back with it.
func TestCreateWorkspaceRollsBackOnMembershipFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO workspaces").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO memberships").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := NewWorkspaceRepo(db).Create(context.Background(), "Ops", "usr_1"); err == nil {
		t.Fatal("expected the membership failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
