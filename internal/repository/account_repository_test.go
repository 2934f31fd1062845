package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YildirimDemir/social-platform/internal/model"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func accountRows(id uint64, username, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
		AddRow(id, username, email, "$2a$10$hash", now, now)
}

func roleRows(roles ...model.Role) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name"})
	for _, r := range roles {
		rows.AddRow(r.ID, r.Name)
	}
	return rows
}

const (
	selectAccountQ = `SELECT id,username,email,password_hash,created_at,updated_at FROM accounts WHERE `
	selectRolesQ   = `SELECT r.id, r.name FROM roles r JOIN account_roles ar ON ar.role_id=r.id WHERE ar.account_id=? ORDER BY r.id`
)

func TestGetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQ + "email=? LIMIT 1")).
		WithArgs("a@example.com").
		WillReturnRows(accountRows(7, "alice", "a@example.com"))
	mock.ExpectQuery(regexp.QuoteMeta(selectRolesQ)).
		WithArgs(uint64(7)).
		WillReturnRows(roleRows(model.Role{ID: 1, Name: "user"}))

	account, err := repo.GetByEmail(context.Background(), " A@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), account.ID)
	assert.Equal(t, "alice", account.Username)
	require.Len(t, account.Roles, 1)
	assert.Equal(t, "user", account.Roles[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepo(db)

	// An empty result set maps to ErrNotFound, not a raw sql error.
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQ + "email=? LIMIT 1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}))

	_, err := repo.GetByEmail(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQ + "id=? LIMIT 1")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommitsAccountAndRoleLinks(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts (username, email, password_hash) VALUES (?,?,?)")).
		WithArgs("alice", "a@example.com", "hash").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO account_roles (account_id, role_id) VALUES (?,?)")).
		WithArgs(uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQ + "id=? LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(accountRows(7, "alice", "a@example.com"))
	mock.ExpectQuery(regexp.QuoteMeta(selectRolesQ)).
		WithArgs(uint64(7)).
		WillReturnRows(roleRows(model.Role{ID: 1, Name: "user"}))

	account, err := repo.Create(context.Background(), "alice", " A@Example.com ", "hash",
		[]model.Role{{ID: 1, Name: "user"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), account.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateKeyIsErrDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO accounts (username, email, password_hash) VALUES (?,?,?)")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'a@example.com' for key 'accounts.email'"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "alice", "a@example.com", "hash", nil)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 7))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM accounts WHERE id=?")).
		WithArgs(uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(errors.New("Error 1062: Duplicate entry")))
	assert.False(t, isDuplicateKey(errors.New("Error 1205: Lock wait timeout")))
	assert.False(t, isDuplicateKey(nil))
}
