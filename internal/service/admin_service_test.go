package service

import (
	"context"
	"regexp"
	"testing"

	"account_service/internal/model"
	"account_service/internal/repository"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdminService(t *testing.T) (pgxmock.PgxPoolIface, AdminService) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store := repository.NewStore(mock, zap.NewNop())
	return mock, NewAdminService(store, zap.NewNop())
}

func TestAdminService_GetUser(t *testing.T) {
	mock, svc := newAdminService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE id = $1`)).
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "first_name", "last_name", "email", "password_hash", "role_id"}).
			AddRow(3, "+123456789", "Ann", "Bee", "a@x.com", "hash", 2))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM roles WHERE id = $1`)).
		WithArgs(2).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(2, "Admin"))
	mock.ExpectRollback()

	info, err := svc.GetUser(context.Background(), 3)

	assert.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 3, info.ID)
	assert.Equal(t, 2, info.RoleID)
	assert.Equal(t, "Admin", info.RoleName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_GetUser_NotFound(t *testing.T) {
	mock, svc := newAdminService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE id = $1`)).
		WithArgs(99).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.GetUser(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_ListUsers(t *testing.T) {
	mock, svc := newAdminService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM roles ORDER BY id`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(1, "User").
			AddRow(2, "Admin"))
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL + ` ORDER BY id`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "first_name", "last_name", "email", "password_hash", "role_id"}).
			AddRow(1, "+111111111", "Ann", "Bee", "a@x.com", "h1", 1).
			AddRow(2, "+222222222", "Bob", "Cee", "b@x.com", "h2", 2))
	mock.ExpectRollback()

	infos, err := svc.ListUsers(context.Background())

	assert.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "User", infos[0].RoleName)
	assert.Equal(t, "Admin", infos[1].RoleName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_ChangeRole_InvalidTarget(t *testing.T) {
	mock, svc := newAdminService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET role_id = $1 WHERE id = $2`)).
		WithArgs(42, 3).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "users_role_id_fkey"})
	mock.ExpectRollback()

	err := svc.ChangeRole(context.Background(), 3, 42)

	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_ChangeRole_UserNotFound(t *testing.T) {
	mock, svc := newAdminService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET role_id = $1 WHERE id = $2`)).
		WithArgs(2, 99).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := svc.ChangeRole(context.Background(), 99, 2)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_DeleteUser(t *testing.T) {
	mock, svc := newAdminService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(3).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	assert.NoError(t, svc.DeleteUser(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_AddRole_Duplicate(t *testing.T) {
	mock, svc := newAdminService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO roles (id, name) VALUES ($1, $2)`)).
		WithArgs(2, "Admin").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "roles_pkey"})
	mock.ExpectRollback()

	err := svc.AddRole(context.Background(), model.Role{ID: 2, Name: "Admin"})

	assert.ErrorIs(t, err, ErrRoleAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
