package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"account_service/internal/model"
	"account_service/internal/repository"
	"account_service/internal/utils"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const userColumnsSQL = `SELECT id, phone_number, first_name, last_name, email, password_hash, role_id FROM users`

var registerReq = model.RegisterRequest{
	Email:           "a@x.com",
	PhoneNumber:     "+123456789",
	FirstName:       "Ann",
	LastName:        "Bee",
	Password:        "pass1",
	ConfirmPassword: "pass1",
}

func newAuthService(t *testing.T) (pgxmock.PgxPoolIface, AuthService, *utils.TokenService) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	tokens := utils.NewTokenService("secret", time.Minute, time.Hour)
	store := repository.NewStore(mock, zap.NewNop())
	return mock, NewAuthService(store, tokens, zap.NewNop()), tokens
}

func TestAuthService_Register(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE email = $1 LIMIT 1`)).
		WithArgs("a@x.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("+123456789", "Ann", "Bee", "a@x.com", pgxmock.AnyArg(), model.RoleIDUser).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := svc.Register(context.Background(), registerReq)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE email = $1 LIMIT 1`)).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "first_name", "last_name", "email", "password_hash", "role_id"}).
			AddRow(1, "+123456789", "Ann", "Bee", "a@x.com", "hash", 1))
	mock.ExpectRollback()

	err := svc.Register(context.Background(), registerReq)

	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Register_LosesInsertRace(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	// pre-check saw nothing, but a concurrent registration won the insert
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE email = $1 LIMIT 1`)).
		WithArgs("a@x.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("+123456789", "Ann", "Bee", "a@x.com", pgxmock.AnyArg(), model.RoleIDUser).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	err := svc.Register(context.Background(), registerReq)

	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Login(t *testing.T) {
	mock, svc, tokens := newAuthService(t)

	hash, err := utils.HashPassword("pass1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE email = $1 LIMIT 1`)).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "first_name", "last_name", "email", "password_hash", "role_id"}).
			AddRow(3, "+123456789", "Ann", "Bee", "a@x.com", hash, 1))
	mock.ExpectRollback()

	pair, err := svc.Login(context.Background(), "a@x.com", "pass1")

	assert.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	// both tokens independently resolve to the same subject
	userID, err := tokens.Verify(pair.Access, utils.TokenKindAccess)
	assert.NoError(t, err)
	assert.Equal(t, 3, userID)

	userID, err = tokens.Verify(pair.Refresh, utils.TokenKindRefresh)
	assert.NoError(t, err)
	assert.Equal(t, 3, userID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	hash, _ := utils.HashPassword("pass1")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE email = $1 LIMIT 1`)).
		WithArgs("a@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "phone_number", "first_name", "last_name", "email", "password_hash", "role_id"}).
			AddRow(3, "+123456789", "Ann", "Bee", "a@x.com", hash, 1))
	mock.ExpectRollback()

	_, err := svc.Login(context.Background(), "a@x.com", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userColumnsSQL+` WHERE email = $1 LIMIT 1`)).
		WithArgs("nobody@x.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Login(context.Background(), "nobody@x.com", "pass1")

	// indistinguishable from a wrong password
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_UpdateProfile_NotFound(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET first_name = $1 WHERE id = $2`)).
		WithArgs("Anna", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	name := "Anna"
	err := svc.UpdateProfile(context.Background(), 3, model.UpdateProfileRequest{FirstName: &name})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_ChangePassword(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	hash, _ := utils.HashPassword("old-pass")
	user := &model.User{ID: 3, PasswordHash: hash}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash = $1 WHERE id = $2`)).
		WithArgs(pgxmock.AnyArg(), 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := svc.ChangePassword(context.Background(), user, model.ChangePasswordRequest{
		OldPassword:     "old-pass",
		Password:        "new-pass",
		ConfirmPassword: "new-pass",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_ChangePassword_WrongOldPassword(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	hash, _ := utils.HashPassword("old-pass")
	user := &model.User{ID: 3, PasswordHash: hash}

	// rejected before any storage access
	err := svc.ChangePassword(context.Background(), user, model.ChangePasswordRequest{
		OldPassword:     "not-the-old-one",
		Password:        "new-pass",
		ConfirmPassword: "new-pass",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_DeleteAccount_AlreadyGone(t *testing.T) {
	mock, svc, _ := newAuthService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM users WHERE id = $1`)).
		WithArgs(3).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := svc.DeleteAccount(context.Background(), 3)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
