package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"account_service/internal/model"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = "id, phone_number, first_name, last_name, email, password_hash, role_id"

// UserFilter selects users by the attributes that are set. Nil fields do not
// constrain the query.
type UserFilter struct {
	ID          *int
	Email       *string
	PhoneNumber *string
	RoleID      *int
}

func (f UserFilter) conditions() ([]string, []any) {
	var cols []string
	var args []any
	if f.ID != nil {
		cols = append(cols, "id")
		args = append(args, *f.ID)
	}
	if f.Email != nil {
		cols = append(cols, "email")
		args = append(args, *f.Email)
	}
	if f.PhoneNumber != nil {
		cols = append(cols, "phone_number")
		args = append(args, *f.PhoneNumber)
	}
	if f.RoleID != nil {
		cols = append(cols, "role_id")
		args = append(args, *f.RoleID)
	}
	return cols, args
}

func (f UserFilter) logFields() []zap.Field {
	var fields []zap.Field
	if f.ID != nil {
		fields = append(fields, zap.Int("id", *f.ID))
	}
	if f.Email != nil {
		fields = append(fields, zap.String("email", *f.Email))
	}
	if f.PhoneNumber != nil {
		fields = append(fields, zap.String("phone_number", *f.PhoneNumber))
	}
	if f.RoleID != nil {
		fields = append(fields, zap.Int("role_id", *f.RoleID))
	}
	return fields
}

// UserUpdate is a partial update: only set fields are written.
type UserUpdate struct {
	Email        *string
	PhoneNumber  *string
	FirstName    *string
	LastName     *string
	PasswordHash *string
	RoleID       *int
}

func (u UserUpdate) assignments() ([]string, []any) {
	var cols []string
	var args []any
	if u.Email != nil {
		cols = append(cols, "email")
		args = append(args, *u.Email)
	}
	if u.PhoneNumber != nil {
		cols = append(cols, "phone_number")
		args = append(args, *u.PhoneNumber)
	}
	if u.FirstName != nil {
		cols = append(cols, "first_name")
		args = append(args, *u.FirstName)
	}
	if u.LastName != nil {
		cols = append(cols, "last_name")
		args = append(args, *u.LastName)
	}
	if u.PasswordHash != nil {
		cols = append(cols, "password_hash")
		args = append(args, *u.PasswordHash)
	}
	if u.RoleID != nil {
		cols = append(cols, "role_id")
		args = append(args, *u.RoleID)
	}
	return cols, args
}

// logFields reports which attributes the update carries. Password hashes are
// redacted.
func (u UserUpdate) logFields() []zap.Field {
	var fields []zap.Field
	if u.Email != nil {
		fields = append(fields, zap.String("email", *u.Email))
	}
	if u.PhoneNumber != nil {
		fields = append(fields, zap.String("phone_number", *u.PhoneNumber))
	}
	if u.FirstName != nil {
		fields = append(fields, zap.String("first_name", *u.FirstName))
	}
	if u.LastName != nil {
		fields = append(fields, zap.String("last_name", *u.LastName))
	}
	if u.PasswordHash != nil {
		fields = append(fields, zap.String("password_hash", "[redacted]"))
	}
	if u.RoleID != nil {
		fields = append(fields, zap.Int("role_id", *u.RoleID))
	}
	return fields
}

// UserRepository manages user rows through the generic filter contract.
type UserRepository struct {
	db  Querier
	log *zap.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db Querier, log *zap.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.RoleID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID retrieves a user by ID. Absence is not an error: (nil, nil).
func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("find user by id failed", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return u, nil
}

// FindOne retrieves an arbitrary single user matching the filter, or
// (nil, nil) if none matches. Callers must only rely on it where a prior
// uniqueness invariant holds (email, phone number).
func (r *UserRepository) FindOne(ctx context.Context, f UserFilter) (*model.User, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + userColumns + ` FROM users`)
	cols, args := f.conditions()
	writeWhere(&b, cols)
	b.WriteString(" LIMIT 1")

	u, err := scanUser(r.db.QueryRow(ctx, b.String(), args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("find user failed", append(f.logFields(), zap.Error(err))...)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

// FindAll retrieves all users matching the filter; an empty filter returns
// every row.
func (r *UserRepository) FindAll(ctx context.Context, f UserFilter) ([]model.User, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + userColumns + ` FROM users`)
	cols, args := f.conditions()
	writeWhere(&b, cols)
	b.WriteString(" ORDER BY id")

	rows, err := r.db.Query(ctx, b.String(), args...)
	if err != nil {
		r.log.Error("query users failed", append(f.logFields(), zap.Error(err))...)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.PhoneNumber, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.RoleID); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// Insert creates a user and assigns its ID. Unique collisions surface as
// ErrUniqueViolation.
func (r *UserRepository) Insert(ctx context.Context, u *model.User) error {
	sql := `INSERT INTO users (phone_number, first_name, last_name, email, password_hash, role_id)
            VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.db.QueryRow(ctx, sql, u.PhoneNumber, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.RoleID).Scan(&u.ID)
	if err != nil {
		err = translateError(err)
		r.log.Error("insert user failed", zap.String("email", u.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	r.log.Info("user created", zap.Int("id", u.ID), zap.String("email", u.Email))
	return nil
}

// Update applies the set values to all rows matching the filter and returns
// the affected-row count. An empty filter is rejected: unscoped updates are
// a correctness hazard and no caller needs one.
func (r *UserRepository) Update(ctx context.Context, f UserFilter, v UserUpdate) (int64, error) {
	fcols, fargs := f.conditions()
	if len(fcols) == 0 {
		return 0, ErrEmptyFilter
	}
	vcols, vargs := v.assignments()
	if len(vcols) == 0 {
		return 0, ErrEmptyUpdate
	}

	var b strings.Builder
	b.WriteString("UPDATE users SET ")
	for i, col := range vcols {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = $%d", col, i+1)
	}
	b.WriteString(" WHERE ")
	for i, col := range fcols {
		if i > 0 {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s = $%d", col, len(vcols)+i+1)
	}

	tag, err := r.db.Exec(ctx, b.String(), append(vargs, fargs...)...)
	if err != nil {
		err = translateError(err)
		r.log.Error("update users failed", append(append(f.logFields(), v.logFields()...), zap.Error(err))...)
		return 0, fmt.Errorf("failed to update users: %w", err)
	}
	r.log.Info("users updated", append(f.logFields(), zap.Int64("rows", tag.RowsAffected()))...)
	return tag.RowsAffected(), nil
}

// Delete removes all rows matching the filter and returns the affected-row
// count. An empty filter is rejected to prevent a full-table wipe by
// omission.
func (r *UserRepository) Delete(ctx context.Context, f UserFilter) (int64, error) {
	cols, args := f.conditions()
	if len(cols) == 0 {
		return 0, ErrEmptyFilter
	}

	var b strings.Builder
	b.WriteString("DELETE FROM users")
	writeWhere(&b, cols)

	tag, err := r.db.Exec(ctx, b.String(), args...)
	if err != nil {
		r.log.Error("delete users failed", append(f.logFields(), zap.Error(err))...)
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	r.log.Info("users deleted", append(f.logFields(), zap.Int64("rows", tag.RowsAffected()))...)
	return tag.RowsAffected(), nil
}

func writeWhere(b *strings.Builder, cols []string) {
	for i, col := range cols {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(b, "%s = $%d", col, i+1)
	}
}
