package repository

import (
	"context"
	"errors"
	"fmt"

	"account_service/internal/model"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// RoleRepository manages the role lookup table. Roles are seeded at
// bootstrap and rarely change.
type RoleRepository struct {
	db  Querier
	log *zap.Logger
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db Querier, log *zap.Logger) *RoleRepository {
	return &RoleRepository{db: db, log: log}
}

// FindByID retrieves a role by ID. Absence is not an error: (nil, nil).
func (r *RoleRepository) FindByID(ctx context.Context, id int) (*model.Role, error) {
	role := &model.Role{}
	sql := `SELECT id, name FROM roles WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("find role by id failed", zap.Int("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to find role by ID: %w", err)
	}
	return role, nil
}

// FindAll retrieves all roles in ID order.
func (r *RoleRepository) FindAll(ctx context.Context) ([]model.Role, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		r.log.Error("query roles failed", zap.Error(err))
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", err)
		}
		roles = append(roles, role)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role rows: %w", err)
	}
	return roles, nil
}

// Insert creates a role with an explicit ID. Collisions on ID or name
// surface as ErrUniqueViolation.
func (r *RoleRepository) Insert(ctx context.Context, role *model.Role) error {
	sql := `INSERT INTO roles (id, name) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, sql, role.ID, role.Name)
	if err != nil {
		err = translateError(err)
		r.log.Error("insert role failed", zap.Int("id", role.ID), zap.String("name", role.Name), zap.Error(err))
		return fmt.Errorf("failed to create role: %w", err)
	}
	r.log.Info("role created", zap.Int("id", role.ID), zap.String("name", role.Name))
	return nil
}
