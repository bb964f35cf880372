package service

import (
	"context"
	"errors"
	"fmt"

	"account_service/internal/model"
	"account_service/internal/repository"

	"go.uber.org/zap"
)

// AdminService provides role-gated user and role management. Callers are
// assumed to have passed the admin middleware already.
type AdminService interface {
	GetUser(ctx context.Context, userID int) (*model.UserInfo, error)
	ListUsers(ctx context.Context) ([]model.UserInfo, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	DeleteUser(ctx context.Context, userID int) error
	ChangeRole(ctx context.Context, userID, roleID int) error
	AddRole(ctx context.Context, role model.Role) error
}

type adminService struct {
	store *repository.Store
	log   *zap.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(store *repository.Store, log *zap.Logger) AdminService {
	return &adminService{store: store, log: log}
}

// userInfo resolves the role by an explicit lookup rather than a live
// relation; the role_id FK guarantees the lookup succeeds.
func userInfo(u model.User, role *model.Role) (*model.UserInfo, error) {
	if role == nil {
		return nil, fmt.Errorf("role %d referenced by user %d does not exist", u.RoleID, u.ID)
	}
	return &model.UserInfo{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		RoleID:      role.ID,
		RoleName:    role.Name,
	}, nil
}

func (s *adminService) GetUser(ctx context.Context, userID int) (*model.UserInfo, error) {
	var info *model.UserInfo
	err := s.store.WithReadTx(ctx, func(r repository.Repos) error {
		user, err := r.Users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		role, err := r.Roles.FindByID(ctx, user.RoleID)
		if err != nil {
			return err
		}
		info, err = userInfo(*user, role)
		return err
	})
	return info, err
}

func (s *adminService) ListUsers(ctx context.Context) ([]model.UserInfo, error) {
	var infos []model.UserInfo
	err := s.store.WithReadTx(ctx, func(r repository.Repos) error {
		roles, err := r.Roles.FindAll(ctx)
		if err != nil {
			return err
		}
		byID := make(map[int]model.Role, len(roles))
		for _, role := range roles {
			byID[role.ID] = role
		}

		users, err := r.Users.FindAll(ctx, repository.UserFilter{})
		if err != nil {
			return err
		}
		for _, u := range users {
			role, ok := byID[u.RoleID]
			if !ok {
				return fmt.Errorf("role %d referenced by user %d does not exist", u.RoleID, u.ID)
			}
			info, err := userInfo(u, &role)
			if err != nil {
				return err
			}
			infos = append(infos, *info)
		}
		return nil
	})
	return infos, err
}

func (s *adminService) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := s.store.WithReadTx(ctx, func(r repository.Repos) error {
		var err error
		roles, err = r.Roles.FindAll(ctx)
		return err
	})
	return roles, err
}

func (s *adminService) DeleteUser(ctx context.Context, userID int) error {
	return s.store.WithTx(ctx, func(r repository.Repos) error {
		count, err := r.Users.Delete(ctx, repository.UserFilter{ID: &userID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		s.log.Info("user deleted by admin", zap.Int("user_id", userID))
		return nil
	})
}

// ChangeRole assigns a new role to a user. The target role's existence is
// enforced by the foreign-key constraint; its violation is translated to
// ErrInvalidRole.
func (s *adminService) ChangeRole(ctx context.Context, userID, roleID int) error {
	err := s.store.WithTx(ctx, func(r repository.Repos) error {
		count, err := r.Users.Update(ctx,
			repository.UserFilter{ID: &userID},
			repository.UserUpdate{RoleID: &roleID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, repository.ErrForeignKeyViolation) {
		return ErrInvalidRole
	}
	return err
}

func (s *adminService) AddRole(ctx context.Context, role model.Role) error {
	err := s.store.WithTx(ctx, func(r repository.Repos) error {
		return r.Roles.Insert(ctx, &role)
	})
	if errors.Is(err, repository.ErrUniqueViolation) {
		return ErrRoleAlreadyExists
	}
	return err
}
