package service

import (
	"context"
	"errors"
	"fmt"

	"account_service/internal/model"
	"account_service/internal/repository"
	"account_service/internal/utils"

	"go.uber.org/zap"
)

// TokenPair is one issued access/refresh pair. Refresh rotation replaces the
// whole pair; the previous refresh token is not invalidated and stays usable
// until its own expiry. That residual-validity window is an accepted
// trade-off of the stateless design, not a bug.
type TokenPair struct {
	Access  string
	Refresh string
}

// AuthService provides the account lifecycle use cases.
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	Login(ctx context.Context, email, password string) (TokenPair, error)
	IssueTokens(userID int) (TokenPair, error)
	UpdateProfile(ctx context.Context, userID int, req model.UpdateProfileRequest) error
	ChangePassword(ctx context.Context, user *model.User, req model.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userID int) error
}

type authService struct {
	store  *repository.Store
	tokens *utils.TokenService
	log    *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(store *repository.Store, tokens *utils.TokenService, log *zap.Logger) AuthService {
	return &authService{store: store, tokens: tokens, log: log}
}

// Register creates a new account with the default role. No session is issued;
// login is a separate explicit step. Concurrent registrations with the same
// email race safely: the unique constraint lets exactly one insert win.
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) error {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(r repository.Repos) error {
		existing, err := r.Users.FindOne(ctx, repository.UserFilter{Email: &req.Email})
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyExists
		}

		user := &model.User{
			PhoneNumber:  req.PhoneNumber,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Email:        req.Email,
			PasswordHash: hash,
			RoleID:       model.RoleIDUser,
		}
		return r.Users.Insert(ctx, user)
	})
	if errors.Is(err, repository.ErrUniqueViolation) {
		// lost the race to a concurrent registration
		return ErrAlreadyExists
	}
	return err
}

// Login verifies credentials and issues a token pair. Unknown email and
// wrong password are deliberately indistinguishable to the caller, so error
// responses cannot be used to enumerate accounts. The credential check runs
// in a read-only unit of work.
func (s *authService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var user *model.User
	err := s.store.WithReadTx(ctx, func(r repository.Repos) error {
		var err error
		user, err = r.Users.FindOne(ctx, repository.UserFilter{Email: &email})
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(user.ID)
	if err != nil {
		return TokenPair{}, err
	}
	s.log.Info("user logged in", zap.Int("user_id", user.ID))
	return pair, nil
}

// IssueTokens mints a fresh access/refresh pair for the user.
func (s *authService) IssueTokens(userID int) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue refresh token: %w", err)
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// UpdateProfile applies the set fields to the caller's account. Zero rows
// affected means the account vanished concurrently.
func (s *authService) UpdateProfile(ctx context.Context, userID int, req model.UpdateProfileRequest) error {
	err := s.store.WithTx(ctx, func(r repository.Repos) error {
		count, err := r.Users.Update(ctx,
			repository.UserFilter{ID: &userID},
			repository.UserUpdate{
				Email:       req.Email,
				PhoneNumber: req.PhoneNumber,
				FirstName:   req.FirstName,
				LastName:    req.LastName,
			})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
	if errors.Is(err, repository.ErrUniqueViolation) {
		return ErrAlreadyExists
	}
	return err
}

// ChangePassword requires the old password to match the stored hash; the
// new-differs-from-old rule is enforced at the binding boundary before this
// is reached.
func (s *authService) ChangePassword(ctx context.Context, user *model.User, req model.ChangePasswordRequest) error {
	if !utils.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return err
	}

	return s.store.WithTx(ctx, func(r repository.Repos) error {
		count, err := r.Users.Update(ctx,
			repository.UserFilter{ID: &user.ID},
			repository.UserUpdate{PasswordHash: &hash})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteAccount physically removes the caller's account.
func (s *authService) DeleteAccount(ctx context.Context, userID int) error {
	return s.store.WithTx(ctx, func(r repository.Repos) error {
		count, err := r.Users.Delete(ctx, repository.UserFilter{ID: &userID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		s.log.Info("account deleted", zap.Int("user_id", userID))
		return nil
	})
}
