package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/rentora/rentora-backend/internal/domain"
	"github.com/rentora/rentora-backend/internal/repository"
	"github.com/rentora/rentora-backend/pkg/config"
)

type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *domain.UpdateProfileRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, req *domain.ChangePasswordRequest) error
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateRole(ctx context.Context, actor *domain.User, targetID int64, req *domain.UpdateRoleRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, actor *domain.User, targetID int64) error
}

type userService struct {
	userRepo repository.UserRepository
	config   *config.Config
}

func NewUserService(userRepo repository.UserRepository, cfg *config.Config) UserService {
	return &userService{userRepo: userRepo, config: cfg}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, req *domain.UpdateProfileRequest) (*domain.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if err := s.userRepo.UpdateName(ctx, userID, name); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, req *domain.ChangePasswordRequest) error {
	if err := req.Validate(s.config.Auth.MinPasswordLength); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return domain.ErrNotFound
	}

	valid, err := argon2id.ComparePasswordAndHash(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify current password: %w", err)
	}
	if !valid {
		return domain.ErrInvalidLogin
	}

	hash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor *domain.User, targetID int64, req *domain.UpdateRoleRequest) (*domain.User, error) {
	if !domain.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: invalid role %q", domain.ErrValidation, req.Role)
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}

	// Demoting an admin must never leave the system without one. The repo
	// re-checks under a row lock; this flag only applies the guard when the
	// change could remove an admin.
	guard := target.Role == domain.RoleAdmin && req.Role != domain.RoleAdmin
	if err := s.userRepo.UpdateRole(ctx, targetID, req.Role, guard); err != nil {
		return nil, err
	}

	return s.GetProfile(ctx, targetID)
}

func (s *userService) DeleteUser(ctx context.Context, actor *domain.User, targetID int64) error {
	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if target == nil {
		return domain.ErrNotFound
	}

	// Removing the only admin opens the same hole as demoting them, so the
	// delete carries the guard whenever the target holds the admin role.
	guard := target.Role == domain.RoleAdmin
	if err := s.userRepo.DeleteCascade(ctx, targetID, guard); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrLastAdmin) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
