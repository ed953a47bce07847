package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// UserService handles user accounts.
type UserService struct {
	userRepo *repository.UserRepository
	auth     *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{userRepo: userRepo, auth: auth}
}

// Get retrieves one user.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Create stores a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, username, password string, isAdmin bool) (*model.User, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
