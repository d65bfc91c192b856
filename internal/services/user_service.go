package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "promptforge/internal/errors"
	"promptforge/internal/models"
	"promptforge/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, name string) (*models.User, error)
	// Ensure returns the user with the given name, creating it on first use.
	Ensure(ctx context.Context, name string) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Register(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	u := &models.User{Name: name}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Ensure(ctx context.Context, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	existing, err := s.users.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.Register(ctx, name)
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperrors.NewNotFound("User")
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset)
}
