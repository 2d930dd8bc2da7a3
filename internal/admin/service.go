package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is the persistence the admin Service depends on.
type Store interface {
	Create(ctx context.Context, email, passwordHash string) (*Admin, error)
	GetByID(ctx context.Context, id string) (*Admin, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Service contains business logic for admin accounts.
type Service struct {
	repo Store
}

// NewService creates a new admin Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Create registers a new admin account.
func (s *Service) Create(ctx context.Context, email, passwordHash string) (*Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("create admin: invalid email %q", email)
	}
	a, err := s.repo.Create(ctx, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return a, nil
}

// GetByID returns an admin by their UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*Admin, error) {
	return s.repo.GetByID(ctx, id)
}

// IsAdmin reports whether id belongs to an existing admin account.
func (s *Service) IsAdmin(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return ok, nil
}

// IsNotFound returns true when the error indicates an admin was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
