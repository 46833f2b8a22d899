package user

import (
	"context"
	"strings"

	"txaudit/internal/shared/apperr"
	"txaudit/internal/shared/auth"
)

const minPasswordLength = 8

// Service contains the business logic for user accounts.
type Service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies username and password. Unknown users and wrong
// passwords produce the same error so usernames cannot be probed.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, apperr.Validation("credentials", "username and password are required")
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Storage("get user by username", err)
	}
	if u == nil {
		return nil, apperr.Unauthenticated("invalid username or password")
	}

	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, apperr.Unauthenticated("invalid username or password")
	}

	return u, nil
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string, role Role) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperr.Validation("username", "is required")
	}
	if len(password) < minPasswordLength {
		return nil, apperr.Validationf("password", "must be at least %d characters", minPasswordLength)
	}
	if !role.Valid() {
		return nil, apperr.Validationf("role", "must be %q or %q", RoleAuditor, RoleTransactor)
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Storage("get user by username", err)
	}
	if existing != nil {
		return nil, apperr.Validation("username", "is already taken")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, apperr.Storage("create user", err)
	}
	return u, nil
}

// Get returns the user with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("get user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

// List returns every user ordered by id.
func (s *Service) List(ctx context.Context) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Storage("list users", err)
	}
	return users, nil
}
