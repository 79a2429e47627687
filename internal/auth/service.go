// Package auth implements email/password login over Redis-backed sessions.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/praxis-clinic/praxis/internal/platform/httpx"
	"github.com/praxis-clinic/praxis/internal/shared"
	"github.com/praxis-clinic/praxis/internal/users"
)

// Service verifies credentials against stored accounts.
type Service struct {
	users users.RepositoryPort
}

// NewService builds Service instance.
func NewService(repo users.RepositoryPort) *Service {
	return &Service{users: repo}
}

// Authenticate checks email and password. Unknown email and wrong password
// fail identically so the endpoint does not reveal which accounts exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return u, nil
}

// HashPassword produces the stored bcrypt hash for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
