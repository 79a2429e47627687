package users

import (
	"context"

	"github.com/praxis-clinic/praxis/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u User) (*User, error)
}

// Service handles account lookups and scope resolution.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetByEmail returns the account with the given email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// GetByID returns the account with the given id.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveScope turns a session user id into the request's owner scope.
func (s *Service) ResolveScope(ctx context.Context, userID int64) (shared.Scope, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return shared.Scope{}, err
	}
	return shared.Scope{UserID: u.ID, Role: u.Role}, nil
}
