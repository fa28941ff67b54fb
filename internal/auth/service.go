package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/praxis-legal/praxis/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// AssignedCases returns the case ids carried into the session at login.
func (s *Service) AssignedCases(ctx context.Context, userID string) ([]string, error) {
	return s.repo.AssignedCaseIDs(ctx, userID)
}
