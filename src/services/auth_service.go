package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/repositories"
)

// AuthService checks login credentials
type AuthService struct {
	users           repositories.UserRepository
	hasher          *PasswordHasher
	requireVerified bool
	dummyHash       string
}

// NewAuthService creates a new authentication service
func NewAuthService(users repositories.UserRepository, hasher *PasswordHasher, requireVerified bool) (*AuthService, error) {
	// Compared against when the email is unknown so both paths cost one bcrypt round
	dummy, err := hasher.Hash("eventdesk-unknown-user")
	if err != nil {
		return nil, err
	}

	return &AuthService{
		users:           users,
		hasher:          hasher,
		requireVerified: requireVerified,
		dummyHash:       dummy,
	}, nil
}

// Authenticate verifies email and password
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.Compare(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequireVerified rejects users with an unverified email when verification is enforced
func (s *AuthService) RequireVerified(user *models.User) error {
	if s.requireVerified && !user.HasVerifiedEmail() {
		return ErrEmailNotVerified
	}
	return nil
}
